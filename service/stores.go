package service

import (
	"context"
	"time"

	"petopia/models"
	"petopia/pipeline"
	"petopia/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The store interfaces are satisfied by the repository package; tests use
// in-memory fakes.

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Category, error)
	NameTaken(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error
	Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Category], error)
	All(ctx context.Context) ([]models.Category, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Product, error)
	NameTaken(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error
	Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error)
	AdjustStock(ctx context.Context, id primitive.ObjectID, sku string, delta int) error
	CountLive(ctx context.Context) (total, lowStock int64, err error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type CouponStore interface {
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
	FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	CodeTaken(ctx context.Context, code string, excludeID primitive.ObjectID) (bool, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error
	Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Coupon], error)
	Redeem(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.User], error)
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*models.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.OrderListItem], error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, q pipeline.ListQuery) (pipeline.PageResult[models.Order], error)
	ApplyStatus(ctx context.Context, id primitive.ObjectID, u repository.StatusUpdate) (*models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Order, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type TokenStore interface {
	Blacklist(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type AnalyticsStore interface {
	Revenue(ctx context.Context, from, to *time.Time) (models.RevenueSummary, error)
	SalesOverTime(ctx context.Context, period pipeline.Period, from, to *time.Time) ([]models.SalesPoint, error)
	StatusBreakdown(ctx context.Context, from, to *time.Time) ([]models.StatusCount, error)
	TopProducts(ctx context.Context, limit int, from, to *time.Time) ([]models.ProductSales, error)
	CategorySales(ctx context.Context, from, to *time.Time) ([]models.CategorySales, error)
	OrderValueBuckets(ctx context.Context, boundaries []float64, from, to *time.Time) ([]models.ValueBucket, error)
}

// Invalidator drops cached reports after data they summarise changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) error { return nil }
