package repository

import (
	"context"
	"fmt"
	"time"

	"petopia/database"
	"petopia/models"
	"petopia/pipeline"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var couponListSpec = pipeline.ListSpec{
	SearchFields: []string{"code", "description"},
	SortFields: map[string]string{
		"code":          "code",
		"discountValue": "discountValue",
		"usedCount":     "usedCount",
		"expiresAt":     "expiresAt",
		"createdAt":     "createdAt",
	},
	DateField:  "createdAt",
	SoftDelete: true,
}

type CouponRepository struct {
	collection *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{collection: db.Collection(database.CouponCollection)}
}

func (r *CouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return wrapErr(err, "create coupon")
}

func (r *CouponRepository) Update(ctx context.Context, c *models.Coupon) error {
	return replace(ctx, r.collection, c.ID, c)
}

func (r *CouponRepository) FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.collection, notDeletedFilter(id, includeDeleted), "get coupon")
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return findOne[models.Coupon](ctx, r.collection, bson.M{"code": code, "isDeleted": bson.M{"$ne": true}}, "get coupon")
}

// CodeTaken checks codes across deleted coupons too: the unique index on code
// is not partial, so a deleted coupon still holds its code.
func (r *CouponRepository) CodeTaken(ctx context.Context, code string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"code": code}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}
	return n > 0, nil
}

func (r *CouponRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return softDelete(ctx, r.collection, id, now)
}

func (r *CouponRepository) Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return restore(ctx, r.collection, id, now)
}

func (r *CouponRepository) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Coupon], error) {
	return listPage[models.Coupon](ctx, r.collection, q, couponListSpec)
}

// Redeem consumes one use of the coupon unless its usage limit is reached.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	filter := bson.M{
		"code":      code,
		"isDeleted": bson.M{"$ne": true},
		"$or": bson.A{
			bson.M{"usageLimit": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$usageLimit"}}},
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"usedCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to redeem coupon: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUsageExhausted
	}
	return nil
}

// Release gives back one use, never dropping usedCount below zero.
func (r *CouponRepository) Release(ctx context.Context, code string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"code": code, "usedCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"usedCount": -1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to release coupon: %w", err)
	}
	return nil
}
