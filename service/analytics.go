package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"petopia/apperror"
	"petopia/cache"
	"petopia/models"
	"petopia/pipeline"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	analyticsPrefix = "analytics:"
	reportTimeout   = 30 * time.Second
)

// Range bounds a report by order creation time. Either end may be nil.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) key() string {
	f := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return f(r.From) + "~" + f(r.To)
}

func (r Range) validate() error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return apperror.Newf(apperror.CodeValidationFailed, "'to' must not be before 'from'")
	}
	return nil
}

// AnalyticsService serves the admin dashboard reports. Results are cached
// and concurrent misses for the same report share one aggregation.
type AnalyticsService struct {
	reports  AnalyticsStore
	users    UserStore
	products ProductStore
	orders   OrderStore
	cache    cache.Cache
	sfg      singleflight.Group
}

func NewAnalyticsService(reports AnalyticsStore, users UserStore, products ProductStore, orders OrderStore, c cache.Cache) *AnalyticsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AnalyticsService{reports: reports, users: users, products: products, orders: orders, cache: c}
}

// Invalidate drops every cached report.
func (s *AnalyticsService) Invalidate(ctx context.Context) error {
	return s.cache.DeletePrefix(ctx, analyticsPrefix)
}

// cached serves key from the cache or loads it once for all concurrent
// callers. The load runs detached from any single caller, each of whom may
// still give up on its own context.
func cached[T any](ctx context.Context, s *AnalyticsService, key string, load func(context.Context) (T, error)) (T, error) {
	key = analyticsPrefix + key
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()

		var out T
		err := s.cache.Get(ctx, key, &out)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			zap.L().Warn("analytics cache get failed", zap.String("key", key), zap.Error(err))
		}

		out, err = load(ctx)
		if err != nil {
			return out, err
		}
		if err := s.cache.Set(ctx, key, out); err != nil {
			zap.L().Warn("analytics cache set failed", zap.String("key", key), zap.Error(err))
		}
		return out, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, reportErr(res.Err)
		}
		return res.Val.(T), nil
	}
}

func reportErr(err error) error {
	if errors.Is(err, pipeline.ErrUnknownPeriod) || errors.Is(err, pipeline.ErrInvalidBoundaries) {
		return apperror.Wrap(apperror.CodeValidationFailed, err)
	}
	return err
}

func (s *AnalyticsService) Summary(ctx context.Context, r Range) (models.DashboardSummary, error) {
	if err := r.validate(); err != nil {
		return models.DashboardSummary{}, err
	}
	return cached(ctx, s, "summary:"+r.key(), func(ctx context.Context) (models.DashboardSummary, error) {
		var out models.DashboardSummary
		rev, err := s.reports.Revenue(ctx, r.From, r.To)
		if err != nil {
			return out, err
		}
		out.RevenueSummary = rev
		if out.Customers, err = s.users.CountByRole(ctx, models.RoleCustomer); err != nil {
			return out, err
		}
		if out.Products, out.LowStock, err = s.products.CountLive(ctx); err != nil {
			return out, err
		}
		if out.PendingOrders, err = s.orders.CountByStatus(ctx, "pending"); err != nil {
			return out, err
		}
		return out, nil
	})
}

func (s *AnalyticsService) Sales(ctx context.Context, period string, r Range) ([]models.SalesPoint, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	p, err := pipeline.ParsePeriod(period)
	if err != nil {
		return nil, reportErr(err)
	}
	return cached(ctx, s, fmt.Sprintf("sales:%s:%s", p, r.key()), func(ctx context.Context) ([]models.SalesPoint, error) {
		return s.reports.SalesOverTime(ctx, p, r.From, r.To)
	})
}

func (s *AnalyticsService) Statuses(ctx context.Context, r Range) ([]models.StatusCount, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return cached(ctx, s, "status:"+r.key(), func(ctx context.Context) ([]models.StatusCount, error) {
		return s.reports.StatusBreakdown(ctx, r.From, r.To)
	})
}

func (s *AnalyticsService) TopProducts(ctx context.Context, limit int, r Range) ([]models.ProductSales, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	_, limit = pipeline.NormalizePage(1, limit)
	return cached(ctx, s, fmt.Sprintf("top:%d:%s", limit, r.key()), func(ctx context.Context) ([]models.ProductSales, error) {
		return s.reports.TopProducts(ctx, limit, r.From, r.To)
	})
}

func (s *AnalyticsService) Categories(ctx context.Context, r Range) ([]models.CategorySales, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return cached(ctx, s, "categories:"+r.key(), func(ctx context.Context) ([]models.CategorySales, error) {
		return s.reports.CategorySales(ctx, r.From, r.To)
	})
}

// Buckets groups orders by total. Empty boundaries use
// pipeline.DefaultBuckets.
func (s *AnalyticsService) Buckets(ctx context.Context, boundaries []float64, r Range) ([]models.ValueBucket, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if len(boundaries) == 0 {
		boundaries = pipeline.DefaultBuckets
	}
	parts := make([]string, len(boundaries))
	for i, b := range boundaries {
		parts[i] = strconv.FormatFloat(b, 'f', -1, 64)
	}
	key := fmt.Sprintf("buckets:%s:%s", strings.Join(parts, ","), r.key())
	return cached(ctx, s, key, func(ctx context.Context) ([]models.ValueBucket, error) {
		return s.reports.OrderValueBuckets(ctx, boundaries, r.From, r.To)
	})
}
