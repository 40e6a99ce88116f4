package repository

import (
	"context"
	"fmt"
	"time"

	"petopia/database"
	"petopia/models"
	"petopia/pipeline"

	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsRepository runs the reporting pipelines against the orders
// collection.
type AnalyticsRepository struct {
	orders *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{orders: db.Collection(database.OrderCollection)}
}

func (r *AnalyticsRepository) Revenue(ctx context.Context, from, to *time.Time) (models.RevenueSummary, error) {
	rows, err := aggregateAll[models.RevenueSummary](ctx, r.orders, pipeline.RevenueSummary(from, to), "aggregate revenue")
	if err != nil || len(rows) == 0 {
		return models.RevenueSummary{}, err
	}
	return rows[0], nil
}

func (r *AnalyticsRepository) SalesOverTime(ctx context.Context, period pipeline.Period, from, to *time.Time) ([]models.SalesPoint, error) {
	p, err := pipeline.SalesOverTime(period, from, to)
	if err != nil {
		return nil, err
	}
	return aggregateAll[models.SalesPoint](ctx, r.orders, p, "aggregate sales")
}

func (r *AnalyticsRepository) StatusBreakdown(ctx context.Context, from, to *time.Time) ([]models.StatusCount, error) {
	return aggregateAll[models.StatusCount](ctx, r.orders, pipeline.StatusBreakdown(from, to), "aggregate statuses")
}

func (r *AnalyticsRepository) TopProducts(ctx context.Context, limit int, from, to *time.Time) ([]models.ProductSales, error) {
	return aggregateAll[models.ProductSales](ctx, r.orders, pipeline.TopProducts(limit, from, to), "aggregate top products")
}

func (r *AnalyticsRepository) CategorySales(ctx context.Context, from, to *time.Time) ([]models.CategorySales, error) {
	return aggregateAll[models.CategorySales](ctx, r.orders, pipeline.CategorySales(from, to), "aggregate category sales")
}

type bucketRow struct {
	ID      any     `bson:"_id"`
	Count   int64   `bson:"count"`
	Revenue float64 `bson:"revenue"`
}

// OrderValueBuckets returns one entry per range, including empty ones, so
// the chart always has the same bars.
func (r *AnalyticsRepository) OrderValueBuckets(ctx context.Context, boundaries []float64, from, to *time.Time) ([]models.ValueBucket, error) {
	boundaries, err := pipeline.BucketBoundaries(boundaries)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.OrderValueBuckets(boundaries, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := aggregateAll[bucketRow](ctx, r.orders, p, "aggregate order buckets")
	if err != nil {
		return nil, err
	}
	return mergeBuckets(boundaries, rows)
}

// mergeBuckets expects boundaries from pipeline.BucketBoundaries, which never
// leave room below the first one.
func mergeBuckets(boundaries []float64, rows []bucketRow) ([]models.ValueBucket, error) {
	if len(boundaries) == 0 || boundaries[0] > 0 {
		return nil, fmt.Errorf("bucket boundaries must start at or below 0, got %v", boundaries)
	}
	out := make([]models.ValueBucket, len(boundaries))
	for i, b := range boundaries {
		out[i].Min = b
		if i+1 < len(boundaries) {
			upper := boundaries[i+1]
			out[i].Max = &upper
		}
	}
	for _, row := range rows {
		idx := len(boundaries) - 1
		if lower, ok := toFloat(row.ID); ok {
			idx = -1
			for i, b := range boundaries {
				if b == lower {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("unexpected bucket boundary %v", row.ID)
			}
		}
		out[idx].Count += row.Count
		out[idx].Revenue += row.Revenue
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
