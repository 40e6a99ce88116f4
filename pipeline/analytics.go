package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

var periodFormats = map[Period]string{
	Day:   "%Y-%m-%d",
	Week:  "%G-W%V",
	Month: "%Y-%m",
	Year:  "%Y",
}

var (
	ErrUnknownPeriod     = errors.New("unknown period")
	ErrInvalidBoundaries = errors.New("bucket boundaries must be at least two strictly increasing values")
)

// DefaultBuckets are the order-value boundaries used when none are given.
var DefaultBuckets = []float64{0, 25, 50, 100, 250, 500}

// excludedStatuses never count towards revenue.
var excludedStatuses = bson.A{"cancelled", "returned"}

func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return Day, nil
	}
	p := Period(strings.ToLower(s))
	if _, ok := periodFormats[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return p, nil
}

// matchOrders restricts orders to the createdAt window and, when
// revenueOnly is set, drops cancelled and returned orders.
func matchOrders(from, to *time.Time, revenueOnly bool) mongo.Pipeline {
	var match bson.D
	if cond := dateCond(from, to); cond != nil {
		match = append(match, bson.E{Key: "createdAt", Value: cond})
	}
	if revenueOnly {
		match = append(match, bson.E{Key: "status", Value: bson.D{{Key: "$nin", Value: excludedStatuses}}})
	}
	if match == nil {
		return nil
	}
	return mongo.Pipeline{{{Key: "$match", Value: match}}}
}

// SalesOverTime groups revenue and order count of revenue-bearing orders by
// period key, oldest first.
func SalesOverTime(period Period, from, to *time.Time) (mongo.Pipeline, error) {
	format, ok := periodFormats[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
	return Concat(
		matchOrders(from, to, true),
		mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: format},
					{Key: "date", Value: "$createdAt"},
				}}}},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
				{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "period", Value: "$_id"},
				{Key: "revenue", Value: 1},
				{Key: "orders", Value: 1},
			}}},
		},
	), nil
}

// StatusBreakdown counts orders per status, including cancelled ones.
func StatusBreakdown(from, to *time.Time) mongo.Pipeline {
	return Concat(
		matchOrders(from, to, false),
		mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$status"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
			{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "status", Value: "$_id"},
				{Key: "count", Value: 1},
				{Key: "revenue", Value: 1},
			}}},
		},
	)
}

// TopProducts ranks products by units sold.
func TopProducts(limit int, from, to *time.Time) mongo.Pipeline {
	_, limit = NormalizePage(1, limit)
	return Concat(
		matchOrders(from, to, true),
		mongo.Pipeline{
			{{Key: "$unwind", Value: "$items"}},
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$items.productId"},
				{Key: "name", Value: bson.D{{Key: "$first", Value: "$items.name"}}},
				{Key: "quantity", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$items.subtotal"}}},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "revenue", Value: -1}}}},
			{{Key: "$limit", Value: int64(limit)}},
			{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "productId", Value: "$_id"},
				{Key: "name", Value: 1},
				{Key: "quantity", Value: 1},
				{Key: "revenue", Value: 1},
			}}},
		},
	)
}

// BucketBoundaries validates caller boundaries, falling back to
// DefaultBuckets. Order totals are never negative, so a leading 0 is added
// when the first boundary is above it; "other" then only holds totals at or
// above the last boundary.
func BucketBoundaries(boundaries []float64) ([]float64, error) {
	if len(boundaries) == 0 {
		boundaries = DefaultBuckets
	}
	if len(boundaries) < 2 {
		return nil, ErrInvalidBoundaries
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return nil, ErrInvalidBoundaries
		}
	}
	out := make([]float64, 0, len(boundaries)+1)
	if boundaries[0] > 0 {
		out = append(out, 0)
	}
	return append(out, boundaries...), nil
}

// OrderValueBuckets distributes orders over total-value ranges. Orders above
// the last boundary land in the "other" bucket.
func OrderValueBuckets(boundaries []float64, from, to *time.Time) (mongo.Pipeline, error) {
	boundaries, err := BucketBoundaries(boundaries)
	if err != nil {
		return nil, err
	}
	bounds := make(bson.A, 0, len(boundaries))
	for _, b := range boundaries {
		bounds = append(bounds, b)
	}
	return Concat(
		matchOrders(from, to, true),
		mongo.Pipeline{
			{{Key: "$bucket", Value: bson.D{
				{Key: "groupBy", Value: "$total"},
				{Key: "boundaries", Value: bounds},
				{Key: "default", Value: "other"},
				{Key: "output", Value: bson.D{
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
				}},
			}}},
		},
	), nil
}

// RevenueSummary collapses revenue-bearing orders into a single totals
// document.
func RevenueSummary(from, to *time.Time) mongo.Pipeline {
	return Concat(
		matchOrders(from, to, true),
		mongo.Pipeline{
			{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
				{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "avgOrderValue", Value: bson.D{{Key: "$avg", Value: "$total"}}},
				{Key: "discounts", Value: bson.D{{Key: "$sum", Value: "$discount"}}},
				{Key: "itemsSold", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}}}},
			}}},
			{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		},
	)
}

// CategorySales attributes item revenue to the product's category.
func CategorySales(from, to *time.Time) mongo.Pipeline {
	return Concat(
		matchOrders(from, to, true),
		mongo.Pipeline{{{Key: "$unwind", Value: "$items"}}},
		Lookup("products", "items.productId", "_id", "product", true),
		mongo.Pipeline{{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product.categoryId"},
			{Key: "quantity", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$items.subtotal"}}},
		}}}},
		Lookup("categories", "_id", "_id", "category", true),
		mongo.Pipeline{
			{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: "categoryId", Value: "$_id"},
				{Key: "name", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$category.name", "Uncategorized"}}}},
				{Key: "quantity", Value: 1},
				{Key: "revenue", Value: 1},
			}}},
			{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
		},
	)
}
