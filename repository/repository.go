// Package repository persists the store's documents in MongoDB. Each
// repository wraps a single collection; list screens run the pipeline
// package's builders through Aggregate.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petopia/pipeline"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUsageExhausted    = errors.New("coupon usage exhausted")
	ErrConflict          = errors.New("document changed concurrently")
)

// caseInsensitive matches the collation of the unique name indexes.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func wrapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func notDeletedFilter(id primitive.ObjectID, includeDeleted bool) bson.M {
	filter := bson.M{"_id": id}
	if !includeDeleted {
		filter["isDeleted"] = bson.M{"$ne": true}
	}
	return filter
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, op string) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, wrapErr(err, op)
	}
	return &doc, nil
}

func listPage[T any](ctx context.Context, coll *mongo.Collection, q pipeline.ListQuery, spec pipeline.ListSpec) (pipeline.PageResult[T], error) {
	cur, err := coll.Aggregate(ctx, pipeline.List(q, spec))
	if err != nil {
		return pipeline.PageResult[T]{}, fmt.Errorf("failed to list %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	var facet pipeline.FacetResult[T]
	if cur.Next(ctx) {
		if err := cur.Decode(&facet); err != nil {
			return pipeline.PageResult[T]{}, fmt.Errorf("failed to decode %s page: %w", coll.Name(), err)
		}
	}
	if err := cur.Err(); err != nil {
		return pipeline.PageResult[T]{}, fmt.Errorf("failed to list %s: %w", coll.Name(), err)
	}
	return pipeline.NewPage(facet, q.Page, q.Limit), nil
}

func aggregateAll[T any](ctx context.Context, coll *mongo.Collection, p mongo.Pipeline, op string) ([]T, error) {
	cur, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", op, err)
	}
	return out, nil
}

func softDelete(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, now time.Time) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return wrapErr(err, "delete from "+coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func restore(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, now time.Time) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": true},
		bson.M{"$set": bson.M{"isDeleted": false, "updatedAt": now}, "$unset": bson.M{"deletedAt": ""}},
	)
	if err != nil {
		return wrapErr(err, "restore in "+coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func replace(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return wrapErr(err, "update "+coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// nameTaken reports whether a live document other than excludeID already
// uses value for field, ignoring case.
func nameTaken(ctx context.Context, coll *mongo.Collection, field, value string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{field: value, "isDeleted": bson.M{"$ne": true}}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetCollation(caseInsensitive).SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", coll.Name(), field, err)
	}
	return n > 0, nil
}
