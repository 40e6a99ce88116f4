package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UserCollection        = "users"
	CategoryCollection    = "categories"
	ProductCollection     = "products"
	CouponCollection      = "coupons"
	OrderCollection       = "orders"
	BlacklistedCollection = "blacklist_tokens"
)

// ConnectMongo dials MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(dbName), nil
}

// EnsureIndexes creates the unique and TTL indexes the repositories rely on.
// Name uniqueness is enforced only among live documents so a soft-deleted
// product does not block reuse of its name.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	notDeleted := bson.D{{Key: "isDeleted", Value: false}}
	collation := &options.Collation{Locale: "en", Strength: 2}

	indexes := map[string][]mongo.IndexModel{
		UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CategoryCollection: {
			{
				Keys: bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetCollation(collation).
					SetPartialFilterExpression(notDeleted),
			},
		},
		ProductCollection: {
			{
				Keys: bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetCollation(collation).
					SetPartialFilterExpression(notDeleted),
			},
			{Keys: bson.D{{Key: "categoryId", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CouponCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		OrderCollection: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		BlacklistedCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
