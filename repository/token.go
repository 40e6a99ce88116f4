package repository

import (
	"context"
	"fmt"
	"time"

	"petopia/database"
	"petopia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TokenRepository stores JWTs revoked by logout until they expire.
type TokenRepository struct {
	collection *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{collection: db.Collection(database.BlacklistedCollection)}
}

func (r *TokenRepository) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.collection.InsertOne(ctx, models.BlacklistedToken{Token: token, ExpiresAt: expiresAt})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return wrapErr(err, "blacklist token")
}

func (r *TokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"token": token})
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired removes tokens past expiry. The TTL index does the same
// lazily; this keeps the collection small between TTL monitor passes.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return res.DeletedCount, nil
}
