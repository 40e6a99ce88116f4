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

var userListSpec = pipeline.ListSpec{
	SearchFields: []string{"name", "email"},
	SortFields: map[string]string{
		"name":      "name",
		"email":     "email",
		"createdAt": "createdAt",
	},
	DateField: "createdAt",
	Enrich: mongo.Pipeline{
		{{Key: "$project", Value: bson.D{{Key: "password", Value: 0}}}},
	},
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(database.UserCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, u)
	return wrapErr(err, "create user")
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"_id": id}, "get user")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"email": email}, "get user")
}

func (r *UserRepository) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.User], error) {
	return listPage[models.User](ctx, r.collection, q, userListSpec)
}

func (r *UserRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*models.User, error) {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"isBlocked": blocked, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
