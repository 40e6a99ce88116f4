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
	"go.mongodb.org/mongo-driver/mongo/options"
)

var categoryListSpec = pipeline.ListSpec{
	SearchFields: []string{"name", "slug", "description"},
	SortFields: map[string]string{
		"name":      "name",
		"createdAt": "createdAt",
		"updatedAt": "updatedAt",
	},
	DateField:  "createdAt",
	SoftDelete: true,
}

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection(database.CategoryCollection)}
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return wrapErr(err, "create category")
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	return replace(ctx, r.collection, c.ID, c)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Category, error) {
	return findOne[models.Category](ctx, r.collection, notDeletedFilter(id, includeDeleted), "get category")
}

func (r *CategoryRepository) NameTaken(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	return nameTaken(ctx, r.collection, "name", name, excludeID)
}

func (r *CategoryRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return softDelete(ctx, r.collection, id, now)
}

func (r *CategoryRepository) Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return restore(ctx, r.collection, id, now)
}

func (r *CategoryRepository) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.Category], error) {
	return listPage[models.Category](ctx, r.collection, q, categoryListSpec)
}

// All returns every live category ordered by name, for storefront menus.
func (r *CategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	cur, err := r.collection.Find(ctx, bson.M{"isDeleted": bson.M{"$ne": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories := []models.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}
