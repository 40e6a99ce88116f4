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

// LowStockThreshold is the stock level at or below which a live product is
// flagged on the dashboard.
const LowStockThreshold = 5

var productListSpec = pipeline.ListSpec{
	SearchFields: []string{"name", "description", "tags"},
	SortFields: map[string]string{
		"name":      "name",
		"price":     "price",
		"stock":     "stock",
		"createdAt": "createdAt",
		"updatedAt": "updatedAt",
	},
	DateField:  "createdAt",
	SoftDelete: true,
	Enrich:     pipeline.Lookup(database.CategoryCollection, "categoryId", "_id", "category", true),
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(database.ProductCollection)}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return wrapErr(err, "create product")
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	return replace(ctx, r.collection, p.ID, p)
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID, includeDeleted bool) (*models.Product, error) {
	return findOne[models.Product](ctx, r.collection, notDeletedFilter(id, includeDeleted), "get product")
}

func (r *ProductRepository) NameTaken(ctx context.Context, name string, excludeID primitive.ObjectID) (bool, error) {
	return nameTaken(ctx, r.collection, "name", name, excludeID)
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return softDelete(ctx, r.collection, id, now)
}

func (r *ProductRepository) Restore(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	return restore(ctx, r.collection, id, now)
}

func (r *ProductRepository) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.ProductListItem], error) {
	return listPage[models.ProductListItem](ctx, r.collection, q, productListSpec)
}

// AdjustStock adds delta to the product's stock, and to the variant's stock
// when sku is set. A negative delta only applies if enough stock remains;
// otherwise ErrInsufficientStock is returned and nothing changes.
func (r *ProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, sku string, delta int) error {
	filter := bson.M{"_id": id}
	inc := bson.M{"stock": delta}
	if sku != "" {
		elem := bson.M{"sku": sku}
		if delta < 0 {
			elem["stock"] = bson.M{"$gte": -delta}
		}
		filter["variants"] = bson.M{"$elemMatch": elem}
		inc["variants.$.stock"] = delta
	} else if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$inc": inc,
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if res.MatchedCount == 0 {
		if delta < 0 {
			return ErrInsufficientStock
		}
		return ErrNotFound
	}
	return nil
}

// CountLive counts non-deleted products, and those at or below the low
// stock threshold.
func (r *ProductRepository) CountLive(ctx context.Context) (total, lowStock int64, err error) {
	live := bson.M{"isDeleted": bson.M{"$ne": true}}
	total, err = r.collection.CountDocuments(ctx, live)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count products: %w", err)
	}
	lowStock, err = r.collection.CountDocuments(ctx, bson.M{
		"isDeleted": bson.M{"$ne": true},
		"stock":     bson.M{"$lte": LowStockThreshold},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return total, lowStock, nil
}

// CountByCategory counts live products in a category.
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"categoryId": categoryID, "isDeleted": bson.M{"$ne": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to count products by category: %w", err)
	}
	return n, nil
}
