package repository

import (
	"context"
	"errors"
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

var orderSortFields = map[string]string{
	"orderNumber": "orderNumber",
	"total":       "total",
	"status":      "status",
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
}

var adminOrderListSpec = pipeline.ListSpec{
	SearchFields: []string{"orderNumber", "shippingAddress.fullName", "shippingAddress.phone", "couponCode"},
	SortFields:   orderSortFields,
	DateField:    "createdAt",
	Enrich:       pipeline.Lookup(database.UserCollection, "userId", "_id", "customer", true),
}

var userOrderListSpec = pipeline.ListSpec{
	SearchFields: []string{"orderNumber"},
	SortFields:   orderSortFields,
	DateField:    "createdAt",
}

// StatusUpdate describes one lifecycle move of an order. The update only
// applies while the stored status still equals From.
type StatusUpdate struct {
	From          string
	To            string
	PaymentStatus string
	PaidAt        *time.Time
	Change        models.StatusChange
}

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(database.OrderCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, o)
	return wrapErr(err, "create order")
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.collection, bson.M{"_id": id}, "get order")
}

func (r *OrderRepository) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.collection, bson.M{"_id": id, "userId": userID}, "get order")
}

func (r *OrderRepository) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.OrderListItem], error) {
	return listPage[models.OrderListItem](ctx, r.collection, q, adminOrderListSpec)
}

func (r *OrderRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, q pipeline.ListQuery) (pipeline.PageResult[models.Order], error) {
	filters := map[string]any{}
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters["userId"] = userID
	q.Filters = filters
	return listPage[models.Order](ctx, r.collection, q, userOrderListSpec)
}

// ApplyStatus performs u atomically and returns the updated order.
// ErrConflict means the order's status moved on since it was read.
func (r *OrderRepository) ApplyStatus(ctx context.Context, id primitive.ObjectID, u StatusUpdate) (*models.Order, error) {
	set := bson.M{"status": u.To, "updatedAt": u.Change.ChangedAt}
	if u.PaymentStatus != "" {
		set["paymentStatus"] = u.PaymentStatus
	}
	if u.PaidAt != nil {
		set["paidAt"] = *u.PaidAt
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": u.Change},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": u.From}, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, nil
}

// MarkPaid records payment of an unpaid, still-active order.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.Order, error) {
	filter := bson.M{
		"_id":           id,
		"paymentStatus": models.PaymentUnpaid,
		"status":        bson.M{"$nin": bson.A{"cancelled", "returned"}},
	}
	update := bson.M{"$set": bson.M{"paymentStatus": models.PaymentPaid, "paidAt": now, "updatedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}
