package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type RevenueSummary struct {
	Revenue       float64 `bson:"revenue" json:"revenue"`
	Orders        int64   `bson:"orders" json:"orders"`
	AvgOrderValue float64 `bson:"avgOrderValue" json:"avgOrderValue"`
	Discounts     float64 `bson:"discounts" json:"discounts"`
	ItemsSold     int64   `bson:"itemsSold" json:"itemsSold"`
}

// DashboardSummary is the headline block of the analytics screen.
type DashboardSummary struct {
	RevenueSummary `bson:",inline"`
	Customers      int64 `json:"customers"`
	Products       int64 `json:"products"`
	LowStock       int64 `json:"lowStock"`
	PendingOrders  int64 `json:"pendingOrders"`
}

type SalesPoint struct {
	Period  string  `bson:"period" json:"period"`
	Revenue float64 `bson:"revenue" json:"revenue"`
	Orders  int64   `bson:"orders" json:"orders"`
}

type StatusCount struct {
	Status  string  `bson:"status" json:"status"`
	Count   int64   `bson:"count" json:"count"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

type ProductSales struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	Revenue   float64            `bson:"revenue" json:"revenue"`
}

type CategorySales struct {
	CategoryID *primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	Name       string              `bson:"name" json:"name"`
	Quantity   int64               `bson:"quantity" json:"quantity"`
	Revenue    float64             `bson:"revenue" json:"revenue"`
}

// ValueBucket is one order-value range. Max is nil for the open-ended top
// bucket.
type ValueBucket struct {
	Min     float64  `json:"min"`
	Max     *float64 `json:"max"`
	Count   int64    `json:"count"`
	Revenue float64  `json:"revenue"`
}
