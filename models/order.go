package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentCOD    = "cod"
	PaymentCard   = "card"
	PaymentWallet = "wallet"

	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	Status          string             `bson:"status" json:"status"`
	StatusHistory   []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	Discount        float64            `bson:"discount" json:"discount"`
	ShippingFee     float64            `bson:"shippingFee" json:"shippingFee"`
	Total           float64            `bson:"total" json:"total"`
	CouponCode      string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type OrderItem struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	VariantSKU string             `bson:"variantSku,omitempty" json:"variantSku,omitempty"`
	Price      float64            `bson:"price" json:"price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Subtotal   float64            `bson:"subtotal" json:"subtotal"`
}

type StatusChange struct {
	Status    string             `bson:"status" json:"status"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	ChangedBy primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	ChangedAt time.Time          `bson:"changedAt" json:"changedAt"`
}

// CustomerRef is the user summary joined onto admin order listings.
type CustomerRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

type OrderListItem struct {
	Order    `bson:",inline"`
	Customer *CustomerRef `bson:"customer,omitempty" json:"customer,omitempty"`
}
