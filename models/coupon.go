package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	Description   string             `bson:"description" json:"description"`
	DiscountType  string             `bson:"discountType" json:"discountType"`
	DiscountValue float64            `bson:"discountValue" json:"discountValue"`
	MinOrderValue float64            `bson:"minOrderValue" json:"minOrderValue"`
	MaxDiscount   float64            `bson:"maxDiscount" json:"maxDiscount"`
	UsageLimit    int                `bson:"usageLimit" json:"usageLimit"`
	UsedCount     int                `bson:"usedCount" json:"usedCount"`
	StartsAt      *time.Time         `bson:"startsAt,omitempty" json:"startsAt,omitempty"`
	ExpiresAt     *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	IsDeleted     bool               `bson:"isDeleted" json:"isDeleted"`
	DeletedAt     *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
