package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a top-level ("parent") product category.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
