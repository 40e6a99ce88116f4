package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	IsBlocked bool               `bson:"isBlocked" json:"isBlocked"`
	Addresses []Address          `bson:"addresses" json:"addresses"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Address is shared by user address books and order shipping details.
type Address struct {
	FullName   string `bson:"fullName" json:"fullName" binding:"required,max=100"`
	Phone      string `bson:"phone" json:"phone" binding:"required,min=6,max=20"`
	Street     string `bson:"street" json:"street" binding:"required,max=200"`
	City       string `bson:"city" json:"city" binding:"required,max=100"`
	State      string `bson:"state" json:"state" binding:"max=100"`
	PostalCode string `bson:"postalCode" json:"postalCode" binding:"max=20"`
	Country    string `bson:"country" json:"country" binding:"required,max=100"`
}
