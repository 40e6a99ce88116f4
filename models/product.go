package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	CategoryID  primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	Price       float64            `bson:"price" json:"price"`
	SalePrice   *float64           `bson:"salePrice,omitempty" json:"salePrice,omitempty"`
	Stock       int                `bson:"stock" json:"stock"`
	Variants    []Variant          `bson:"variants" json:"variants"`
	Images      []string           `bson:"images" json:"images"`
	Tags        []string           `bson:"tags" json:"tags"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"`
	DeletedAt   *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Variant struct {
	SKU   string  `bson:"sku" json:"sku" binding:"required,max=64"`
	Name  string  `bson:"name" json:"name" binding:"required,max=100"`
	Price float64 `bson:"price" json:"price" binding:"gt=0"`
	Stock int     `bson:"stock" json:"stock" binding:"gte=0"`
}

// EffectivePrice is the price a customer pays for the product or, when sku
// is set, for that variant.
func (p *Product) EffectivePrice(sku string) (float64, bool) {
	if sku != "" {
		for _, v := range p.Variants {
			if v.SKU == sku {
				return v.Price, true
			}
		}
		return 0, false
	}
	if p.SalePrice != nil && *p.SalePrice > 0 && *p.SalePrice < p.Price {
		return *p.SalePrice, true
	}
	return p.Price, true
}

// AvailableStock returns the stock for the product or one of its variants.
func (p *Product) AvailableStock(sku string) int {
	if sku == "" {
		return p.Stock
	}
	for _, v := range p.Variants {
		if v.SKU == sku {
			return v.Stock
		}
	}
	return 0
}

// TotalVariantStock sums variant stock; products with variants keep Stock
// equal to this value.
func TotalVariantStock(variants []Variant) int {
	total := 0
	for _, v := range variants {
		total += v.Stock
	}
	return total
}

// CategoryRef is the category summary joined onto product listings.
type CategoryRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}

type ProductListItem struct {
	Product  `bson:",inline"`
	Category *CategoryRef `bson:"category,omitempty" json:"category,omitempty"`
}
