package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductSize string

const (
	SizeS   ProductSize = "S"
	SizeM   ProductSize = "M"
	SizeL   ProductSize = "L"
	SizeXL  ProductSize = "XL"
	SizeXXL ProductSize = "XXL"
)

// DefaultSize is used when a cart request omits the size.
const DefaultSize = SizeM

// PlaceholderImage is served for products without images or that no longer exist.
const PlaceholderImage = "/no-image.svg"

var ProductSizes = []ProductSize{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s ProductSize) Valid() bool {
	for _, size := range ProductSizes {
		if s == size {
			return true
		}
	}
	return false
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Price        string             `bson:"price" json:"price"` // Catalog keeps prices as text
	Category     string             `bson:"category" json:"category"`
	Images       []string           `bson:"images" json:"images"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	IsTrending   bool               `bson:"isTrending" json:"isTrending"`
	IsTopProduct bool               `bson:"isTopProduct" json:"isTopProduct"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PrimaryImage returns the first product image or the placeholder.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return PlaceholderImage
}

// UnitPrice parses the catalog price.
func (p Product) UnitPrice() (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(p.Price), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", p.Price, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", p.Price)
	}
	return price, nil
}
