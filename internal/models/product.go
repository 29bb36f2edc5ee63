package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the catalog document. StockQuantity is only ever changed through
// the store's guarded decrement and increment, each of which bumps StockVersion.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Price          float64            `bson:"price" json:"price"`
	IsOnSale       bool               `bson:"isOnSale" json:"isOnSale"`
	SalePercentage float64            `bson:"salePercentage" json:"salePercentage"`
	Category       string             `bson:"category" json:"category"`
	StockQuantity  int                `bson:"stockQuantity" json:"stockQuantity"`
	StockVersion   int64              `bson:"stockVersion" json:"stockVersion"`
	InStock        bool               `bson:"-" json:"inStock"`
	IsDeleted      bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt      *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
