package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the order-relevant slice of the account document. The counter keeps
// the legacy "Orders" field name so existing documents decode unchanged.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	OrderCount int                `bson:"Orders" json:"orders"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
