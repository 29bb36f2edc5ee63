package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
	PaymentRejected PaymentStatus = "Rejected"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderShipped, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// ParseOrderStatus reports whether s names a known order status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch status := OrderStatus(s); status {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return status, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether an administrator may move an order from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DerivePaymentStatus applies the payment rule for a status change:
// Cancelled rejects the payment, Delivered settles it, anything else keeps current.
func DerivePaymentStatus(next OrderStatus, current PaymentStatus) PaymentStatus {
	switch next {
	case OrderCancelled:
		return PaymentRejected
	case OrderDelivered:
		return PaymentPaid
	}
	if current == "" {
		return PaymentPending
	}
	return current
}

// OrderItem is a single line of an order. Name and UnitPrice are snapshots
// taken from the product at order time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	UnitPrice float64            `bson:"unitPrice,omitempty" json:"unitPrice,omitempty"`
}

// ShippingAddress is copied onto the order so later profile edits don't change it.
type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Phone      string `bson:"phone" json:"phone"`
}

// Order defines the persisted order document.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Products      []OrderItem        `bson:"products" json:"products"`
	Address       ShippingAddress    `bson:"address" json:"address"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Status        OrderStatus        `bson:"status" json:"status"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Date          time.Time          `bson:"date" json:"date"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
