package events

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const (
	StockUpdated    = "stock:updated"
	OrderCreated    = "order:created"
	OrderError      = "order:error"
	OrderUpdated    = "order:updated"
	ProductAdded    = "product:added"
	ProductUpdated  = "product:updated"
	ProductDeleted  = "product:deleted"
	CategoryCreated = "category:created"
	CategoryUpdated = "category:updated"
	CategoryDeleted = "category:deleted"

	// Stream control events, written by the SSE endpoint only.
	Ready     = "ready"
	Heartbeat = "heartbeat"
)

// Reasons carried by stock:updated.
const (
	ReasonOrder    = "order"
	ReasonDeduct   = "deduct"
	ReasonRollback = "rollback"
	ReasonRestock  = "restock"
	ReasonWriteOff = "writeoff"
)

// Event is one notification. Payload is one of the payload structs below and
// is serialized as JSON on every transport.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// Envelope is an event as delivered to a hub subscriber.
type Envelope struct {
	Seq uint64
	Event
}

type StockPayload struct {
	ProductID        string    `json:"productId"`
	ProductName      string    `json:"productName"`
	NewStock         int       `json:"newStock"`
	DeductedQuantity int       `json:"deductedQuantity"`
	StockVersion     int64     `json:"stockVersion"`
	Reason           string    `json:"reason"`
	Timestamp        time.Time `json:"timestamp"`
}

type OrderCreatedPayload struct {
	OrderID      string    `json:"orderId"`
	UserID       string    `json:"userId"`
	TotalAmount  float64   `json:"totalAmount"`
	ProductCount int       `json:"productCount"`
	Timestamp    time.Time `json:"timestamp"`
}

type OrderErrorPayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderUpdatedPayload struct {
	OrderID       string               `json:"orderId"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Timestamp     time.Time            `json:"timestamp"`
}

type ProductPayload struct {
	ProductID string    `json:"productId"`
	Timestamp time.Time `json:"timestamp"`
}

type CategoryPayload struct {
	CategoryID string    `json:"categoryId"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStockUpdated describes product after a stock mutation. deducted is
// negative when units were returned.
func NewStockUpdated(product models.Product, deducted int, reason string, at time.Time) Event {
	return Event{Name: StockUpdated, Payload: StockPayload{
		ProductID:        product.ID.Hex(),
		ProductName:      product.Name,
		NewStock:         product.StockQuantity,
		DeductedQuantity: deducted,
		StockVersion:     product.StockVersion,
		Reason:           reason,
		Timestamp:        at,
	}}
}

func NewOrderCreated(order models.Order, at time.Time) Event {
	return Event{Name: OrderCreated, Payload: OrderCreatedPayload{
		OrderID:      order.ID.Hex(),
		UserID:       order.UserID.Hex(),
		TotalAmount:  order.TotalAmount,
		ProductCount: len(order.Products),
		Timestamp:    at,
	}}
}

func NewOrderError(message string, at time.Time) Event {
	return Event{Name: OrderError, Payload: OrderErrorPayload{Message: message, Timestamp: at}}
}

func NewOrderUpdated(order models.Order, at time.Time) Event {
	return Event{Name: OrderUpdated, Payload: OrderUpdatedPayload{
		OrderID:       order.ID.Hex(),
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Timestamp:     at,
	}}
}

// NewProductChanged builds a product:added, product:updated or product:deleted event.
func NewProductChanged(name string, id primitive.ObjectID, at time.Time) Event {
	return Event{Name: name, Payload: ProductPayload{ProductID: id.Hex(), Timestamp: at}}
}

// NewCategoryChanged builds a category:created, category:updated or category:deleted event.
func NewCategoryChanged(name string, category models.Category, at time.Time) Event {
	return Event{Name: name, Payload: CategoryPayload{
		CategoryID: category.ID.Hex(),
		Name:       category.Name,
		Timestamp:  at,
	}}
}
