// Package store defines the persistence surface the order pipeline depends on.
// Every stock mutation goes through Products.DecrementStock or
// Products.IncrementStock, both of which must be atomic at the storage layer.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStatusConflict    = errors.New("order status changed concurrently")
	ErrDuplicate         = errors.New("duplicate")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrStockOverflow     = errors.New("stock quantity would overflow")
)

type ProductFilter struct {
	Category string
	Search   string
}

// ProductUpdate carries the catalog fields an administrator may change.
// Stock is deliberately absent: it only moves through the stock primitives.
type ProductUpdate struct {
	Name           *string
	Price          *float64
	Category       *string
	IsOnSale       *bool
	SalePercentage *float64
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Category == nil && u.IsOnSale == nil && u.SalePercentage == nil
}

type Products interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	// FindByIDs returns the live (not soft-deleted) products among ids.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, update ProductUpdate) (models.Product, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)

	// DecrementStock subtracts qty only if stockQuantity >= qty, in one atomic
	// step. On ErrInsufficientStock the returned product holds the current stock.
	// qty <= 0 fails with ErrInvalidQuantity.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error)
	// IncrementStock adds qty, failing with ErrStockOverflow rather than wrapping.
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error)
}

type OrderFilter struct {
	UserID *primitive.ObjectID
	Status models.OrderStatus
	Skip   int64
	Limit  int64
}

type OrderStats struct {
	TotalSales float64
	Orders     int64
}

type Orders interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// UpdateStatus is a compare-and-set on the current status. It returns
	// ErrStatusConflict when the order exists but is no longer in from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, payment models.PaymentStatus) (models.Order, error)
	Stats(ctx context.Context) (OrderStats, error)
}

type Users interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	IncrementOrderCount(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type Categories interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, name *string, isActive *bool) (models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) (models.Category, error)
}

type Store interface {
	Products() Products
	Orders() Orders
	Users() Users
	Categories() Categories

	// WithTransaction runs fn inside a datastore transaction when the backend
	// supports one; otherwise fn runs directly.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports whether WithTransaction rolls back fn's writes
	// when fn fails.
	Transactional() bool
	Ping(ctx context.Context) error
}
