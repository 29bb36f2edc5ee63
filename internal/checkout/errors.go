package checkout

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// ValidationError rejects a request before anything is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names a missing (or soft-deleted) product, or a missing order.
type NotFoundError struct {
	Resource string
	ID       primitive.ObjectID
}

func (e NotFoundError) Error() string {
	if e.Resource == "product" {
		return fmt.Sprintf("Product with ID %s not found", e.ID.Hex())
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID.Hex())
}

type InsufficientStockError struct {
	ProductID primitive.ObjectID
	Name      string
	Available int
	Requested int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %q. Available: %d, Requested: %d", e.Name, e.Available, e.Requested)
}

// TransitionError is an order status change the state machine forbids.
type TransitionError struct {
	OrderID primitive.ObjectID
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// InternalError wraps a datastore failure. Unrestored lists products whose
// compensating increment also failed and need manual repair.
type InternalError struct {
	Op         string
	Err        error
	Unrestored []primitive.ObjectID
}

func (e InternalError) Error() string {
	msg := e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Unrestored) > 0 {
		ids := make([]string, len(e.Unrestored))
		for i, id := range e.Unrestored {
			ids[i] = id.Hex()
		}
		msg += " (stock not restored for " + strings.Join(ids, ", ") + ")"
	}
	return msg
}

func (e InternalError) Unwrap() error {
	return e.Err
}
