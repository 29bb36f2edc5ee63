package checkout

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Deduction is one applied decrement. Product is the state right after it.
type Deduction struct {
	Product  models.Product
	Quantity int
}

// Writer applies a validated batch as a saga: one guarded decrement per line,
// then persist. When any step fails, decrements already applied are undone
// with the atomic increment, unless the store rolled them back itself.
type Writer struct {
	store     store.Store
	publisher events.Publisher
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewWriter(st store.Store, publisher events.Publisher, logger *zap.Logger, timeout time.Duration) *Writer {
	return &Writer{store: st, publisher: publisher, logger: logger, timeout: timeout, now: time.Now}
}

// Commit runs detached from the caller's cancellation: once the first
// decrement is issued the batch either completes or is compensated.
func (w *Writer) Commit(ctx context.Context, lines []Line, persist func(ctx context.Context) error) ([]Deduction, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	products := w.store.Products()
	var applied []Deduction

	err := w.store.WithTransaction(ctx, func(txCtx context.Context) error {
		applied = applied[:0]
		for _, line := range lines {
			product, err := products.DecrementStock(txCtx, line.ProductID, line.Quantity)
			switch {
			case errors.Is(err, store.ErrInsufficientStock):
				return InsufficientStockError{
					ProductID: line.ProductID,
					Name:      product.Name,
					Available: product.StockQuantity,
					Requested: line.Quantity,
				}
			case errors.Is(err, store.ErrNotFound):
				return NotFoundError{Resource: "product", ID: line.ProductID}
			case err != nil:
				return InternalError{Op: "deduct stock", Err: err}
			}
			applied = append(applied, Deduction{Product: product, Quantity: line.Quantity})
		}

		if persist != nil {
			if err := persist(txCtx); err != nil {
				return InternalError{Op: "save order", Err: err}
			}
		}
		return nil
	})
	if err == nil {
		return applied, nil
	}

	var internal InternalError
	if !errors.As(err, &internal) && !isDomainError(err) {
		err = InternalError{Op: "commit", Err: err}
	}

	if w.store.Transactional() || len(applied) == 0 {
		return nil, err
	}

	if unrestored := w.compensate(applied); len(unrestored) > 0 {
		return nil, InternalError{Op: "rollback stock", Err: err, Unrestored: unrestored}
	}
	return nil, err
}

// compensate returns the products it could not restore.
func (w *Writer) compensate(applied []Deduction) []primitive.ObjectID {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	products := w.store.Products()
	var unrestored []primitive.ObjectID

	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		restored, err := products.IncrementStock(ctx, d.Product.ID, d.Quantity)
		if err != nil {
			unrestored = append(unrestored, d.Product.ID)
			w.logger.Error("stock rollback failed",
				zap.String("product_id", d.Product.ID.Hex()),
				zap.Int("quantity", d.Quantity),
				zap.Error(err),
			)
			continue
		}
		w.publisher.Publish(ctx, events.NewStockUpdated(restored, -d.Quantity, events.ReasonRollback, w.now()))
	}

	if len(unrestored) > 0 {
		ids := make([]string, len(unrestored))
		for i, id := range unrestored {
			ids[i] = id.Hex()
		}
		w.logger.Error("stock left inconsistent after failed commit", zap.Strings("product_ids", ids))
	}
	return unrestored
}

func isDomainError(err error) bool {
	var (
		validation   ValidationError
		notFound     NotFoundError
		insufficient InsufficientStockError
	)
	return errors.As(err, &validation) || errors.As(err, &notFound) || errors.As(err, &insufficient)
}
