// Package checkout places orders against shared inventory. Every stock change
// goes through the store's guarded decrement or atomic increment, and every
// committed change is announced through an events.Publisher.
package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

const DefaultTimeout = 5 * time.Second

var paymentMethods = map[string]bool{
	"cod":    true,
	"card":   true,
	"paypal": true,
}

type PlaceOrderRequest struct {
	UserID        primitive.ObjectID
	Lines         []Line
	Address       models.ShippingAddress
	PaymentMethod string
	TotalAmount   float64
	Notes         string
}

// UpdatedProduct is the post-order stock of one product.
type UpdatedProduct struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	NewStock     int    `json:"newStock"`
	StockVersion int64  `json:"stockVersion"`
}

type PlaceOrderResult struct {
	Order           models.Order
	UpdatedProducts []UpdatedProduct
}

// StockChange reports one product of a standalone deduction.
type StockChange struct {
	ProductID        string `json:"productId"`
	Name             string `json:"name"`
	PreviousStock    int    `json:"previousStock"`
	QuantityDeducted int    `json:"quantityDeducted"`
	NewStock         int    `json:"newStock"`
}

type Service struct {
	store     store.Store
	validator *Validator
	writer    *Writer
	publisher events.Publisher
	tracer    trace.Tracer
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Service)

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: publisher,
		tracer:    noop.NewTracerProvider().Tracer("checkout"),
		logger:    zap.NewNop(),
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = events.Discard{}
	}

	s.validator = NewValidator(st.Products())
	s.writer = NewWriter(st, s.publisher, s.logger, s.timeout)
	s.writer.now = s.now
	return s
}

// PlaceOrder validates, deducts and persists one order. Any failure leaves
// stock as it was and is announced as order:error.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.place_order",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID.Hex()),
			attribute.Int("order.lines", len(req.Lines)),
		),
	)
	defer span.End()

	result, err := s.placeOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.publisher.Publish(ctx, events.NewOrderError(err.Error(), s.now()))
		s.logFailure("order placement failed", err, zap.String("user_id", req.UserID.Hex()))
		return PlaceOrderResult{}, err
	}

	span.SetAttributes(attribute.String("order.id", result.Order.ID.Hex()))
	return result, nil
}

// RejectOrder announces a placement refused before it reached the service,
// such as a malformed request body.
func (s *Service) RejectOrder(ctx context.Context, message string) {
	s.publisher.Publish(ctx, events.NewOrderError(message, s.now()))
}

func (s *Service) placeOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	if err := checkOrderRequest(req); err != nil {
		return PlaceOrderResult{}, err
	}

	merged, err := mergeLines(req.Lines)
	if err != nil {
		return PlaceOrderResult{}, err
	}
	products, err := s.validate(ctx, merged)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	total := OrderTotal(req.Lines, products)
	if !totalsMatch(req.TotalAmount, total) {
		return PlaceOrderResult{}, invalid("totalAmount", "totalAmount mismatch: expected %s", total.StringFixed(2))
	}

	now := s.now()
	items := make([]models.OrderItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		product := products[line.ProductID]
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Name:      product.Name,
			UnitPrice: UnitPrice(product).InexactFloat64(),
		})
	}

	order := models.Order{
		UserID:        req.UserID,
		Products:      items,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		Status:        models.OrderPending,
		TotalAmount:   total.InexactFloat64(),
		Notes:         strings.TrimSpace(req.Notes),
		Date:          now,
		UpdatedAt:     now,
	}

	deductions, err := s.commit(ctx, merged, func(txCtx context.Context) error {
		order.ID = primitive.NilObjectID
		return s.store.Orders().Insert(txCtx, &order)
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}

	if err := s.store.Users().IncrementOrderCount(context.WithoutCancel(ctx), req.UserID); err != nil {
		s.logger.Warn("order counter not updated",
			zap.String("user_id", req.UserID.Hex()),
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err),
		)
	}

	updated := make([]UpdatedProduct, 0, len(deductions))
	for _, d := range deductions {
		s.publisher.Publish(ctx, events.NewStockUpdated(d.Product, d.Quantity, events.ReasonOrder, now))
		updated = append(updated, UpdatedProduct{
			ProductID:    d.Product.ID.Hex(),
			Name:         d.Product.Name,
			NewStock:     d.Product.StockQuantity,
			StockVersion: d.Product.StockVersion,
		})
	}
	s.publisher.Publish(ctx, events.NewOrderCreated(order, now))

	s.logger.Info("order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", order.UserID.Hex()),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("products", len(order.Products)),
	)
	return PlaceOrderResult{Order: order, UpdatedProducts: updated}, nil
}

func checkOrderRequest(req PlaceOrderRequest) error {
	if req.UserID.IsZero() {
		return invalid("userId", "User ID is required")
	}
	if len(req.Lines) == 0 {
		return invalid("products", "At least one product is required")
	}
	if strings.TrimSpace(req.Address.Address) == "" || strings.TrimSpace(req.Address.Phone) == "" {
		return invalid("shippingAddress", "shipping address and phone are required")
	}
	if !paymentMethods[req.PaymentMethod] {
		return invalid("paymentMethod", "invalid payment method")
	}
	if req.TotalAmount <= 0 {
		return invalid("totalAmount", "Valid total amount is required")
	}
	return nil
}

func (s *Service) validate(ctx context.Context, lines []Line) (map[primitive.ObjectID]models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.validate")
	defer span.End()

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.validator.Validate(vctx, lines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return products, err
}

func (s *Service) commit(ctx context.Context, lines []Line, persist func(context.Context) error) ([]Deduction, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.commit")
	defer span.End()

	deductions, err := s.writer.Commit(ctx, lines, persist)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return deductions, err
}

// DeductStock removes stock for lines with the same all-or-nothing guarantee
// as order placement, without creating an order.
func (s *Service) DeductStock(ctx context.Context, lines []Line) ([]StockChange, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.deduct_stock",
		trace.WithAttributes(attribute.Int("order.lines", len(lines))),
	)
	defer span.End()

	merged, err := mergeLines(lines)
	if err != nil {
		s.logFailure("stock deduction rejected", err)
		return nil, err
	}
	if _, err := s.validate(ctx, merged); err != nil {
		s.logFailure("stock deduction rejected", err)
		return nil, err
	}

	deductions, err := s.commit(ctx, merged, nil)
	if err != nil {
		span.RecordError(err)
		s.logFailure("stock deduction failed", err)
		return nil, err
	}

	now := s.now()
	changes := make([]StockChange, 0, len(deductions))
	for _, d := range deductions {
		s.publisher.Publish(ctx, events.NewStockUpdated(d.Product, d.Quantity, events.ReasonDeduct, now))
		changes = append(changes, StockChange{
			ProductID:        d.Product.ID.Hex(),
			Name:             d.Product.Name,
			PreviousStock:    d.Product.StockQuantity + d.Quantity,
			QuantityDeducted: d.Quantity,
			NewStock:         d.Product.StockQuantity,
		})
	}
	return changes, nil
}

// UpdateStatus moves an order through the status machine. Setting the status
// the order already has returns it unchanged and emits nothing.
func (s *Service) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status string) (models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.update_status",
		trace.WithAttributes(
			attribute.String("order.id", orderID.Hex()),
			attribute.String("order.status", status),
		),
	)
	defer span.End()

	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return models.Order{}, invalid("status", "invalid status %q", status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	orders := s.store.Orders()
	order, err := orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return models.Order{}, InternalError{Op: "load order", Err: err}
	}

	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return models.Order{}, TransitionError{OrderID: orderID, From: order.Status, To: next}
	}

	payment := models.DerivePaymentStatus(next, order.PaymentStatus)
	updated, err := orders.UpdateStatus(ctx, orderID, order.Status, next, payment)
	switch {
	case errors.Is(err, store.ErrStatusConflict):
		// another admin got there first
		if updated.Status == next {
			return updated, nil
		}
		return models.Order{}, TransitionError{OrderID: orderID, From: updated.Status, To: next}
	case errors.Is(err, store.ErrNotFound):
		return models.Order{}, NotFoundError{Resource: "order", ID: orderID}
	case err != nil:
		span.RecordError(err)
		return models.Order{}, InternalError{Op: "update order status", Err: err}
	}

	s.publisher.Publish(ctx, events.NewOrderUpdated(updated, s.now()))
	s.logger.Info("order status updated",
		zap.String("order_id", orderID.Hex()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("payment_status", string(updated.PaymentStatus)),
	)
	return updated, nil
}

// AdjustStock restocks (delta > 0) or writes off (delta < 0) one product
// through the same primitives orders use.
func (s *Service) AdjustStock(ctx context.Context, productID primitive.ObjectID, delta int) (models.Product, error) {
	if delta == 0 {
		return models.Product{}, invalid("quantity", "quantity must not be zero")
	}
	if delta > MaxQuantity || delta < -MaxQuantity {
		return models.Product{}, invalid("quantity", "quantity must be between %d and %d", -MaxQuantity, MaxQuantity)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	products := s.store.Products()
	var (
		product models.Product
		err     error
		reason  string
	)
	if delta > 0 {
		reason = events.ReasonRestock
		if _, err = products.FindByID(ctx, productID); err == nil {
			product, err = products.IncrementStock(ctx, productID, delta)
		}
	} else {
		reason = events.ReasonWriteOff
		product, err = products.DecrementStock(ctx, productID, -delta)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.Product{}, NotFoundError{Resource: "product", ID: productID}
	case errors.Is(err, store.ErrInsufficientStock):
		return models.Product{}, InsufficientStockError{
			ProductID: productID,
			Name:      product.Name,
			Available: product.StockQuantity,
			Requested: -delta,
		}
	case errors.Is(err, store.ErrStockOverflow):
		return models.Product{}, invalid("quantity", "restock would overflow stock for product %s", productID.Hex())
	case err != nil:
		return models.Product{}, InternalError{Op: "adjust stock", Err: err}
	}

	s.publisher.Publish(ctx, events.NewStockUpdated(product, -delta, reason, s.now()))
	s.logger.Info("stock adjusted",
		zap.String("product_id", productID.Hex()),
		zap.Int("delta", delta),
		zap.Int("new_stock", product.StockQuantity),
	)
	return product, nil
}

func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var internal InternalError
	if errors.As(err, &internal) {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}
