package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/checkout"
	"storefront/internal/events"
	"storefront/internal/models"
)

const (
	defaultRequestTimeout = 10 * time.Second
	initialRetryInterval  = 500 * time.Millisecond
	maxRetryInterval      = 30 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status      int      `json:"-"`
	Kind        string   `json:"error"`
	Message     string   `json:"message"`
	Field       string   `json:"field,omitempty"`
	ProductID   string   `json:"productId,omitempty"`
	ProductName string   `json:"productName,omitempty"`
	Available   int      `json:"available,omitempty"`
	Requested   int      `json:"requested,omitempty"`
	Details     []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront: HTTP %d", e.Status)
	}
	return fmt.Sprintf("storefront: HTTP %d %s: %s", e.Status, e.Kind, e.Message)
}

// PrecheckError means the cart was not sent because the cached stock cannot
// cover it.
type PrecheckError struct {
	Shortfalls []Shortfall
}

func (e *PrecheckError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		name := s.Name
		if name == "" {
			name = s.ProductID.Hex()
		}
		parts = append(parts, fmt.Sprintf("%s (available %d, requested %d)", name, s.Available, s.Requested))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

type CheckoutRequest struct {
	UserID          string                 `json:"userId"`
	Products        []CartLine             `json:"products"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TotalAmount     float64                `json:"totalAmount"`
	Notes           string                 `json:"notes,omitempty"`
}

type CheckoutResult struct {
	Message         string                    `json:"message"`
	Order           models.Order              `json:"order"`
	UpdatedProducts []checkout.UpdatedProduct `json:"updatedProducts"`
}

type Client struct {
	baseURL        string
	http           *http.Client
	token          string
	cache          *Cache
	logger         *zap.Logger
	requestTimeout time.Duration
	newBackOff     func() backoff.BackOff
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithBackOff replaces the reconnect policy used by Run.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

func NewClient(baseURL string, cache *Cache, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		cache:          cache,
		logger:         zap.NewNop(),
		requestTimeout: defaultRequestTimeout,
		newBackOff:     defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	return c
}

// defaultBackOff retries forever, starting at 500ms.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	return b
}

func (c *Client) Cache() *Cache { return c.cache }

// Refresh reloads products and categories into the cache.
func (c *Client) Refresh(ctx context.Context) error {
	var (
		products   struct{ Products []models.Product }
		categories struct{ Categories []models.Category }
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, "/products/getProducts", nil, &products)
	})
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, "/categories", nil, &categories)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	c.cache.Load(products.Products, categories.Categories)
	c.logger.Debug("snapshot loaded",
		zap.Int("products", len(products.Products)),
		zap.Int("categories", len(categories.Categories)),
	)
	return nil
}

// EstimateTotal prices lines at the cached catalog prices.
func (c *Client) EstimateTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		product, ok := c.cache.Product(line.ProductID)
		if !ok {
			continue
		}
		total = total.Add(checkout.UnitPrice(product).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Checkout prechecks the cart against the cache and then places the order.
// A zero TotalAmount is filled in from the cached prices. On success the
// returned stock levels are applied to the cache.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if shortfalls := c.cache.Precheck(req.Products); len(shortfalls) > 0 {
		return CheckoutResult{}, &PrecheckError{Shortfalls: shortfalls}
	}
	if req.TotalAmount == 0 {
		req.TotalAmount = c.EstimateTotal(req.Products).InexactFloat64()
	}

	var result CheckoutResult
	if err := c.do(ctx, http.MethodPost, "/user/api/v1/createOrder", req, &result); err != nil {
		return CheckoutResult{}, err
	}

	for _, p := range result.UpdatedProducts {
		c.cache.ApplyStock(events.StockPayload{
			ProductID:    p.ProductID,
			ProductName:  p.Name,
			NewStock:     p.NewStock,
			StockVersion: p.StockVersion,
		})
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
