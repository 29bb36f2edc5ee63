// Package storefront is the client side of the order pipeline: a local
// catalog snapshot kept current by the server's event stream, and an HTTP
// client that prechecks a cart against it before submitting a checkout.
package storefront

import (
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/events"
	"storefront/internal/models"
)

// Cache is a snapshot of the catalog. The server stays authoritative; the
// cache only decides what the shopper sees before checkout.
type Cache struct {
	mu         sync.RWMutex
	products   map[primitive.ObjectID]models.Product
	categories []models.Category
	loadedAt   time.Time
}

func NewCache() *Cache {
	return &Cache{products: make(map[primitive.ObjectID]models.Product)}
}

// Load replaces the whole snapshot.
func (c *Cache) Load(products []models.Product, categories []models.Category) {
	next := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		next[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = next
	c.categories = append([]models.Category(nil), categories...)
	c.loadedAt = time.Now()
}

// ApplyStock patches stock from a stock:updated payload. It reports false for
// unknown products and for versions not newer than the cached one.
func (c *Cache) ApplyStock(update events.StockPayload) bool {
	id, err := primitive.ObjectIDFromHex(update.ProductID)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[id]
	if !ok || update.StockVersion <= product.StockVersion {
		return false
	}
	product.StockQuantity = update.NewStock
	product.StockVersion = update.StockVersion
	product.InStock = update.NewStock > 0
	c.products[id] = product
	return true
}

func (c *Cache) Product(id primitive.ObjectID) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

// Products returns the snapshot sorted by name.
func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (c *Cache) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.categories...)
}

func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// CartLine is one product and quantity in a shopper's cart.
type CartLine struct {
	ProductID primitive.ObjectID `json:"productId"`
	Quantity  int                `json:"quantity"`
}

// Shortfall is a cart line the cached stock cannot cover.
type Shortfall struct {
	ProductID primitive.ObjectID
	Name      string
	Available int
	Requested int
}

// Precheck returns the lines the cached stock cannot satisfy, with repeated
// products summed. Products missing from the cache count as zero stock.
func (c *Cache) Precheck(lines []CartLine) []Shortfall {
	requested := make(map[primitive.ObjectID]int, len(lines))
	order := make([]primitive.ObjectID, 0, len(lines))
	for _, line := range lines {
		if _, seen := requested[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var shortfalls []Shortfall
	for _, id := range order {
		product, ok := c.products[id]
		if ok && product.StockQuantity >= requested[id] {
			continue
		}
		shortfalls = append(shortfalls, Shortfall{
			ProductID: id,
			Name:      product.Name,
			Available: product.StockQuantity,
			Requested: requested[id],
		})
	}
	return shortfalls
}
