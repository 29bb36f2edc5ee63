package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Memory is an in-process Store. A single mutex makes every stock primitive
// atomic, which is what the MongoDB implementation gets from guarded updates.
type Memory struct {
	mu         sync.Mutex
	products   map[primitive.ObjectID]models.Product
	orders     map[primitive.ObjectID]models.Order
	orderSeq   []primitive.ObjectID
	users      map[primitive.ObjectID]models.User
	categories map[primitive.ObjectID]models.Category
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		products:   make(map[primitive.ObjectID]models.Product),
		orders:     make(map[primitive.ObjectID]models.Order),
		users:      make(map[primitive.ObjectID]models.User),
		categories: make(map[primitive.ObjectID]models.Category),
		now:        time.Now,
	}
}

func (m *Memory) Products() Products     { return memProducts{m} }
func (m *Memory) Orders() Orders         { return memOrders{m} }
func (m *Memory) Users() Users           { return memUsers{m} }
func (m *Memory) Categories() Categories { return memCategories{m} }

func (m *Memory) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Memory) Transactional() bool { return false }

func (m *Memory) Ping(context.Context) error { return nil }

// PutUser seeds or replaces a user.
func (m *Memory) PutUser(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user
}

type memProducts struct{ m *Memory }

func (p memProducts) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	product, ok := p.m.products[id]
	if !ok || product.IsDeleted {
		return models.Product{}, ErrNotFound
	}
	return product, nil
}

func (p memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	found := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if product, ok := p.m.products[id]; ok && !product.IsDeleted {
			found[id] = product
		}
	}
	return found, nil
}

func (p memProducts) List(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Product, 0, len(p.m.products))
	for _, product := range p.m.products {
		if product.IsDeleted {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(product.Name), search) {
			continue
		}
		out = append(out, product)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (p memProducts) Create(_ context.Context, product *models.Product) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if product.StockQuantity < 0 {
		return fmt.Errorf("stockQuantity must be zero or greater")
	}
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, exists := p.m.products[product.ID]; exists {
		return ErrDuplicate
	}
	now := p.m.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.InStock = product.StockQuantity > 0
	p.m.products[product.ID] = *product
	return nil
}

func (p memProducts) Update(_ context.Context, id primitive.ObjectID, update ProductUpdate) (models.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	product, ok := p.m.products[id]
	if !ok || product.IsDeleted {
		return models.Product{}, ErrNotFound
	}
	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.Category != nil {
		product.Category = *update.Category
	}
	if update.IsOnSale != nil {
		product.IsOnSale = *update.IsOnSale
	}
	if update.SalePercentage != nil {
		product.SalePercentage = *update.SalePercentage
	}
	product.UpdatedAt = p.m.now()
	p.m.products[id] = product
	return product, nil
}

func (p memProducts) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	product, ok := p.m.products[id]
	if !ok || product.IsDeleted {
		return ErrNotFound
	}
	now := p.m.now()
	product.IsDeleted = true
	product.DeletedAt = &now
	p.m.products[id] = product
	return nil
}

func (p memProducts) Count(context.Context) (int64, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	var n int64
	for _, product := range p.m.products {
		if !product.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (p memProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	product, ok := p.m.products[id]
	if !ok || product.IsDeleted {
		return models.Product{}, ErrNotFound
	}
	if product.StockQuantity < qty {
		return product, ErrInsufficientStock
	}
	product.StockQuantity -= qty
	product.StockVersion++
	product.InStock = product.StockQuantity > 0
	product.UpdatedAt = p.m.now()
	p.m.products[id] = product
	return product, nil
}

func (p memProducts) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	product, ok := p.m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	if product.StockQuantity > math.MaxInt-qty {
		return product, ErrStockOverflow
	}
	product.StockQuantity += qty
	product.StockVersion++
	product.InStock = product.StockQuantity > 0
	product.UpdatedAt = p.m.now()
	p.m.products[id] = product
	return product, nil
}

type memOrders struct{ m *Memory }

func (o memOrders) Insert(_ context.Context, order *models.Order) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, exists := o.m.orders[order.ID]; exists {
		return ErrDuplicate
	}
	stored := *order
	stored.Products = append([]models.OrderItem(nil), order.Products...)
	o.m.orders[order.ID] = stored
	o.m.orderSeq = append(o.m.orderSeq, order.ID)
	return nil
}

func (o memOrders) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	order, ok := o.m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return order, nil
}

func (o memOrders) List(_ context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	matched := make([]models.Order, 0)
	// newest first, like the Mongo implementation's date sort
	for i := len(o.m.orderSeq) - 1; i >= 0; i-- {
		order := o.m.orders[o.m.orderSeq[i]]
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, order)
	}
	total := int64(len(matched))
	if filter.Skip > 0 {
		if filter.Skip >= total {
			return []models.Order{}, total, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Limit > 0 && int64(len(matched)) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (o memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, payment models.PaymentStatus) (models.Order, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	order, ok := o.m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	if order.Status != from {
		return order, ErrStatusConflict
	}
	order.Status = to
	order.PaymentStatus = payment
	order.UpdatedAt = o.m.now()
	o.m.orders[id] = order
	return order, nil
}

func (o memOrders) Stats(context.Context) (OrderStats, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	stats := OrderStats{Orders: int64(len(o.m.orders))}
	for _, order := range o.m.orders {
		if order.Status == models.OrderDelivered {
			stats.TotalSales += order.TotalAmount
		}
	}
	return stats, nil
}

type memUsers struct{ m *Memory }

func (u memUsers) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	user, ok := u.m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (u memUsers) IncrementOrderCount(_ context.Context, id primitive.ObjectID) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	user, ok := u.m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.OrderCount++
	user.UpdatedAt = u.m.now()
	u.m.users[id] = user
	return nil
}

func (u memUsers) Count(context.Context) (int64, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return int64(len(u.m.users)), nil
}

type memCategories struct{ m *Memory }

func (c memCategories) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	out := make([]models.Category, 0, len(c.m.categories))
	for _, category := range c.m.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (c memCategories) Create(_ context.Context, category *models.Category) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	for _, existing := range c.m.categories {
		if existing.Name == category.Name {
			return ErrDuplicate
		}
	}
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = c.m.now()
	}
	c.m.categories[category.ID] = *category
	return nil
}

func (c memCategories) Update(_ context.Context, id primitive.ObjectID, name *string, isActive *bool) (models.Category, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	category, ok := c.m.categories[id]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	if name != nil {
		for otherID, existing := range c.m.categories {
			if otherID != id && existing.Name == *name {
				return models.Category{}, ErrDuplicate
			}
		}
		category.Name = *name
	}
	if isActive != nil {
		category.IsActive = *isActive
	}
	c.m.categories[id] = category
	return category, nil
}

func (c memCategories) Delete(_ context.Context, id primitive.ObjectID) (models.Category, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	category, ok := c.m.categories[id]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	delete(c.m.categories, id)
	return category, nil
}
