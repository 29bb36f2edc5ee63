package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *store.Memory
	recorder *events.Recorder
	service  *Service
	user     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	rec := &events.Recorder{}
	f := &fixture{
		store:    mem,
		recorder: rec,
		service:  NewService(mem, rec, WithClock(func() time.Time { return fixedNow })),
	}
	f.user = mem.PutUser(models.User{Name: "Ada", Email: "ada@example.com"})
	return f
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, StockQuantity: stock, Category: "general"}
	require.NoError(t, f.store.Products().Create(context.Background(), &p))
	return p
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) models.Product {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) orderRequest(total float64, lines ...Line) PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:        f.user.ID,
		Lines:         lines,
		Address:       models.ShippingAddress{Address: "1 Main St", City: "Springfield", Phone: "555-0100"},
		PaymentMethod: "cod",
		TotalAmount:   total,
	}
}

func (f *fixture) dumpEvents() string {
	return spew.Sdump(f.recorder.Events())
}

func stockPayloads(t *testing.T, evts []events.Event) []events.StockPayload {
	t.Helper()
	out := make([]events.StockPayload, 0, len(evts))
	for _, evt := range evts {
		payload, ok := evt.Payload.(events.StockPayload)
		require.True(t, ok, spew.Sdump(evt))
		out = append(out, payload)
	}
	return out
}

// failingOrders refuses every insert.
type failingOrders struct{ store.Orders }

func (failingOrders) Insert(context.Context, *models.Order) error {
	return errors.New("write concern timeout")
}

// flakyProducts lets tests break individual stock primitives.
type flakyProducts struct {
	store.Products
	shortOn      map[primitive.ObjectID]bool
	failIncrease bool
}

func (p flakyProducts) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if p.shortOn[id] {
		current, err := p.Products.FindByID(ctx, id)
		if err != nil {
			return models.Product{}, err
		}
		return current, store.ErrInsufficientStock
	}
	return p.Products.DecrementStock(ctx, id, qty)
}

func (p flakyProducts) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if p.failIncrease {
		return models.Product{}, errors.New("connection reset")
	}
	return p.Products.IncrementStock(ctx, id, qty)
}

type brokenStore struct {
	*store.Memory
	orders   store.Orders
	products store.Products
}

func (b brokenStore) Orders() store.Orders {
	if b.orders != nil {
		return b.orders
	}
	return b.Memory.Orders()
}

func (b brokenStore) Products() store.Products {
	if b.products != nil {
		return b.products
	}
	return b.Memory.Products()
}
