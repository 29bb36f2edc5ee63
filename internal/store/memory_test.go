package store

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
)

func TestMemoryDecrementStockGuard(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	product := &models.Product{Name: "Kettle", Price: 30, StockQuantity: 3}
	require.NoError(t, mem.Products().Create(ctx, product))

	updated, err := mem.Products().DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)
	assert.Equal(t, int64(1), updated.StockVersion)

	current, err := mem.Products().DecrementStock(ctx, product.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, current.StockQuantity)
	assert.Equal(t, int64(1), current.StockVersion)

	_, err = mem.Products().DecrementStock(ctx, primitive.NewObjectID(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStockPrimitivesRejectBadQuantities(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	product := &models.Product{Name: "Kettle", Price: 30, StockQuantity: 5}
	require.NoError(t, mem.Products().Create(ctx, product))

	for _, qty := range []int{0, -1, math.MinInt} {
		_, err := mem.Products().DecrementStock(ctx, product.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "decrement %d", qty)
		_, err = mem.Products().IncrementStock(ctx, product.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "increment %d", qty)
	}

	current, err := mem.Products().IncrementStock(ctx, product.ID, math.MaxInt)
	require.ErrorIs(t, err, ErrStockOverflow)
	assert.Equal(t, 5, current.StockQuantity)

	stored, err := mem.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)
	assert.Equal(t, int64(0), stored.StockVersion)

	topped, err := mem.Products().IncrementStock(ctx, product.ID, math.MaxInt-5)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, topped.StockQuantity)
}

func TestMemoryDecrementStockNeverNegativeUnderContention(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	product := &models.Product{Name: "Lamp", Price: 12, StockQuantity: 50}
	require.NoError(t, mem.Products().Create(ctx, product))

	var succeeded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 200; i++ {
		g.Go(func() error {
			_, err := mem.Products().DecrementStock(gctx, product.ID, 1)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if err == ErrInsufficientStock {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	final, err := mem.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), succeeded.Load())
	assert.Equal(t, 0, final.StockQuantity)
	assert.Equal(t, int64(50), final.StockVersion)
}

func TestMemoryFindByIDsSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	live := &models.Product{Name: "Live", StockQuantity: 1}
	gone := &models.Product{Name: "Gone", StockQuantity: 1}
	require.NoError(t, mem.Products().Create(ctx, live))
	require.NoError(t, mem.Products().Create(ctx, gone))
	require.NoError(t, mem.Products().SoftDelete(ctx, gone.ID))

	found, err := mem.Products().FindByIDs(ctx, []primitive.ObjectID{live.ID, gone.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, live.ID)
}

func TestMemoryUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	order := &models.Order{Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	require.NoError(t, mem.Orders().Insert(ctx, order))

	updated, err := mem.Orders().UpdateStatus(ctx, order.ID, models.OrderPending, models.OrderShipped, models.PaymentPending)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)

	_, err = mem.Orders().UpdateStatus(ctx, order.ID, models.OrderPending, models.OrderCancelled, models.PaymentRejected)
	require.ErrorIs(t, err, ErrStatusConflict)

	_, err = mem.Orders().UpdateStatus(ctx, primitive.NewObjectID(), models.OrderPending, models.OrderShipped, models.PaymentPending)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListOrdersNewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	userID := primitive.NewObjectID()
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		order := &models.Order{UserID: userID, Status: models.OrderPending}
		require.NoError(t, mem.Orders().Insert(ctx, order))
		ids = append(ids, order.ID)
	}
	require.NoError(t, mem.Orders().Insert(ctx, &models.Order{UserID: primitive.NewObjectID(), Status: models.OrderPending}))

	orders, total, err := mem.Orders().List(ctx, OrderFilter{UserID: &userID, Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 1)
	assert.Equal(t, ids[1], orders[0].ID)
}
