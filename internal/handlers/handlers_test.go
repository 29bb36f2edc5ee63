package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/checkout"
	"storefront/internal/events"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

const testSecret = "handlers-secret"

type testEnv struct {
	store    *store.Memory
	recorder *events.Recorder
	service  *checkout.Service
	router   *gin.Engine
	user     models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	rec := &events.Recorder{}
	logger := zap.NewNop()
	svc := checkout.NewService(mem, rec)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/products/getProducts", GetProducts(mem, logger))
	r.GET("/categories", GetCategories(mem, logger))
	r.POST("/products/deduct-stock", DeductStock(svc, logger))

	user := r.Group("/user/api/v1", middleware.OptionalUserAuth(testSecret, logger))
	user.POST("/createOrder", CreateOrder(svc, mem, logger))
	user.POST("/get-order/:id", GetUserOrders(mem, logger))

	admin := r.Group("/admin/api/v1")
	admin.PUT("/updateOrderStatus/:id", UpdateOrderStatus(svc, logger))
	admin.POST("/getOrders", GetOrders(mem, logger))
	admin.GET("/stats/overview", OverviewStats(mem, logger))
	admin.POST("/products", CreateProduct(mem, rec, logger))
	admin.PUT("/products/:id", UpdateProduct(mem, rec, logger))
	admin.DELETE("/products/:id", DeleteProduct(mem, rec, logger))
	admin.PATCH("/products/:id/stock", AdjustProductStock(svc, logger))
	admin.GET("/categories", GetAllCategories(mem, logger))
	admin.POST("/categories", CreateCategory(mem, rec, logger))
	admin.PUT("/categories/:id", UpdateCategory(mem, rec, logger))
	admin.DELETE("/categories/:id", DeleteCategory(mem, rec, logger))

	return &testEnv{
		store:    mem,
		recorder: rec,
		service:  svc,
		router:   r,
		user:     mem.PutUser(models.User{Name: "Ada", Email: "ada@example.com"}),
	}
}

func (e *testEnv) product(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, StockQuantity: stock, Category: "lighting"}
	require.NoError(t, e.store.Products().Create(context.Background(), &p))
	return p
}

func (e *testEnv) stockOf(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := e.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 1 {
		req.Header.Set("Authorization", header[0])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (e *testEnv) orderBody(total float64, lines ...gin.H) gin.H {
	return gin.H{
		"userId":   e.user.ID.Hex(),
		"products": lines,
		"shippingAddress": gin.H{
			"address":    "1 Main St",
			"city":       "Springfield",
			"state":      "IL",
			"postalCode": "62701",
			"phone":      "555-0100",
		},
		"paymentMethod": "cod",
		"totalAmount":   total,
	}
}

func line(id primitive.ObjectID, qty int) gin.H {
	return gin.H{"productId": id.Hex(), "quantity": qty}
}

func userToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCreateOrderDeductsStock(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)

	w, body := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(100, line(lamp.ID, 4)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order placed successfully! Stock has been deducted.", body["message"])
	assert.Equal(t, 6, env.stockOf(t, lamp.ID))

	order := body["order"].(map[string]any)
	items := order["products"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, lamp.ID.Hex(), items[0].(map[string]any)["productId"])
	assert.EqualValues(t, 4, items[0].(map[string]any)["quantity"])

	updated := body["updatedProducts"].([]any)
	require.Len(t, updated, 1)
	assert.EqualValues(t, 6, updated[0].(map[string]any)["newStock"])
	assert.EqualValues(t, 1, updated[0].(map[string]any)["stockVersion"])

	assert.Len(t, env.recorder.Named(events.OrderCreated), 1)
	assert.Len(t, env.recorder.Named(events.StockUpdated), 1)
}

func TestCreateOrderInsufficientStockNamesProduct(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "A", 10, 10)
	b := env.product(t, "B", 10, 3)

	w, body := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(1020, line(a.ID, 2), line(b.ID, 100)))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	assert.Equal(t, false, body["success"])
	assert.Equal(t, "insufficient_stock", body["error"])
	assert.Equal(t, b.ID.Hex(), body["productId"])
	assert.Equal(t, "B", body["productName"])
	assert.EqualValues(t, 3, body["available"])
	assert.EqualValues(t, 100, body["requested"])

	assert.Equal(t, 10, env.stockOf(t, a.ID))
	assert.Equal(t, 3, env.stockOf(t, b.ID))
	assert.Len(t, env.recorder.Named(events.OrderError), 1, spew.Sdump(env.recorder.Events()))
	assert.Empty(t, env.recorder.Named(events.StockUpdated))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	missing := primitive.NewObjectID()

	w, body := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(10, line(missing, 1)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, missing.Hex(), body["productId"])
	assert.Equal(t, fmt.Sprintf("Product with ID %s not found", missing.Hex()), body["message"])
}

func TestCreateOrderRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)

	body := env.orderBody(25, line(lamp.ID, 1))
	delete(body, "paymentMethod")

	w, resp := env.do(t, http.MethodPost, "/user/api/v1/createOrder", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", resp["error"])
	assert.Contains(t, resp["details"], "paymentMethod is required")

	bad := env.orderBody(25, gin.H{"productId": "not-an-id", "quantity": 1})
	w, resp = env.do(t, http.MethodPost, "/user/api/v1/createOrder", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid productId", resp["message"])

	assert.Len(t, env.recorder.Named(events.OrderError), 2)
	assert.Equal(t, 10, env.stockOf(t, lamp.ID))
}

func TestCreateOrderTotalMismatch(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)

	w, body := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(20, line(lamp.ID, 1)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "totalAmount", body["field"])
	assert.Equal(t, 10, env.stockOf(t, lamp.ID))
}

func TestCreateOrderChecksTokenOwner(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)

	w, _ := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(25, line(lamp.ID, 1)), userToken(t, primitive.NewObjectID()))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(25, line(lamp.ID, 1)), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(25, line(lamp.ID, 1)), userToken(t, env.user.ID))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 9, env.stockOf(t, lamp.ID))

	rejected := env.recorder.Named(events.OrderError)
	require.Len(t, rejected, 1, spew.Sdump(env.recorder.Events()))
	assert.Equal(t, "userId does not match token", rejected[0].Payload.(events.OrderErrorPayload).Message)
}

// downStore fails every health check.
type downStore struct{ *store.Memory }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestCreateOrderStoreUnavailableBroadcastsError(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)

	r := gin.New()
	r.POST("/createOrder", CreateOrder(env.service, downStore{env.store}, zap.NewNop()))
	env.router = r

	w, body := env.do(t, http.MethodPost, "/createOrder", env.orderBody(25, line(lamp.ID, 1)))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])

	rejected := env.recorder.Named(events.OrderError)
	require.Len(t, rejected, 1)
	assert.Equal(t, "database unavailable", rejected[0].Payload.(events.OrderErrorPayload).Message)
	assert.Equal(t, 10, env.stockOf(t, lamp.ID))
}

func TestCreateOrderBoundsLineQuantity(t *testing.T) {
	env := newTestEnv(t)
	sticker := models.Product{Name: "Sticker", Price: 0.4, IsOnSale: true, SalePercentage: 10, StockQuantity: 10, Category: "misc"}
	require.NoError(t, env.store.Products().Create(context.Background(), &sticker))

	w, body := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(0.01,
		line(sticker.ID, math.MaxInt), line(sticker.ID, math.MaxInt), line(sticker.ID, 3),
	))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, body["details"], "quantity must be at most 100000")

	w, body = env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(0.01,
		line(sticker.ID, 60000), line(sticker.ID, 60000),
	))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "quantity", body["field"])

	assert.Equal(t, 10, env.stockOf(t, sticker.ID))
	assert.Len(t, env.recorder.Named(events.OrderError), 2)
	assert.Empty(t, env.recorder.Named(events.StockUpdated))
}

func TestGetUserOrders(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 10)
	for i := 0; i < 2; i++ {
		w, _ := env.do(t, http.MethodPost, "/user/api/v1/createOrder", env.orderBody(25, line(lamp.ID, 1)))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, body := env.do(t, http.MethodPost, "/user/api/v1/get-order/"+env.user.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["orders"], 2)

	w, body = env.do(t, http.MethodPost, "/user/api/v1/get-order/"+primitive.NewObjectID().Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["orders"])

	w, _ = env.do(t, http.MethodPost, "/user/api/v1/get-order/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeductStockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "A", 1, 10)
	b := env.product(t, "B", 1, 2)

	w, body := env.do(t, http.MethodPost, "/products/deduct-stock", gin.H{"products": []gin.H{line(a.ID, 4), line(b.ID, 2)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.EqualValues(t, 10, first["previousStock"])
	assert.EqualValues(t, 4, first["quantityDeducted"])
	assert.EqualValues(t, 6, first["newStock"])

	w, body = env.do(t, http.MethodPost, "/products/deduct-stock", gin.H{"products": []gin.H{line(a.ID, 1), line(b.ID, 1)}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_stock", body["error"])
	assert.Equal(t, 6, env.stockOf(t, a.ID))

	w, _ = env.do(t, http.MethodPost, "/products/deduct-stock", gin.H{"products": []gin.H{line(primitive.NewObjectID(), 1)}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/products/deduct-stock", gin.H{"products": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (e *testEnv) placeOrder(t *testing.T) primitive.ObjectID {
	t.Helper()
	lamp := e.product(t, "Lamp", 25, 10)
	w, body := e.do(t, http.MethodPost, "/user/api/v1/createOrder", e.orderBody(25, line(lamp.ID, 1)))
	require.Equal(t, http.StatusCreated, w.Code)
	id, err := primitive.ObjectIDFromHex(body["order"].(map[string]any)["_id"].(string))
	require.NoError(t, err)
	return id
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.placeOrder(t)
	path := "/admin/api/v1/updateOrderStatus/" + orderID.Hex()

	w, body := env.do(t, http.MethodPut, path, gin.H{"status": "Shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := body["order"].(map[string]any)
	assert.Equal(t, "Shipped", order["status"])
	assert.Equal(t, "Pending", order["paymentStatus"])

	w, body = env.do(t, http.MethodPut, path, gin.H{"status": "Delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paid", body["order"].(map[string]any)["paymentStatus"])

	w, body = env.do(t, http.MethodPut, path, gin.H{"status": "Cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", body["error"])

	w, _ = env.do(t, http.MethodPut, path, gin.H{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/api/v1/updateOrderStatus/"+primitive.NewObjectID().Hex(), gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/api/v1/updateOrderStatus/bad", gin.H{"status": "Shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, env.recorder.Named(events.OrderUpdated), 2)
}

func TestGetOrdersPaginates(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.placeOrder(t)
	}

	w, body := env.do(t, http.MethodPost, "/admin/api/v1/getOrders?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["orders"], 1)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["totalPages"])

	w, body = env.do(t, http.MethodPost, "/admin/api/v1/getOrders?status=Delivered", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["orders"])

	w, _ = env.do(t, http.MethodPost, "/admin/api/v1/getOrders?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/admin/api/v1/getOrders?page=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOverviewStats(t *testing.T) {
	env := newTestEnv(t)
	orderID := env.placeOrder(t)
	env.placeOrder(t)
	for _, status := range []string{"Shipped", "Delivered"} {
		w, _ := env.do(t, http.MethodPut, "/admin/api/v1/updateOrderStatus/"+orderID.Hex(), gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := env.do(t, http.MethodGet, "/admin/api/v1/stats/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 25, stats["totalSales"])
	assert.EqualValues(t, 2, stats["orders"])
	assert.EqualValues(t, 2, stats["products"])
	assert.EqualValues(t, 1, stats["customers"])
}

func TestProductCatalogMaintenance(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/admin/api/v1/products", gin.H{
		"name": "Desk", "price": 120, "category": "office", "stockQuantity": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["product"].(map[string]any)["_id"].(string)
	assert.Len(t, env.recorder.Named(events.ProductAdded), 1)

	w, _ = env.do(t, http.MethodPost, "/admin/api/v1/products", gin.H{"name": "Chair", "price": 10, "isOnSale": true, "salePercentage": 95})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodPut, "/admin/api/v1/products/"+id, gin.H{"isOnSale": true, "salePercentage": 25})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	product := body["product"].(map[string]any)
	assert.Equal(t, true, product["isOnSale"])
	assert.EqualValues(t, 25, product["salePercentage"])
	assert.EqualValues(t, 4, product["stockQuantity"])

	w, _ = env.do(t, http.MethodPut, "/admin/api/v1/products/"+id, gin.H{"stockQuantity": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/admin/api/v1/products/"+id, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/admin/api/v1/products/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodDelete, "/admin/api/v1/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, env.recorder.Named(events.ProductUpdated), 1)
	assert.Len(t, env.recorder.Named(events.ProductDeleted), 1)

	w, body = env.do(t, http.MethodGet, "/products/getProducts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["products"])
}

func TestAdjustProductStockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.product(t, "Lamp", 25, 3)
	path := "/admin/api/v1/products/" + lamp.ID.Hex() + "/stock"

	w, body := env.do(t, http.MethodPatch, path, gin.H{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 8, body["product"].(map[string]any)["stockQuantity"])

	w, body = env.do(t, http.MethodPatch, path, gin.H{"quantity": -10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_stock", body["error"])

	w, _ = env.do(t, http.MethodPatch, path, gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, qty := range []int{math.MinInt, -100001, 100001, math.MaxInt} {
		w, body = env.do(t, http.MethodPatch, path, gin.H{"quantity": qty})
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity %d", qty)
		assert.Equal(t, "validation_error", body["error"])
	}
	assert.Equal(t, 8, env.stockOf(t, lamp.ID))

	w, _ = env.do(t, http.MethodPatch, "/admin/api/v1/products/"+primitive.NewObjectID().Hex()+"/stock", gin.H{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	payloads := env.recorder.Named(events.StockUpdated)
	require.Len(t, payloads, 1)
	assert.Equal(t, events.ReasonRestock, payloads[0].Payload.(events.StockPayload).Reason)
}

func TestCategoryMaintenance(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/admin/api/v1/categories", gin.H{"name": "Lighting"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["category"].(map[string]any)["_id"].(string)

	w, _ = env.do(t, http.MethodPost, "/admin/api/v1/categories", gin.H{"name": "Lighting"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = env.do(t, http.MethodPost, "/admin/api/v1/categories", gin.H{"name": "Hidden", "isActive": false})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = env.do(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["categories"], 1)

	w, body = env.do(t, http.MethodGet, "/admin/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["categories"], 2)

	w, body = env.do(t, http.MethodPut, "/admin/api/v1/categories/"+id, gin.H{"name": "Lamps"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lamps", body["category"].(map[string]any)["name"])

	w, _ = env.do(t, http.MethodPut, "/admin/api/v1/categories/"+id, gin.H{"name": "Hidden"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/admin/api/v1/categories/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodDelete, "/admin/api/v1/categories/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, env.recorder.Named(events.CategoryCreated), 2)
	assert.Len(t, env.recorder.Named(events.CategoryUpdated), 1)
	assert.Len(t, env.recorder.Named(events.CategoryDeleted), 1)
}

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page)
	assert.Equal(t, int64(defaultPageLimit), limit)

	_, limit, err = parsePaginationParams("3", "1000")
	require.NoError(t, err)
	assert.Equal(t, int64(maxPageLimit), limit)

	_, _, err = parsePaginationParams("x", "")
	assert.ErrorIs(t, err, errInvalidPagination)
}
