package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/checkout"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/store"
)

// Deps is everything the router hands out to handlers.
type Deps struct {
	Store          store.Store
	Service        *checkout.Service
	Publisher      events.Publisher
	Hub            *events.Hub
	Logger         *zap.Logger
	JWTSecret      string
	AllowedOrigins []string
	Heartbeat      time.Duration
}

func Setup(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		gin.Recovery(),
		middleware.CORS(d.AllowedOrigins),
	)

	r.GET("/healthz", handlers.Healthz(d.Store))
	r.GET("/events", events.Stream(d.Hub, d.Heartbeat, d.Logger))

	r.GET("/products/getProducts", handlers.GetProducts(d.Store, d.Logger))
	r.POST("/products/deduct-stock", handlers.DeductStock(d.Service, d.Logger))
	r.GET("/categories", handlers.GetCategories(d.Store, d.Logger))

	user := r.Group("/user/api/v1")
	user.Use(middleware.OptionalUserAuth(d.JWTSecret, d.Logger))
	{
		user.POST("/createOrder", handlers.CreateOrder(d.Service, d.Store, d.Logger))
		user.POST("/get-order/:id", handlers.GetUserOrders(d.Store, d.Logger))
		user.POST("/deduct-stock", handlers.DeductStock(d.Service, d.Logger))
	}

	admin := r.Group("/admin/api/v1")
	admin.Use(middleware.AdminAuth(d.JWTSecret))
	{
		admin.PUT("/updateOrderStatus/:id", handlers.UpdateOrderStatus(d.Service, d.Logger))
		admin.POST("/getOrders", handlers.GetOrders(d.Store, d.Logger))
		admin.GET("/stats/overview", handlers.OverviewStats(d.Store, d.Logger))

		admin.POST("/products", handlers.CreateProduct(d.Store, d.Publisher, d.Logger))
		admin.PUT("/products/:id", handlers.UpdateProduct(d.Store, d.Publisher, d.Logger))
		admin.DELETE("/products/:id", handlers.DeleteProduct(d.Store, d.Publisher, d.Logger))
		admin.PATCH("/products/:id/stock", handlers.AdjustProductStock(d.Service, d.Logger))

		admin.GET("/categories", handlers.GetAllCategories(d.Store, d.Logger))
		admin.POST("/categories", handlers.CreateCategory(d.Store, d.Publisher, d.Logger))
		admin.PUT("/categories/:id", handlers.UpdateCategory(d.Store, d.Publisher, d.Logger))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(d.Store, d.Publisher, d.Logger))
	}

	return r
}
