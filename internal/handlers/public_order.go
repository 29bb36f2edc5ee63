package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type orderLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,max=100000"`
}

type shippingAddressRequest struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone" binding:"required"`
}

type createOrderRequest struct {
	UserID          string                 `json:"userId" binding:"required"`
	Products        []orderLineRequest     `json:"products" binding:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=cod card paypal"`
	TotalAmount     float64                `json:"totalAmount" binding:"required,gt=0"`
	Notes           string                 `json:"notes"`
}

type deductStockRequest struct {
	Products []orderLineRequest `json:"products" binding:"required,min=1,dive"`
}

func parseLines(items []orderLineRequest) ([]checkout.Line, bool) {
	lines := make([]checkout.Line, 0, len(items))
	for _, item := range items {
		productID, ok := parseObjectID(item.ProductID)
		if !ok {
			return nil, false
		}
		lines = append(lines, checkout.Line{ProductID: productID, Quantity: item.Quantity})
	}
	return lines, true
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(svc *checkout.Service, st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/api/v1/createOrder"
		defer handlePanic(c, logger, route)

		if err := ensureStore(c.Request.Context(), st); err != nil {
			svc.RejectOrder(c.Request.Context(), "database unavailable")
			respondWithError(c, logger, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			svc.RejectOrder(c.Request.Context(), "invalid order request")
			respondValidationError(c, logger, route, err)
			return
		}

		userID, ok := parseObjectID(req.UserID)
		if !ok {
			svc.RejectOrder(c.Request.Context(), "invalid userId")
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid userId")
			return
		}
		if tokenUser, ok := middleware.AuthenticatedUser(c); ok && tokenUser != userID {
			svc.RejectOrder(c.Request.Context(), "userId does not match token")
			respondWithError(c, logger, http.StatusForbidden, route, "userId does not match token")
			return
		}

		lines, ok := parseLines(req.Products)
		if !ok {
			svc.RejectOrder(c.Request.Context(), "invalid productId")
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid productId")
			return
		}

		result, err := svc.PlaceOrder(c.Request.Context(), checkout.PlaceOrderRequest{
			UserID: userID,
			Lines:  lines,
			Address: models.ShippingAddress{
				Address:    strings.TrimSpace(req.ShippingAddress.Address),
				City:       strings.TrimSpace(req.ShippingAddress.City),
				State:      strings.TrimSpace(req.ShippingAddress.State),
				PostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
				Phone:      strings.TrimSpace(req.ShippingAddress.Phone),
			},
			PaymentMethod: req.PaymentMethod,
			TotalAmount:   req.TotalAmount,
			Notes:         req.Notes,
		})
		if err != nil {
			respondCheckoutError(c, logger, route, err, http.StatusBadRequest)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":         true,
			"message":         "Order placed successfully! Stock has been deducted.",
			"order":           result.Order,
			"updatedProducts": result.UpdatedProducts,
		})
	}
}

/*
POST /user/api/v1/get-order/:id
- :id is the user, newest orders first
*/
func GetUserOrders(st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/api/v1/get-order/:id"
		defer handlePanic(c, logger, route)

		userID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}
		if tokenUser, ok := middleware.AuthenticatedUser(c); ok && tokenUser != userID {
			respondWithError(c, logger, http.StatusForbidden, route, "userId does not match token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		orders, _, err := st.Orders().List(ctx, store.OrderFilter{UserID: &userID})
		if err != nil {
			logger.Error("list user orders", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "Failed to fetch Orders.")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
	}
}

/* =========================
   DEDUCT STOCK
========================= */

func DeductStock(svc *checkout.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products/deduct-stock"
		defer handlePanic(c, logger, route)

		var req deductStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		lines, ok := parseLines(req.Products)
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid productId")
			return
		}

		changes, err := svc.DeductStock(c.Request.Context(), lines)
		if err != nil {
			respondCheckoutError(c, logger, route, err, http.StatusNotFound)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Stock deducted successfully",
			"data":    changes,
		})
	}
}
