package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/checkout"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

/* =======================
   REQUEST MODELS
======================= */

type productCreateRequest struct {
	Name           string   `json:"name" binding:"required"`
	Price          *float64 `json:"price" binding:"required,gte=0"`
	Category       string   `json:"category"`
	IsOnSale       bool     `json:"isOnSale"`
	SalePercentage float64  `json:"salePercentage"`
	StockQuantity  int      `json:"stockQuantity" binding:"gte=0"`
}

type productUpdateRequest struct {
	Name           *string  `json:"name"`
	Price          *float64 `json:"price"`
	Category       *string  `json:"category"`
	IsOnSale       *bool    `json:"isOnSale"`
	SalePercentage *float64 `json:"salePercentage"`
	StockQuantity  *int     `json:"stockQuantity"`
}

type stockAdjustmentRequest struct {
	Quantity int `json:"quantity" binding:"required,min=-100000,max=100000"`
}

/* =======================
   CREATE
======================= */

func CreateProduct(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/v1/products"
		defer handlePanic(c, logger, route)

		var req productCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, logger, http.StatusBadRequest, route, "name is required")
			return
		}
		salePercentage := req.SalePercentage
		if !req.IsOnSale {
			salePercentage = 0
		}
		if err := checkout.ValidateSale(*req.Price, req.IsOnSale, salePercentage); err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		product := models.Product{
			Name:           name,
			Price:          *req.Price,
			Category:       strings.TrimSpace(req.Category),
			IsOnSale:       req.IsOnSale,
			SalePercentage: salePercentage,
			StockQuantity:  req.StockQuantity,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		if err := st.Products().Create(ctx, &product); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, logger, http.StatusConflict, route, "product already exists")
				return
			}
			logger.Error("create product", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewProductChanged(events.ProductAdded, product.ID, time.Now()))
		logger.Info("product created",
			zap.String("route", route),
			zap.String("product_id", product.ID.Hex()),
			zap.Int("stock", product.StockQuantity),
		)
		c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/v1/products/:id"
		defer handlePanic(c, logger, route)

		productID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req productUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.StockQuantity != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "stockQuantity can only be changed through the stock endpoint")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		existing, err := st.Products().FindByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, logger, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			logger.Error("find product", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		sale, err := resolveSaleUpdate(existing.Price, existing.IsOnSale, existing.SalePercentage, saleUpdateInput{
			Price:          req.Price,
			IsOnSale:       req.IsOnSale,
			SalePercentage: req.SalePercentage,
		})
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		update := store.ProductUpdate{Price: req.Price, Category: req.Category}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, logger, http.StatusBadRequest, route, "name must not be empty")
				return
			}
			update.Name = &name
		}
		if sale.SetIsOnSale {
			update.IsOnSale = &sale.IsOnSale
		}
		if sale.SetSalePercentage {
			update.SalePercentage = &sale.SalePercentage
		}
		if update.Empty() {
			respondWithError(c, logger, http.StatusBadRequest, route, "no fields to update")
			return
		}

		product, err := st.Products().Update(ctx, productID, update)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, logger, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			logger.Error("update product", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewProductChanged(events.ProductUpdated, product.ID, time.Now()))
		c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
	}
}

/* =======================
   DELETE (SOFT)
======================= */

func DeleteProduct(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/v1/products/:id"
		defer handlePanic(c, logger, route)

		productID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		if err := st.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, logger, http.StatusNotFound, route, "product not found")
				return
			}
			logger.Error("delete product", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewProductChanged(events.ProductDeleted, productID, time.Now()))
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
	}
}

/*
PATCH /admin/api/v1/products/:id/stock
- positive quantity restocks, negative writes off
*/
func AdjustProductStock(svc *checkout.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/v1/products/:id/stock"
		defer handlePanic(c, logger, route)

		productID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req stockAdjustmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		product, err := svc.AdjustStock(c.Request.Context(), productID, req.Quantity)
		if err != nil {
			respondCheckoutError(c, logger, route, err, http.StatusNotFound)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
	}
}
