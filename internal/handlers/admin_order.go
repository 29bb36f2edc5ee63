package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/store"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

/*
PUT /admin/api/v1/updateOrderStatus/:id
- payment status follows the new order status
*/
func UpdateOrderStatus(svc *checkout.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/v1/updateOrderStatus/:id"
		defer handlePanic(c, logger, route)

		orderID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), orderID, req.Status)
		if err != nil {
			respondCheckoutError(c, logger, route, err, http.StatusNotFound)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

/*
POST /admin/api/v1/getOrders
- page, limit and status query params, newest first
*/
func GetOrders(st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/v1/getOrders"
		defer handlePanic(c, logger, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.OrderFilter{Skip: (page - 1) * limit, Limit: limit}
		if raw := c.Query("status"); raw != "" {
			status, ok := models.ParseOrderStatus(raw)
			if !ok {
				respondWithError(c, logger, http.StatusBadRequest, route, "invalid status")
				return
			}
			filter.Status = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		orders, total, err := st.Orders().List(ctx, filter)
		if err != nil {
			logger.Error("list orders", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "Failed to fetch Orders.")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orders":  orders,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + limit - 1) / limit,
			},
		})
	}
}

/*
GET /admin/api/v1/stats/overview
- totalSales counts delivered orders only
*/
func OverviewStats(st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/v1/stats/overview"
		defer handlePanic(c, logger, route)

		var (
			orderStats store.OrderStats
			products   int64
			customers  int64
		)

		g, ctx := errgroup.WithContext(c.Request.Context())
		ctx, cancel := context.WithTimeout(ctx, dbTimeout)
		defer cancel()

		g.Go(func() (err error) {
			orderStats, err = st.Orders().Stats(ctx)
			return err
		})
		g.Go(func() (err error) {
			products, err = st.Products().Count(ctx)
			return err
		})
		g.Go(func() (err error) {
			customers, err = st.Users().Count(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			logger.Error("overview stats", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"stats": gin.H{
				"totalSales": orderStats.TotalSales,
				"orders":     orderStats.Orders,
				"products":   products,
				"customers":  customers,
			},
		})
	}
}
