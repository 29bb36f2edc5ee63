package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/store"
)

/*
GET /products/getProducts
- live catalog snapshot, optional category and search filters
- clients reload this on every event-stream (re)connect
*/
func GetProducts(st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/getProducts"
		defer handlePanic(c, logger, route)

		if err := ensureStore(c.Request.Context(), st); err != nil {
			respondWithError(c, logger, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		products, err := st.Products().List(ctx, store.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
		})
		if err != nil {
			logger.Error("list products", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		logger.Debug("returning products", zap.String("route", route), zap.Int("count", len(products)))
		c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
	}
}
