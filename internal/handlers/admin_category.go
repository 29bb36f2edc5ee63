package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/store"
)

type CategoryCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type CategoryUpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

/*
GET /admin/api/v1/categories
- active and inactive, ?isActive=true narrows to active
*/
func GetAllCategories(st store.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/v1/categories"
		defer handlePanic(c, logger, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		activeOnly := strings.TrimSpace(c.Query("isActive")) == "true"
		categories, err := st.Categories().List(ctx, activeOnly)
		if err != nil {
			logger.Error("list categories", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
	}
}

/*
POST /admin/api/v1/categories
- names are unique
*/
func CreateCategory(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/v1/categories"
		defer handlePanic(c, logger, route)

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, logger, http.StatusBadRequest, route, "name required")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		category := models.Category{
			Name:      name,
			IsActive:  isActive,
			CreatedAt: time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		if err := st.Categories().Create(ctx, &category); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, logger, http.StatusConflict, route, "category already exists")
				return
			}
			logger.Error("create category", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewCategoryChanged(events.CategoryCreated, category, time.Now()))
		c.JSON(http.StatusCreated, gin.H{"success": true, "category": category})
	}
}

func UpdateCategory(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/v1/categories/:id"
		defer handlePanic(c, logger, route)

		categoryID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid body")
			return
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, logger, http.StatusBadRequest, route, "name required")
				return
			}
			req.Name = &name
		}
		if req.Name == nil && req.IsActive == nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		category, err := st.Categories().Update(ctx, categoryID, req.Name, req.IsActive)
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondWithError(c, logger, http.StatusNotFound, route, "category not found")
			return
		case errors.Is(err, store.ErrDuplicate):
			respondWithError(c, logger, http.StatusConflict, route, "category already exists")
			return
		case err != nil:
			logger.Error("update category", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewCategoryChanged(events.CategoryUpdated, category, time.Now()))
		c.JSON(http.StatusOK, gin.H{"success": true, "category": category})
	}
}

func DeleteCategory(st store.Store, publisher events.Publisher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/v1/categories/:id"
		defer handlePanic(c, logger, route)

		categoryID, ok := parseObjectID(c.Param("id"))
		if !ok {
			respondWithError(c, logger, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), dbTimeout)
		defer cancel()

		category, err := st.Categories().Delete(ctx, categoryID)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, logger, http.StatusNotFound, route, "category not found")
			return
		}
		if err != nil {
			logger.Error("delete category", zap.String("route", route), zap.Error(err))
			respondWithError(c, logger, http.StatusInternalServerError, route, "db error")
			return
		}

		publisher.Publish(c.Request.Context(), events.NewCategoryChanged(events.CategoryDeleted, category, time.Now()))
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "category deleted"})
	}
}
