package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/checkout"
	"storefront/internal/store"
)

const dbTimeout = 5 * time.Second

func handlePanic(c *gin.Context, logger *zap.Logger, route string) {
	if r := recover(); r != nil {
		logger.Error("panic recovered",
			zap.String("route", route),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal_error",
			"message": "internal server error",
		})
	}
}

func ensureStore(ctx context.Context, st store.Store) error {
	return st.Ping(ctx)
}

func errorKind(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

func respondWithError(c *gin.Context, logger *zap.Logger, status int, route string, message string) {
	respondWithDetails(c, logger, status, route, errorKind(status), message, nil)
}

func respondWithDetails(c *gin.Context, logger *zap.Logger, status int, route, kind, message string, details gin.H) {
	fields := []zap.Field{
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("message", message),
		zap.String("request_id", c.GetString("requestId")),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("returning error", fields...)
	} else {
		logger.Info("returning error", fields...)
	}

	body := gin.H{"success": false, "error": kind, "message": message}
	for k, v := range details {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// respondCheckoutError maps checkout errors to responses. notFoundStatus is
// the status a missing product or order gets at this call site.
func respondCheckoutError(c *gin.Context, logger *zap.Logger, route string, err error, notFoundStatus int) {
	var (
		internal     checkout.InternalError
		validation   checkout.ValidationError
		insufficient checkout.InsufficientStockError
		notFound     checkout.NotFoundError
		transition   checkout.TransitionError
	)

	switch {
	case errors.As(err, &internal):
		logger.Error("checkout failed", zap.String("route", route), zap.Error(err))
		respondWithDetails(c, logger, http.StatusInternalServerError, route, "internal_error", "failed to process request, please try again", nil)
	case errors.As(err, &validation):
		respondWithDetails(c, logger, http.StatusBadRequest, route, "validation_error", validation.Message, gin.H{"field": validation.Field})
	case errors.As(err, &insufficient):
		respondWithDetails(c, logger, http.StatusBadRequest, route, "insufficient_stock", insufficient.Error(), gin.H{
			"productId":   insufficient.ProductID.Hex(),
			"productName": insufficient.Name,
			"available":   insufficient.Available,
			"requested":   insufficient.Requested,
		})
	case errors.As(err, &notFound):
		respondWithDetails(c, logger, notFoundStatus, route, "not_found", notFound.Error(), gin.H{
			notFound.Resource + "Id": notFound.ID.Hex(),
		})
	case errors.As(err, &transition):
		respondWithDetails(c, logger, http.StatusConflict, route, "invalid_transition", transition.Error(), gin.H{
			"from": transition.From,
			"to":   transition.To,
		})
	default:
		logger.Error("unexpected error", zap.String("route", route), zap.Error(err))
		respondWithError(c, logger, http.StatusInternalServerError, route, "internal server error")
	}
}

func respondValidationError(c *gin.Context, logger *zap.Logger, route string, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of: %s", field, fieldError.Param()))
			case "gt", "min":
				details = append(details, fmt.Sprintf("%s must be greater than %s", field, minimumFor(fieldError)))
			case "max":
				details = append(details, fmt.Sprintf("%s must be at most %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		respondWithDetails(c, logger, http.StatusBadRequest, route, "validation_error", "validation failed", gin.H{"details": details})
		return
	}

	respondWithDetails(c, logger, http.StatusBadRequest, route, "validation_error", "invalid request body", nil)
}

func minimumFor(fieldError validator.FieldError) string {
	if fieldError.Tag() == "min" {
		return fmt.Sprintf("or equal to %s", fieldError.Param())
	}
	return fieldError.Param()
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func parseObjectID(value string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
	return id, err == nil
}

func Healthz(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ensureStore(c.Request.Context(), st); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
