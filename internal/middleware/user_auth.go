package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated primitive.ObjectID.
const UserIDKey = "userId"

func userIDFromHeader(header, secret string) (primitive.ObjectID, error) {
	claims, err := bearerClaims(header, secret)
	if err != nil {
		return primitive.NilObjectID, err
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return primitive.NilObjectID, errors.New("userId claim missing")
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid userId claim")
	}
	return userID, nil
}

// UserAuth requires a user token and injects its userId into the context.
func UserAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return userAuth(secret, logger, true)
}

// OptionalUserAuth lets anonymous requests through but rejects a token that
// is present and invalid.
func OptionalUserAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return userAuth(secret, logger, false)
}

func userAuth(secret string, logger *zap.Logger, required bool) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !required && strings.TrimSpace(header) == "" {
			c.Next()
			return
		}

		userID, err := userIDFromHeader(header, secret)
		if err != nil {
			logger.Info("user token rejected",
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// AuthenticatedUser returns the userId set by UserAuth or OptionalUserAuth.
func AuthenticatedUser(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}
