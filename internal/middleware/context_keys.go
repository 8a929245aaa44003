package middleware

import (
	"context"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the authenticated user's ID.
const userIDKey = contextKey("userID")

// userKey holds the loaded *domain.User once a guard has fetched it.
const userKey = contextKey("user")

func setUserID(c *gin.Context, userID string) {
	c.Set(string(userIDKey), userID)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userIDKey, userID))
}

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if userID, ok := c.Request.Context().Value(userIDKey).(string); ok {
			return userID, true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	return userID, ok && userID != ""
}

// GetUserFromContext returns the user loaded by RequireRole, if any.
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	val, exists := c.Get(string(userKey))
	if !exists {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}
