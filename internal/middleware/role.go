package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// RequireRole loads the authenticated user and admits only the given roles.
// It must run after AuthMiddleware.
func RequireRole(users portssvc.UserReaderSvc, roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		userID, ok := GetUserIDFromContext(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				abortJSON(c, http.StatusUnauthorized, "User not found")
				return
			}
			logger.Error("Failed to load user for role check", slog.String("error", err.Error()))
			abortJSON(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		if !user.HasAnyRole(roles...) {
			logger.Warn("Role check failed", slog.String("role", string(user.Role)))
			abortJSON(c, http.StatusForbidden, "Access denied")
			return
		}

		c.Set(string(userKey), user)
		c.Next()
	}
}
