package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenCookie is the name of the session cookie.
const AccessTokenCookie = "accessToken"

// AuthMiddleware creates a Gin middleware handler that validates session tokens.
// The Authorization header wins; the accessToken cookie is read only when the
// header is absent.
func AuthMiddleware(tokens portssvc.TokenSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		tokenString, msg := extractToken(c)
		if tokenString == "" {
			logger.Warn("Session token missing or malformed", slog.String("reason", msg))
			abortJSON(c, http.StatusUnauthorized, msg)
			return
		}

		userID, err := tokens.ParseAccessToken(tokenString)
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			}
			abortJSON(c, http.StatusUnauthorized, msg)
			return
		}

		setUserID(c, userID)

		// Add user ID to the logger
		enrichedLogger := logger.With(slog.String("user_id", userID))
		c.Set(string(loggerKey), enrichedLogger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), enrichedLogger))

		c.Next()
	}
}

// extractToken returns the bearer token, or an empty string with the reason.
func extractToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Authorization header required"
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "Authorization header format must be Bearer {token}"
	}
	return parts[1], ""
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
