package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health": true,
}

// PosthogMiddleware creates a Gin middleware handler that tracks API events with PostHog
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip if PostHog is not initialized or path is in skip list
		if !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Process request first
		c.Next()

		// Skip if there was an error processing the request
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		// Get user ID from context (set by auth middleware)
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			// No user ID, can't track event
			return
		}

		// Create event name from route path (e.g., "/api/users/me" -> "api_users_me")
		eventName := strings.TrimPrefix(c.FullPath(), "/")
		eventName = strings.ReplaceAll(eventName, "/", "_")

		// Skip if event name is empty (e.g., for 404s)
		if eventName == "" {
			return
		}

		// Prepare event properties
		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}

		// Add route parameters if any
		if len(c.Params) > 0 {
			params := make(map[string]string)
			for _, param := range c.Params {
				params[param.Key] = param.Value
			}
			props["params"] = params
		}

		// Send event to PostHog
		posthogClient.Enqueue(userID, eventName, props)
	}
}

// PosthogEvent sends a custom event for distinctID. An empty distinctID falls
// back to the authenticated user.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, distinctID, eventName string, properties map[string]any) {
	if !posthogClient.IsInitialized() {
		return
	}

	if distinctID == "" {
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}
		distinctID = userID
	}

	// Ensure properties is not nil
	if properties == nil {
		properties = make(map[string]any)
	}

	// Add request context
	properties["method"] = c.Request.Method
	properties["path"] = c.Request.URL.Path

	posthogClient.Enqueue(distinctID, eventName, properties)
}
