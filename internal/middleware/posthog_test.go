package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPosthog captures enqueued events; other client methods are unused.
type recordingPosthog struct {
	posthog.Client
	captured []posthog.Capture
}

func (r *recordingPosthog) Enqueue(msg posthog.Message) error {
	if capture, ok := msg.(posthog.Capture); ok {
		r.captured = append(r.captured, capture)
	}
	return nil
}

func posthogRouter(client *recordingPosthog) *gin.Engine {
	r := gin.New()
	r.Use(middleware.PosthogMiddleware(utils.NewPosthogClientWrapper(client, slog.Default())))

	authenticated := func(status int) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("userID", "u-1")
			c.Status(status)
		}
	}
	r.GET("/api/users/me", authenticated(http.StatusOK))
	r.GET("/api/users/:id/history", authenticated(http.StatusOK))
	r.POST("/api/users/login", authenticated(http.StatusBadRequest))
	r.GET("/health", authenticated(http.StatusOK))
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestPosthogMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		event  string
	}{
		{name: "authenticated success", method: http.MethodGet, path: "/api/users/me", event: "api_users_me"},
		{name: "route params", method: http.MethodGet, path: "/api/users/42/history", event: "api_users_:id_history"},
		{name: "failed request", method: http.MethodPost, path: "/api/users/login"},
		{name: "health is skipped", method: http.MethodGet, path: "/health"},
		{name: "anonymous", method: http.MethodGet, path: "/public"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &recordingPosthog{}
			w := httptest.NewRecorder()
			posthogRouter(client).ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

			if tc.event == "" {
				assert.Empty(t, client.captured)
				return
			}
			require.Len(t, client.captured, 1)
			got := client.captured[0]
			assert.Equal(t, "u-1", got.DistinctId)
			assert.Equal(t, tc.event, got.Event)
			assert.Equal(t, tc.path, got.Properties["path"])
		})
	}
}

func TestPosthogMiddleware_Uninitialized(t *testing.T) {
	r := gin.New()
	r.Use(middleware.PosthogMiddleware(utils.InitializePosthogClient("", slog.Default())))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPosthogEvent_FallsBackToAuthenticatedUser(t *testing.T) {
	client := &recordingPosthog{}
	wrapper := utils.NewPosthogClientWrapper(client, slog.Default())

	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		c.Set("userID", "u-7")
		middleware.PosthogEvent(c, wrapper, "", utils.EventUserLoggedIn, nil)
		middleware.PosthogEvent(c, wrapper, "u-explicit", utils.EventOAuthLogin, map[string]any{"provider": "github"})
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))

	require.Len(t, client.captured, 2)
	assert.Equal(t, "u-7", client.captured[0].DistinctId)
	assert.Equal(t, utils.EventUserLoggedIn, client.captured[0].Event)
	assert.Equal(t, "u-explicit", client.captured[1].DistinctId)
	assert.Equal(t, "github", client.captured[1].Properties["provider"])
	assert.Equal(t, http.MethodPost, client.captured[1].Properties["method"])
}
