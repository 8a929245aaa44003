package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portssvc "github.com/SscSPs/cyberlearn_backend/internal/core/ports/services"
	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/SscSPs/cyberlearn_backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const oauthStateBytes = 16

// oauthHandler drives the browser side of the provider redirect flow.
type oauthHandler struct {
	oauth     portssvc.OAuthSvc
	clientURL string
	cookies   sessionCookies
	posthog   *utils.PosthogClientWrapper
}

func newOAuthHandler(oauth portssvc.OAuthSvc, clientURL string, cookies sessionCookies, posthogClient *utils.PosthogClientWrapper) *oauthHandler {
	return &oauthHandler{
		oauth:     oauth,
		clientURL: clientURL,
		cookies:   cookies,
		posthog:   posthogClient,
	}
}

func callbackPath(provider domain.AuthProvider) string {
	return "/auth/" + string(provider) + "/callback"
}

// begin godoc
// @Summary Start an OAuth login
// @Description Redirects the browser to the provider consent page.
// @Tags oauth
// @Param provider path string true "google or github"
// @Success 302
// @Failure 404 {object} dto.ErrorResponse "Provider not configured"
// @Router /auth/{provider} [get]
func (h *oauthHandler) begin(provider domain.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := utils.GenerateSecureRandomString(oauthStateBytes)
		if err != nil {
			_ = c.Error(err)
			return
		}

		consentURL, err := h.oauth.AuthCodeURL(provider, state)
		if err != nil {
			_ = c.Error(err)
			return
		}

		h.cookies.setState(c, callbackPath(provider), state)
		c.Redirect(http.StatusFound, consentURL)
	}
}

// callback godoc
// @Summary Finish an OAuth login
// @Description Exchanges the code, links or creates the account, sets the accessToken cookie and redirects to the client.
// @Tags oauth
// @Param provider path string true "google or github"
// @Param code query string true "Authorization code"
// @Param state query string true "CSRF state"
// @Success 302
// @Router /auth/{provider}/callback [get]
func (h *oauthHandler) callback(provider domain.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("provider", string(provider)))

		expectedState, cookieErr := c.Cookie(oauthStateCookie)
		h.cookies.clearState(c, callbackPath(provider))

		if providerErr := c.Query("error"); providerErr != "" {
			logger.Warn("Provider denied authorization", slog.String("error", providerErr))
			h.fail(c, provider)
			return
		}

		state := c.Query("state")
		if cookieErr != nil || expectedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
			logger.Warn("OAuth state mismatch")
			h.fail(c, provider)
			return
		}

		code := c.Query("code")
		if code == "" {
			logger.Warn("OAuth callback without code")
			h.fail(c, provider)
			return
		}

		result, err := h.oauth.CompleteLogin(c.Request.Context(), provider, code, loginRecord(c))
		if err != nil {
			logger.Error("OAuth login failed", slog.String("error", err.Error()))
			h.fail(c, provider)
			return
		}

		h.cookies.set(c, result.AccessToken)
		middleware.PosthogEvent(c, h.posthog, result.User.UserID, utils.EventOAuthLogin, map[string]any{
			"auth_provider": string(provider),
		})
		logger.Info("OAuth login succeeded", slog.String("user_id", result.User.UserID))
		c.Redirect(http.StatusFound, h.clientURL+"/oauth-success")
	}
}

func (h *oauthHandler) fail(c *gin.Context, provider domain.AuthProvider) {
	c.Redirect(http.StatusFound, h.clientURL+"/login?error="+url.QueryEscape(string(provider)+"_auth_failed"))
}
