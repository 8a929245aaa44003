package handlers

import (
	"net/http"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

const (
	oauthStateCookie = "oauthState"
	oauthStateMaxAge = 10 * time.Minute
)

// sessionCookies writes the accessToken cookie with one set of attributes so
// that logout clears exactly what login set.
type sessionCookies struct {
	maxAge time.Duration
	secure bool
}

func newSessionCookies(maxAge time.Duration, secure bool) sessionCookies {
	return sessionCookies{maxAge: maxAge, secure: secure}
}

func (s sessionCookies) set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, token, int(s.maxAge.Seconds()), "/", "", s.secure, true)
}

func (s sessionCookies) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", s.secure, true)
}

// The state cookie must survive the top-level redirect back from the
// provider, which SameSite=Strict would drop.
func (s sessionCookies) setState(c *gin.Context, path, state string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int(oauthStateMaxAge.Seconds()), path, "", s.secure, true)
}

func (s sessionCookies) clearState(c *gin.Context, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, path, "", s.secure, true)
}
