package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// fakeProviderServer serves a token endpoint plus the given JSON routes.
func fakeProviderServer(t *testing.T, tokenExtra map[string]any, routes map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"access_token": "provider-access", "token_type": "bearer"}
		for k, v := range tokenExtra {
			body[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	for path, payload := range routes {
		payload := payload
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer provider-access", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(payload)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestNewProviders_RequireCredentials(t *testing.T) {
	_, err := NewGoogleProvider("", "secret", "http://cb")
	assert.Error(t, err)
	_, err = NewGitHubProvider("id", "", "http://cb")
	assert.Error(t, err)
}

func TestGoogleProvider_AuthCodeURLCarriesState(t *testing.T) {
	p, err := NewGoogleProvider("client", "secret", "http://localhost:5000/auth/google/callback")
	require.NoError(t, err)

	url := p.AuthCodeURL("state-123")
	assert.Contains(t, url, "state=state-123")
	assert.Contains(t, url, "client_id=client")
	assert.Equal(t, domain.ProviderGoogle, p.Name())
}

func TestGoogleProvider_ExchangeUsesUserInfo(t *testing.T) {
	srv := fakeProviderServer(t, nil, map[string]any{
		"/userinfo": map[string]any{"sub": "g-1", "email": "jane@example.com", "email_verified": true, "name": "Jane", "picture": "https://img/j.png"},
	})
	p, err := NewGoogleProvider("client", "secret", "http://cb")
	require.NoError(t, err)
	p.oauth2Config.Endpoint = testEndpoint(srv)
	p.userInfoURL = srv.URL + "/userinfo"

	profile, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)

	identity := profile.Canonical()
	assert.Equal(t, "g-1", identity.ProviderUserID)
	assert.Equal(t, "jane@example.com", identity.Email)
	assert.Equal(t, "Jane", identity.DisplayName)
}

func TestGoogleProvider_ExchangeVerifiesIDToken(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{"id_token": "signed-id-token"}, nil)
	p, err := NewGoogleProvider("client", "secret", "http://cb")
	require.NoError(t, err)
	p.oauth2Config.Endpoint = testEndpoint(srv)
	p.validateToken = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "signed-id-token", token)
		assert.Equal(t, "client", audience)
		return &idtoken.Payload{Subject: "g-2", Claims: map[string]any{"email": "Id@Example.com", "name": "Id User"}}, nil
	}

	profile, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "id@example.com", profile.Canonical().Email)

	p.validateToken = func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("idtoken: token expired")
	}
	_, err = p.Exchange(context.Background(), "code")
	assert.Error(t, err)
}

func TestGitHubProvider_ExchangeFallsBackToEmails(t *testing.T) {
	srv := fakeProviderServer(t, nil, map[string]any{
		"/user": map[string]any{"id": 42, "login": "octocat", "name": "", "email": "", "avatar_url": "https://img/o.png"},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		},
	})
	p, err := NewGitHubProvider("client", "secret", "http://cb")
	require.NoError(t, err)
	p.oauth2Config.Endpoint = testEndpoint(srv)
	p.apiBase = srv.URL

	profile, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)

	identity := profile.Canonical()
	assert.Equal(t, domain.ProviderGitHub, identity.Provider)
	assert.Equal(t, "42", identity.ProviderUserID)
	assert.Equal(t, "octo@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "octocat", identity.DisplayName)
}

func TestPickEmail(t *testing.T) {
	assert.Equal(t, "", pickEmail(nil))
	assert.Equal(t, "", pickEmail([]githubEmail{{Email: "x@example.com", Primary: true}}))
	assert.Equal(t, "v@example.com", pickEmail([]githubEmail{
		{Email: "x@example.com", Primary: true},
		{Email: "v@example.com", Verified: true},
	}))
}
