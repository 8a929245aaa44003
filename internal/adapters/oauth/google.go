package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// idTokenValidator matches idtoken.Validate.
type idTokenValidator func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

// GoogleProvider signs users in with Google. The ID token returned by the code
// exchange is verified when present; otherwise the userinfo endpoint is used.
type GoogleProvider struct {
	oauth2Config  *oauth2.Config
	userInfoURL   string
	validateToken idTokenValidator
}

// NewGoogleProvider creates a Google provider for the given client credentials.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL:   googleUserInfoURL,
		validateToken: idtoken.Validate,
	}, nil
}

func (p *GoogleProvider) Name() domain.AuthProvider {
	return domain.ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and reads the user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (domain.OAuthProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		payload, err := p.validateToken(ctx, rawIDToken, p.oauth2Config.ClientID)
		if err != nil {
			return nil, fmt.Errorf("google ID token validation failed: %w", err)
		}
		return profileFromPayload(payload)
	}

	return p.userInfo(ctx, token)
}

func (p *GoogleProvider) userInfo(ctx context.Context, token *oauth2.Token) (domain.OAuthProfile, error) {
	client := p.oauth2Config.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info from google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned non-200 status for userinfo: %s", resp.Status)
	}

	var profile domain.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user info from google: %w", err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, errors.New("google userinfo missing required fields")
	}
	return profile, nil
}

func profileFromPayload(payload *idtoken.Payload) (domain.OAuthProfile, error) {
	profile := domain.GoogleProfile{Subject: payload.Subject}
	profile.Email, _ = payload.Claims["email"].(string)
	profile.EmailVerified, _ = payload.Claims["email_verified"].(bool)
	profile.Name, _ = payload.Claims["name"].(string)
	profile.Picture, _ = payload.Claims["picture"].(string)
	if profile.Subject == "" || profile.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}
	return profile, nil
}
