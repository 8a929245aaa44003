package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// OAuthIdentity is the provider-neutral shape every external profile is mapped into
// before the local account is resolved.
type OAuthIdentity struct {
	Provider       AuthProvider
	ProviderUserID string
	Email          string
	EmailVerified  bool
	DisplayName    string
	AvatarURL      string
}

// OAuthProfile is implemented by each provider-specific profile.
type OAuthProfile interface {
	Canonical() OAuthIdentity
}

// GoogleProfile holds the claims read from a verified Google ID token or the
// userinfo endpoint.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p GoogleProfile) Canonical() OAuthIdentity {
	name := p.Name
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	return OAuthIdentity{
		Provider:       ProviderGoogle,
		ProviderUserID: p.Subject,
		Email:          strings.ToLower(strings.TrimSpace(p.Email)),
		EmailVerified:  p.EmailVerified,
		DisplayName:    name,
		AvatarURL:      p.Picture,
	}
}

// GitHubProfile is the subset of the GitHub /user response we use. Email is
// filled from /user/emails when the public profile withholds it.
// EmailVerified is set by the adapter from what GitHub reported.
type GitHubProfile struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"-"`
	AvatarURL     string `json:"avatar_url"`
}

func (p GitHubProfile) Canonical() OAuthIdentity {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	verified := p.EmailVerified
	if email == "" {
		// The noreply address is issued by GitHub for the authenticated login.
		email = fmt.Sprintf("%s@users.noreply.github.com", strings.ToLower(p.Login))
		verified = true
	}
	name := p.Name
	if name == "" {
		name = p.Login
	}
	return OAuthIdentity{
		Provider:       ProviderGitHub,
		ProviderUserID: strconv.FormatInt(p.ID, 10),
		Email:          email,
		EmailVerified:  verified,
		DisplayName:    name,
		AvatarURL:      p.AvatarURL,
	}
}
