package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// GitHubProvider signs users in with GitHub.
type GitHubProvider struct {
	oauth2Config *oauth2.Config
	apiBase      string
}

// NewGitHubProvider creates a GitHub provider for the given client credentials.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) (*GitHubProvider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}
	return &GitHubProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPIBase,
	}, nil
}

func (p *GitHubProvider) Name() domain.AuthProvider {
	return domain.ProviderGitHub
}

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange trades code for a token and reads /user, falling back to
// /user/emails when the public profile has no email.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (domain.OAuthProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}
	client := p.oauth2Config.Client(ctx, token)

	var profile domain.GitHubProfile
	if err := p.getJSON(ctx, client, "/user", &profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 || profile.Login == "" {
		return nil, errors.New("github profile missing required fields")
	}

	// GitHub only lets verified addresses be made public.
	profile.EmailVerified = profile.Email != ""
	if profile.Email == "" {
		var emails []githubEmail
		if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return nil, err
		}
		profile.Email = pickEmail(emails)
		profile.EmailVerified = profile.Email != ""
	}
	return profile, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned non-200 status for %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github %s: %w", path, err)
	}
	return nil
}

// pickEmail prefers the primary verified address, then any verified one.
// An empty result leaves the noreply placeholder to the profile mapping.
func pickEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
