package google

import (
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL is the loopback redirect registered for desktop clients.
// The authorization code is copied from the browser's address bar.
const DefaultRedirectURL = "http://localhost"

// OAuthSettings holds the client registration.
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides google.Endpoint. Used by tests.
	Endpoint *oauth2.Endpoint
}

// NewOAuthConfig returns the OAuth2 configuration for the campaign scopes.
func NewOAuthConfig(s OAuthSettings) (*oauth2.Config, error) {
	if s.ClientID == "" {
		return nil, fmt.Errorf("google client id is not configured (set GOOGLE_CLIENT_ID or [google].client_id)")
	}
	redirect := s.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	endpoint := google.Endpoint
	if s.Endpoint != nil {
		endpoint = *s.Endpoint
	}
	scopes := make([]string, len(CampaignScopes))
	copy(scopes, CampaignScopes)
	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirect,
		Scopes:       scopes,
	}, nil
}
