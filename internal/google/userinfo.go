package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// IdentityFetcher resolves the email address behind an access token.
type IdentityFetcher interface {
	FetchEmail(ctx context.Context, token *oauth2.Token) (string, error)
}

// UserinfoFetcher calls the oauth2/v2 userinfo endpoint.
type UserinfoFetcher struct {
	// Endpoint overrides the API base URL. Used by tests.
	Endpoint string
}

// FetchEmail returns the verified email of the token's owner.
func (f UserinfoFetcher) FetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}
	if f.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.Endpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("user info carries no email address")
	}
	return info.Email, nil
}
