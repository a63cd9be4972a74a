package google

import "context"

// TokenProvider supplies a bearer token for Gmail calls. It is implemented by
// *session.Holder and returns an error when nobody is signed in.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	IsAuthenticated() bool
}
