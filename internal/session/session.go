// Package session holds the signed-in user's OAuth token and email address.
//
// Both values are persisted in the shared key-value store so a login survives
// restarts until Logout. A Holder is safe for concurrent use.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/mailcampaign/internal/google"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

// Persisted keys.
const (
	KeyAccessToken = "gmail_access_token"
	KeyUserEmail   = "user_email"
)

var (
	// ErrNotAuthenticated is returned when no usable token is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotConfigured is returned by login operations without OAuth client settings.
	ErrNotConfigured = errors.New("oauth client is not configured")
)

// Recorder receives one event per login attempt.
type Recorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
}

// Profile is the identity view exposed to callers.
type Profile struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

// Holder owns the current session.
type Holder struct {
	kv       store.KV
	oauth    *oauth2.Config
	identity google.IdentityFetcher
	logger   *slog.Logger
	recorder Recorder

	mu    sync.RWMutex
	token *oauth2.Token
	email string
}

// Option configures a Holder.
type Option func(*Holder)

// WithOAuthConfig enables LoginURL, Login and token refresh.
func WithOAuthConfig(conf *oauth2.Config) Option {
	return func(h *Holder) { h.oauth = conf }
}

// WithIdentityFetcher overrides the userinfo lookup.
func WithIdentityFetcher(f google.IdentityFetcher) Option {
	return func(h *Holder) { h.identity = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Holder) { h.logger = l }
}

// WithRecorder attaches a login recorder (metrics).
func WithRecorder(r Recorder) Option {
	return func(h *Holder) { h.recorder = r }
}

// New restores any persisted session from kv.
func New(ctx context.Context, kv store.KV, opts ...Option) (*Holder, error) {
	h := &Holder{
		kv:       kv,
		identity: google.UserinfoFetcher{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	raw, found, err := kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	if found && raw != "" {
		h.token = decodeToken(raw)
	}
	email, found, err := kv.Get(ctx, KeyUserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load session identity: %w", err)
	}
	if found {
		h.email = email
	}
	return h, nil
}

// decodeToken accepts a JSON oauth2.Token or a bare access token string.
func decodeToken(raw string) *oauth2.Token {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var tok oauth2.Token
		if err := json.Unmarshal([]byte(trimmed), &tok); err == nil && tok.AccessToken != "" {
			return &tok
		}
	}
	return &oauth2.Token{AccessToken: trimmed, TokenType: "Bearer"}
}

// IsAuthenticated reports whether a token is held.
func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != nil
}

// UserEmail returns the resolved identity, or "" when unknown.
func (h *Holder) UserEmail() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.email
}

// Profile returns the current identity view.
func (h *Holder) Profile() Profile {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Profile{Authenticated: h.token != nil, Email: h.email}
}

// AccessToken returns a bearer token usable for Gmail calls. An expired token
// with a refresh token is refreshed and persisted.
func (h *Holder) AccessToken(ctx context.Context) (string, error) {
	h.mu.RLock()
	tok := h.token
	h.mu.RUnlock()

	if tok == nil {
		return "", ErrNotAuthenticated
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" || h.oauth == nil {
		return "", fmt.Errorf("%w: access token expired", ErrNotAuthenticated)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Another caller may have refreshed while we waited.
	if h.token != nil && h.token.Valid() {
		return h.token.AccessToken, nil
	}
	fresh, err := h.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return "", fmt.Errorf("%w: token refresh failed: %v", ErrNotAuthenticated, err)
	}
	if err := h.persistToken(ctx, fresh); err != nil {
		return "", err
	}
	h.token = fresh
	h.logger.Debug("access token refreshed", logging.Operation("session.refresh"),
		slog.String("token", logging.SanitizeToken(fresh.AccessToken)))
	return fresh.AccessToken, nil
}

// LoginURL returns the consent page URL for the given anti-forgery state.
func (h *Holder) LoginURL(state string) (string, error) {
	if h.oauth == nil {
		return "", ErrNotConfigured
	}
	return h.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Login exchanges an authorization code and completes the login.
func (h *Holder) Login(ctx context.Context, code string) (Profile, error) {
	if h.oauth == nil {
		return Profile{}, ErrNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Profile{}, fmt.Errorf("authorization code is required")
	}
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.record(ctx, logging.StatusError)
		return Profile{}, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return h.CompleteLogin(ctx, tok)
}

// CompleteLogin stores tok and then tries to resolve the user's email. A
// failed identity lookup is logged and does not fail the login.
func (h *Holder) CompleteLogin(ctx context.Context, tok *oauth2.Token) (Profile, error) {
	if tok == nil || tok.AccessToken == "" {
		h.record(ctx, logging.StatusError)
		return Profile{}, fmt.Errorf("token response carries no access token")
	}

	h.mu.Lock()
	if err := h.persistToken(ctx, tok); err != nil {
		h.mu.Unlock()
		h.record(ctx, logging.StatusError)
		return Profile{}, err
	}
	h.token = tok
	h.email = ""
	if err := h.kv.Delete(ctx, KeyUserEmail); err != nil {
		h.logger.Warn("failed to clear previous identity", logging.Operation("session.login"), logging.Err(err))
	}
	h.mu.Unlock()
	h.record(ctx, logging.StatusSuccess)

	email, err := h.identity.FetchEmail(ctx, tok)
	if err != nil {
		h.logger.Warn("failed to resolve user identity", logging.Operation("session.login"), logging.Err(err))
		return h.Profile(), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.kv.Set(ctx, KeyUserEmail, email); err != nil {
		h.logger.Warn("failed to persist user identity", logging.Operation("session.login"), logging.Err(err))
	}
	h.email = email
	h.logger.Info("signed in", logging.Operation("session.login"), logging.UserHash(email))
	return Profile{Authenticated: true, Email: email}, nil
}

// Logout forgets the token and identity, in memory and in the store.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = nil
	h.email = ""

	var errs []error
	if err := h.kv.Delete(ctx, KeyAccessToken); err != nil {
		errs = append(errs, err)
	}
	if err := h.kv.Delete(ctx, KeyUserEmail); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	h.logger.Info("signed out", logging.Operation("session.logout"))
	return nil
}

// persistToken writes tok to the store. Caller holds h.mu.
func (h *Holder) persistToken(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := h.kv.Set(ctx, KeyAccessToken, string(data)); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

func (h *Holder) record(ctx context.Context, result string) {
	if h.recorder != nil {
		h.recorder.RecordOAuthAuth(ctx, result)
	}
}
