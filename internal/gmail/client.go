package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/logging"
)

// DefaultFrom lets Gmail fill in the authenticated sender.
const DefaultFrom = "me"

// Message is one outgoing email.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	// From defaults to DefaultFrom.
	From string
}

// Options configures a Client.
type Options struct {
	// Endpoint overrides the Gmail API base URL (tests, proxies).
	Endpoint string
	// HTTPClient is the base transport; the bearer token is layered on top.
	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// Client performs authenticated Gmail sends.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewClient returns a Client. It holds no credentials; every Send carries
// its own token.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Send delivers msg using the bearer token and returns the Gmail message id.
func (c *Client) Send(ctx context.Context, token string, msg *Message) (string, error) {
	if token == "" {
		return "", errors.New("access token is required")
	}
	if msg == nil || len(msg.To) == 0 {
		return "", errors.New("at least one recipient is required")
	}
	if err := msg.checkHeaders(); err != nil {
		return "", err
	}

	ctx, span := instrumentation.StartDispatchSpan(ctx, len(msg.To))
	defer span.End()
	start := time.Now()

	id, err := c.send(ctx, token, msg)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordMailDispatch(ctx, status, time.Since(start))
	c.logger.Debug("gmail send", logging.Operation("gmail.send"), logging.Status(status),
		slog.Int("recipients", len(msg.To)), slog.Duration(logging.KeyDuration, time.Since(start)), logging.Err(err))
	return id, err
}

func (c *Client) send(ctx context.Context, token string, msg *Message) (string, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	httpCtx := ctx
	if c.httpClient != nil {
		httpCtx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(httpCtx, ts))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create gmail service: %w", err)
	}

	raw, err := EncodeRaw(msg)
	if err != nil {
		return "", err
	}
	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// ErrHeaderInjection is returned when a header value contains CR or LF.
var ErrHeaderInjection = errors.New("header value must not contain line breaks")

func (m *Message) checkHeaders() error {
	fields := append([]string{m.From, m.Subject}, m.To...)
	for _, v := range fields {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("%w: %q", ErrHeaderInjection, v)
		}
	}
	return nil
}

// BuildRFC822 renders msg as CRLF-separated headers, a blank line and the
// HTML body.
func BuildRFC822(msg *Message) (string, error) {
	if err := msg.checkHeaders(); err != nil {
		return "", err
	}
	from := msg.From
	if from == "" {
		from = DefaultFrom
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(msg.Subject) + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return b.String(), nil
}

// EncodeRaw returns the Gmail "raw" field for msg: URL-safe base64 without
// padding.
func EncodeRaw(msg *Message) (string, error) {
	rfc822, err := BuildRFC822(msg)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString([]byte(rfc822)), nil
}

// encodeRFC2047 encodes a header value with non-ASCII characters (accents,
// emoji) as an RFC 2047 encoded-word. ASCII input is returned unchanged.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
