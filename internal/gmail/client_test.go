package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRFC822(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want string
	}{
		{
			name: "single recipient default sender",
			msg:  &Message{To: []string{"a@example.com"}, Subject: "Hello", HTMLBody: "<p>Hi</p>"},
			want: "From: me\r\nTo: a@example.com\r\nSubject: Hello\r\nContent-Type: text/html; charset=utf-8\r\n\r\n<p>Hi</p>",
		},
		{
			name: "many recipients explicit sender",
			msg:  &Message{From: "sender@example.com", To: []string{"a@example.com", "b@example.com"}, Subject: "News", HTMLBody: "x"},
			want: "From: sender@example.com\r\nTo: a@example.com, b@example.com\r\nSubject: News\r\nContent-Type: text/html; charset=utf-8\r\n\r\nx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRFC822(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRFC822RejectsLineBreaks(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{name: "subject", msg: &Message{To: []string{"a@example.com"}, Subject: "Hello\r\nBcc: x@evil.test"}},
		{name: "bare newline", msg: &Message{To: []string{"a@example.com"}, Subject: "Hello\nBcc: x@evil.test"}},
		{name: "sender", msg: &Message{From: "me\r\nBcc: x@evil.test", To: []string{"a@example.com"}, Subject: "Hi"}},
		{name: "recipient", msg: &Message{To: []string{"a@example.com\r\nBcc: x@evil.test"}, Subject: "Hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRFC822(tt.msg)
			assert.ErrorIs(t, err, ErrHeaderInjection)
		})
	}
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "Plain subject", encodeRFC2047("Plain subject"))
	encoded := encodeRFC2047("Réunion 🎉")
	assert.True(t, strings.HasPrefix(encoded, "=?UTF-8?b?"), encoded)
}

func TestEncodeRawIsUnpaddedURLSafe(t *testing.T) {
	// Lengths chosen so standard encoding would need padding and produce + and /.
	msg := &Message{To: []string{"a@example.com"}, Subject: "??>>", HTMLBody: "<b>~~~??</b>"}
	raw, err := EncodeRaw(msg)
	require.NoError(t, err)

	assert.NotContains(t, raw, "=")
	assert.NotContains(t, raw, "+")
	assert.NotContains(t, raw, "/")

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	want, err := BuildRFC822(msg)
	require.NoError(t, err)
	assert.Equal(t, want, string(decoded))
}

type capturedSend struct {
	mu    sync.Mutex
	auth  string
	raw   string
	calls int
}

func fakeGmail(t *testing.T, status int) (*httptest.Server, *capturedSend) {
	t.Helper()
	got := &capturedSend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/gmail/v1/users/me/messages/send") {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got.mu.Lock()
		got.auth = r.Header.Get("Authorization")
		got.raw = body.Raw
		got.calls++
		got.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"quota exceeded"}}`, status)
			return
		}
		_, _ = io.WriteString(w, `{"id":"msg-123","threadId":"thr-1"}`)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestSendPostsParsableMessage(t *testing.T) {
	srv, sent := fakeGmail(t, http.StatusOK)
	c := NewClient(Options{Endpoint: srv.URL + "/"})

	id, err := c.Send(context.Background(), "tok-1", &Message{
		To:       []string{"alice@example.com", "bob@example.com"},
		Subject:  "Café news",
		HTMLBody: "<h2>News</h2><p>Hello</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	assert.Equal(t, 1, sent.calls)
	assert.Equal(t, "Bearer tok-1", sent.auth)

	decoded, err := base64.RawURLEncoding.DecodeString(sent.raw)
	require.NoError(t, err)

	mr, err := mail.CreateReader(strings.NewReader(string(decoded)))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Café news", subject)
	assert.Equal(t, "me", mr.Header.Get("From"))

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 2)
	assert.Equal(t, "alice@example.com", to[0].Address)
	assert.Equal(t, "bob@example.com", to[1].Address)

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Equal(t, "<h2>News</h2><p>Hello</p>", string(body))
}

func TestSendReturnsTransportError(t *testing.T) {
	srv, sent := fakeGmail(t, http.StatusForbidden)
	c := NewClient(Options{Endpoint: srv.URL + "/"})

	_, err := c.Send(context.Background(), "tok", &Message{To: []string{"a@example.com"}, Subject: "s", HTMLBody: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
	assert.Equal(t, 1, sent.calls, "no retry on failure")
}

func TestSendValidatesInput(t *testing.T) {
	c := NewClient(Options{Endpoint: "http://127.0.0.1:0/"})
	ctx := context.Background()

	_, err := c.Send(ctx, "", &Message{To: []string{"a@example.com"}})
	assert.Error(t, err)

	_, err = c.Send(ctx, "tok", &Message{})
	assert.Error(t, err)

	_, err = c.Send(ctx, "tok", nil)
	assert.Error(t, err)
}

func TestSendRefusesHeaderLineBreaks(t *testing.T) {
	srv, sent := fakeGmail(t, http.StatusOK)
	c := NewClient(Options{Endpoint: srv.URL + "/"})

	_, err := c.Send(context.Background(), "tok", &Message{
		To:      []string{"ann@example.com"},
		Subject: "Hello\r\nBcc: attacker@evil.test",
	})
	require.ErrorIs(t, err, ErrHeaderInjection)
	assert.Equal(t, 0, sent.calls)
}
