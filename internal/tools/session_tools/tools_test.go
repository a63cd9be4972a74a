package session_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/session"
	"github.com/teemow/mailcampaign/internal/store"
)

func TestAuthStatus(t *testing.T) {
	tests := []struct {
		name     string
		seed     map[string]string
		clientID string
		want     status
	}{
		{
			name: "signed out without client",
			want: status{Campaign: campaign.StatusIdle, Hint: "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, then run 'mailcampaign auth login'."},
		},
		{
			name:     "signed out with client",
			clientID: "client-id",
			want:     status{LoginAvailable: true, Campaign: campaign.StatusIdle, Hint: "Call auth_login_url, or run 'mailcampaign auth login', to sign in."},
		},
		{
			name: "signed in",
			seed: map[string]string{session.KeyAccessToken: "tok", session.KeyUserEmail: "me@example.com"},
			want: status{Authenticated: true, Email: "me@example.com", Campaign: campaign.StatusIdle},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemoryKV()
			for k, v := range tt.seed {
				require.NoError(t, kv.Set(context.Background(), k, v))
			}
			cfg := config.Default()
			cfg.Google.ClientID = tt.clientID
			cfg.Google.ClientSecret = "secret"
			sc, err := server.NewServerContext(context.Background(), cfg, server.Options{KV: kv})
			require.NoError(t, err)
			defer func() { _ = sc.Shutdown() }()

			s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterSessionTools(s, sc, true))
			require.Contains(t, s.ListTools(), "auth_status")

			res, err := handleAuthStatus(context.Background(), mcp.CallToolRequest{}, sc)
			require.NoError(t, err)
			tc, ok := res.Content[0].(mcp.TextContent)
			require.True(t, ok)

			var got status
			require.NoError(t, json.Unmarshal([]byte(tc.Text), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func newSessionContext(t *testing.T, clientID string) *server.ServerContext {
	t.Helper()
	cfg := config.Default()
	cfg.Google.ClientID = clientID
	cfg.Google.ClientSecret = "secret"
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), session.KeyAccessToken, "tok-1"))
	sc, err := server.NewServerContext(context.Background(), cfg, server.Options{KV: kv})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestRegisterSessionTools(t *testing.T) {
	sc := newSessionContext(t, "")

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterSessionTools(s, sc, true))
	assert.Len(t, s.ListTools(), 3)
	assert.NotContains(t, s.ListTools(), "auth_logout")

	s = mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterSessionTools(s, sc, false))
	assert.Contains(t, s.ListTools(), "auth_logout")
}

func TestLoginURL(t *testing.T) {
	res, err := handleLoginURL(context.Background(), mcp.CallToolRequest{}, newSessionContext(t, "client-id"))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	assert.Contains(t, text, "https://accounts.google.com/")
	assert.Contains(t, text, "client_id=client-id")
	assert.Contains(t, text, "auth_login")

	res, err = handleLoginURL(context.Background(), mcp.CallToolRequest{}, newSessionContext(t, ""))
	require.NoError(t, err)
	require.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "GOOGLE_CLIENT_ID")
}

func TestLoginRequiresCode(t *testing.T) {
	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"code": "  "}
	res, err := handleLogin(context.Background(), req, newSessionContext(t, "client-id"))
	require.NoError(t, err)
	require.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "code is required")
}

func TestAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare", input: " 4/abc ", want: "4/abc"},
		{name: "redirect url", input: "http://localhost:8080/callback?code=4%2Fabc&state=x", want: "4/abc"},
		{name: "denied", input: "http://localhost:8080/callback?error=access_denied", wantErr: true},
		{name: "no code", input: "http://localhost:8080/callback", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authCode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogout(t *testing.T) {
	sc := newSessionContext(t, "")
	require.True(t, sc.Session().IsAuthenticated())

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterSessionTools(s, sc, false))
	tool := s.ListTools()["auth_logout"]
	require.NotNil(t, tool)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.False(t, sc.Session().IsAuthenticated())
}
