package session_tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/google/uuid"

	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/tools/common"
)

// status is the auth_status payload.
type status struct {
	Authenticated  bool            `json:"authenticated"`
	Email          string          `json:"email,omitempty"`
	LoginAvailable bool            `json:"loginAvailable"`
	Campaign       campaign.Status `json:"campaignStatus"`
	Hint           string          `json:"hint,omitempty"`
}

// RegisterSessionTools registers the sign-in tools. auth_logout needs write
// mode; the others stay available read-only so an assistant can sign in.
func RegisterSessionTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	statusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Report whether a Gmail account is signed in, which one, and the state of the last campaign send"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("auth_status", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	loginURLTool := mcp.NewTool("auth_login_url",
		mcp.WithDescription("Get the Google consent URL for signing in the Gmail account campaigns are sent from"),
	)
	s.AddTool(loginURLTool, common.InstrumentedToolHandler("auth_login_url", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLoginURL(ctx, request, sc)
		}))

	loginTool := mcp.NewTool("auth_login",
		mcp.WithDescription("Complete the sign-in with the authorization code, or the whole redirect URL, from the consent page"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Authorization code or redirect URL"),
		),
	)
	s.AddTool(loginTool, common.InstrumentedToolHandler("auth_login", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogin(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	logoutTool := mcp.NewTool("auth_logout",
		mcp.WithDescription("Sign out and forget the stored Gmail token"),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandler("auth_logout", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := sc.Session().Logout(ctx); err != nil {
				return common.ErrorResult("sign out", err), nil
			}
			return mcp.NewToolResultText("Signed out."), nil
		}))

	return nil
}

func handleAuthStatus(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	profile := sc.Session().Profile()
	out := status{
		Authenticated:  profile.Authenticated,
		Email:          profile.Email,
		LoginAvailable: sc.Config().Google.ClientID != "",
		Campaign:       sc.Workflow().Tracker().Status(),
	}
	switch {
	case !out.Authenticated && out.LoginAvailable:
		out.Hint = "Call auth_login_url, or run 'mailcampaign auth login', to sign in."
	case !out.Authenticated:
		out.Hint = "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, then run 'mailcampaign auth login'."
	}
	return common.JSONResult(out), nil
}

func handleLoginURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	loginURL, err := sc.Session().LoginURL(uuid.NewString())
	if err != nil {
		return common.ErrorResult("build the login URL", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(`To sign in the Gmail account campaigns are sent from:

1. Visit this URL in your browser:
   %s

2. Sign in and grant access
3. Copy the authorization code, or the whole address of the page you are redirected to

4. Call the auth_login tool with it`, loginURL)), nil
}

func handleLogin(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	code, err := authCode(common.RawString(request.GetArguments(), "code"))
	if err != nil {
		return common.ErrorResult("sign in", err), nil
	}
	profile, err := sc.Session().Login(ctx, code)
	if err != nil {
		return common.ErrorResult("sign in", err), nil
	}
	if profile.Email == "" {
		return mcp.NewToolResultText("Signed in."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Signed in as %s.", profile.Email)), nil
}

// authCode extracts the code from a redirect URL; anything else is taken as
// the code itself.
func authCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("code is required")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if e := u.Query().Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}
