package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/directory"
	"github.com/teemow/mailcampaign/internal/session"
	"github.com/teemow/mailcampaign/internal/store"
)

// JSONResult renders v as an indented JSON text result.
func JSONResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(out))
}

// ErrorResult turns an error into a tool error with a hint for the
// recoverable cases.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	var hint string
	switch {
	case errors.Is(err, campaign.ErrNotAuthenticated):
		hint = "Not signed in to Gmail. Run 'mailcampaign auth login' first."
	case errors.Is(err, session.ErrNotConfigured):
		hint = "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, then restart the server."
	case errors.Is(err, store.ErrCorrupt):
		hint = "Stored data could not be read. Inspect it or run 'mailcampaign store reset <collection>'."
	case errors.Is(err, store.ErrNotFound):
		hint = "Check the id with the matching list tool."
	case errors.Is(err, directory.ErrValidation):
		hint = "Fix the highlighted fields and retry."
	case errors.Is(err, campaign.ErrNoRecipients):
		hint = "Add contacts to the group first."
	}
	msg := fmt.Sprintf("Failed to %s: %v", action, err)
	if hint != "" {
		msg += "\n" + hint
	}
	return mcp.NewToolResultError(msg)
}
