package campaign_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
	"github.com/teemow/mailcampaign/internal/tools/common"
)

// sendResult is the campaigns_send payload.
type sendResult struct {
	Summary string `json:"summary"`
	*campaign.Result
}

// RegisterCampaignTools registers the campaign tools with the MCP server.
func RegisterCampaignTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("campaigns_list",
		mcp.WithDescription("List sent campaigns, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of campaigns to return (default: all)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("campaigns_list", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCampaigns(ctx, request, sc)
		}))

	statsTool := mcp.NewTool("campaigns_stats",
		mcp.WithDescription("Campaign totals: campaigns, sent, failed, drafts and recipients reached"),
	)
	s.AddTool(statsTool, common.InstrumentedToolHandler("campaigns_stats", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCampaignStats(ctx, request, sc)
		}))

	templatesTool := mcp.NewTool("campaigns_templates",
		mcp.WithDescription("List the built-in campaign templates"),
	)
	s.AddTool(templatesTool, common.InstrumentedToolHandler("campaigns_templates", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return common.JSONResult(campaign.Templates()), nil
		}))

	if readOnly {
		return nil
	}

	sendTool := mcp.NewTool("campaigns_send",
		mcp.WithDescription("Send a campaign to every contact of a group through Gmail. "+
			"'individual' sends one personalised email per contact; 'bulk' sends a single email addressed to all of them."),
		mcp.WithString("groupId",
			mcp.Required(),
			mcp.Description("Target group ID"),
		),
		mcp.WithString("title",
			mcp.Description("Subject line. Required unless templateId is given."),
		),
		mcp.WithString("message",
			mcp.Description("Message body; newlines are kept. Required unless templateId is given."),
		),
		mcp.WithString("templateId",
			mcp.Description("Built-in template ID or name that fills in a missing title or message"),
		),
		mcp.WithString("mode",
			mcp.Description("Send mode: 'individual' (default) or 'bulk'"),
			mcp.Enum(string(campaign.ModeIndividual), string(campaign.ModeBulk)),
		),
	)
	s.AddTool(sendTool, common.InstrumentedToolHandler("campaigns_send", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendCampaign(ctx, request, sc)
		}))

	sendTestTool := mcp.NewTool("campaigns_send_test",
		mcp.WithDescription("Send a preview of a campaign to one address. The subject is prefixed with [TEST] and nothing is recorded."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("title",
			mcp.Description("Subject line"),
		),
		mcp.WithString("message",
			mcp.Description("Message body"),
		),
		mcp.WithString("templateId",
			mcp.Description("Built-in template ID or name that fills in a missing title or message"),
		),
	)
	s.AddTool(sendTestTool, common.InstrumentedToolHandler("campaigns_send_test", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSendTest(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("campaigns_delete",
		mcp.WithDescription("Remove a campaign from the history"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Campaign ID"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("campaigns_delete", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteCampaign(ctx, request, sc)
		}))

	return nil
}

func handleListCampaigns(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	campaigns, err := sc.Store().ListCampaigns(ctx)
	if err != nil {
		return common.ErrorResult("list campaigns", err), nil
	}
	if limit := common.Int(request.GetArguments(), "limit", 0); limit > 0 && limit < len(campaigns) {
		campaigns = campaigns[:limit]
	}
	return common.JSONResult(campaigns), nil
}

func handleCampaignStats(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	campaigns, err := sc.Store().ListCampaigns(ctx)
	if err != nil {
		return common.ErrorResult("compute campaign stats", err), nil
	}
	return common.JSONResult(campaign.ComputeStats(campaigns)), nil
}

// composed resolves title and message, falling back to a template.
func composed(args map[string]any) (title, message string, err error) {
	title = common.String(args, "title")
	message = common.RawString(args, "message")
	id := common.String(args, "templateId")
	if id == "" {
		return title, message, nil
	}
	tmpl, ok := campaign.TemplateByID(id)
	if !ok {
		return "", "", fmt.Errorf("template %q: %w", id, store.ErrNotFound)
	}
	if title == "" {
		title = tmpl.Subject
	}
	if message == "" {
		message = tmpl.Body
	}
	return title, message, nil
}

func handleSendCampaign(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	mode, err := campaign.ParseMode(common.String(args, "mode"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, message, err := composed(args)
	if err != nil {
		return common.ErrorResult("load template", err), nil
	}

	res, err := sc.Workflow().Send(ctx, campaign.Request{
		Title:   title,
		Message: message,
		GroupID: common.String(args, "groupId"),
		Mode:    mode,
	})
	if res == nil {
		return common.ErrorResult("send campaign", err), nil
	}

	payload := common.JSONResult(sendResult{Summary: res.Summary(), Result: res})
	if err != nil {
		msg := fmt.Sprintf("%s\n%v", res.Summary(), err)
		if errors.Is(err, campaign.ErrAllFailed) {
			msg = res.Summary()
		}
		out := mcp.NewToolResultError(msg)
		out.Content = append(out.Content, payload.Content...)
		return out, nil
	}
	return payload, nil
}

func handleSendTest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	title, message, err := composed(args)
	if err != nil {
		return common.ErrorResult("load template", err), nil
	}

	to := common.String(args, "to")
	id, err := sc.Workflow().SendTest(ctx, campaign.TestRequest{To: to, Title: title, Message: message})
	if err != nil {
		return common.ErrorResult("send test email", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Test email sent to %s (message id %s)", to, id)), nil
}

func handleDeleteCampaign(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := sc.Store().DeleteCampaign(ctx, id)
	if err != nil {
		return common.ErrorResult("delete campaign", err), nil
	}
	if !removed {
		return common.ErrorResult("delete campaign", fmt.Errorf("campaign %s: %w", id, store.ErrNotFound)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted campaign %s", id)), nil
}
