package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
)

// Resource URIs.
const (
	HistoryURI = "campaigns://history"
	ProfileURI = "session://profile"
)

type history struct {
	Stats     campaign.Stats   `json:"stats"`
	Campaigns []store.Campaign `json:"campaigns"`
}

// RegisterResources registers the campaign history and session profile
// resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	historyResource := mcp.NewResource(
		HistoryURI,
		"Campaign History",
		mcp.WithResourceDescription("Every sent campaign, newest first, with aggregate totals"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(historyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleHistory(ctx, request, sc)
	})

	profileResource := mcp.NewResource(
		ProfileURI,
		"Session Profile",
		mcp.WithResourceDescription("Whether a Gmail account is signed in and its address"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProfile(ctx, request, sc)
	})

	return nil
}

func handleHistory(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	campaigns, err := sc.Store().ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign history: %w", err)
	}
	return jsonContents(request.Params.URI, history{
		Stats:     campaign.ComputeStats(campaigns),
		Campaigns: campaigns,
	})
}

func handleProfile(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.Session().Profile())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
