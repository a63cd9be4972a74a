package group_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
	"github.com/teemow/mailcampaign/internal/tools/common"
)

// membersResult is the groups_members payload.
type membersResult struct {
	Group    store.Group     `json:"group"`
	Contacts []store.Contact `json:"contacts"`
}

// RegisterGroupTools registers the group tools with the MCP server.
func RegisterGroupTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("groups_list",
		mcp.WithDescription("List contact groups with their contact counts"),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("groups_list", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListGroups(ctx, request, sc)
		}))

	membersTool := mcp.NewTool("groups_members",
		mcp.WithDescription("List the contacts that belong to a group"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Group ID"),
		),
	)
	s.AddTool(membersTool, common.InstrumentedToolHandler("groups_members", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGroupMembers(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	addTool := mcp.NewTool("groups_add",
		mcp.WithDescription("Create a contact group"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Group name"),
		),
		mcp.WithString("description",
			mcp.Description("Free-text description"),
		),
		mcp.WithString("icon",
			mcp.Description("Icon shown next to the group, usually an emoji"),
		),
	)
	s.AddTool(addTool, common.InstrumentedToolHandler("groups_add", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddGroup(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("groups_update",
		mcp.WithDescription("Update a group. Past campaigns keep the group name they were sent with."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Group ID"),
		),
		mcp.WithString("name",
			mcp.Description("New name"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("icon",
			mcp.Description("New icon"),
		),
	)
	s.AddTool(updateTool, common.InstrumentedToolHandler("groups_update", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateGroup(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("groups_delete",
		mcp.WithDescription("Delete a group and remove it from every contact. Contacts are kept."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Group ID"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("groups_delete", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteGroup(ctx, request, sc)
		}))

	resyncTool := mcp.NewTool("groups_resync",
		mcp.WithDescription("Recompute contact counts from contact memberships"),
		mcp.WithString("groupIds",
			mcp.Description("Group ID or array of group IDs (default: all groups)"),
		),
	)
	s.AddTool(resyncTool, common.InstrumentedToolHandler("groups_resync", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResyncGroups(ctx, request, sc)
		}))

	return nil
}

func handleListGroups(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	groups, err := sc.Directory().Groups(ctx)
	if err != nil {
		return common.ErrorResult("list groups", err), nil
	}
	if groups == nil {
		groups = []store.Group{}
	}
	return common.JSONResult(groups), nil
}

func handleGroupMembers(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dir := sc.Directory()
	group, err := dir.Group(ctx, id)
	if err != nil {
		return common.ErrorResult("load group", fmt.Errorf("group %s: %w", id, err)), nil
	}
	members, err := dir.ContactsOfGroup(ctx, id)
	if err != nil {
		return common.ErrorResult("list group members", err), nil
	}
	if members == nil {
		members = []store.Contact{}
	}
	return common.JSONResult(membersResult{Group: group, Contacts: members}), nil
}

func handleAddGroup(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	g, err := sc.Directory().AddGroup(ctx, store.GroupInput{
		Name:        common.String(args, "name"),
		Description: common.String(args, "description"),
		Icon:        common.String(args, "icon"),
	})
	if err != nil {
		return common.ErrorResult("add group", err), nil
	}
	return common.JSONResult(g), nil
}

func handleUpdateGroup(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, err := common.RequiredString(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	g, err := sc.Directory().UpdateGroup(ctx, id, store.GroupPatch{
		Name:        common.OptionalString(args, "name"),
		Description: common.OptionalString(args, "description"),
		Icon:        common.OptionalString(args, "icon"),
	})
	if err != nil {
		return common.ErrorResult("update group", err), nil
	}
	return common.JSONResult(g), nil
}

func handleDeleteGroup(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	removed, err := sc.Directory().DeleteGroup(ctx, id)
	if err != nil {
		return common.ErrorResult("delete group", err), nil
	}
	if !removed {
		return common.ErrorResult("delete group", fmt.Errorf("group %s: %w", id, store.ErrNotFound)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted group %s", id)), nil
}

func handleResyncGroups(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, _, err := common.StringList(request.GetArguments(), "groupIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dir := sc.Directory()
	if err := dir.Resync(ctx, ids...); err != nil {
		return common.ErrorResult("resync groups", err), nil
	}
	groups, err := dir.Groups(ctx)
	if err != nil {
		return common.ErrorResult("list groups", err), nil
	}
	return common.JSONResult(groups), nil
}
