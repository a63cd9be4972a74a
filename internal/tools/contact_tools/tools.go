package contact_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
	"github.com/teemow/mailcampaign/internal/tools/batch"
	"github.com/teemow/mailcampaign/internal/tools/common"
)

// RegisterContactTools registers the contact tools with the MCP server.
func RegisterContactTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTool := mcp.NewTool("contacts_list",
		mcp.WithDescription("List contacts. Filters by name/email substring and by group when given."),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text matched against name and email"),
		),
		mcp.WithString("groupId",
			mcp.Description("Only return members of this group"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("contacts_list", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListContacts(ctx, request, sc)
		}))

	exportTool := mcp.NewTool("contacts_export",
		mcp.WithDescription("Export all contacts as CSV with the columns Name,Email,Phone,Groups"),
	)
	s.AddTool(exportTool, common.InstrumentedToolHandler("contacts_export", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleExportContacts(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	addTool := mcp.NewTool("contacts_add",
		mcp.WithDescription("Add a contact"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name"),
		),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address"),
		),
		mcp.WithString("phone",
			mcp.Description("Phone number"),
		),
		mcp.WithString("groupIds",
			mcp.Description("Group ID or array of group IDs (comma-separated also accepted)"),
		),
	)
	s.AddTool(addTool, common.InstrumentedToolHandler("contacts_add", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddContact(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("contacts_update",
		mcp.WithDescription("Update a contact. Only the given fields change; an empty groupIds clears all memberships."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Contact ID"),
		),
		mcp.WithString("name",
			mcp.Description("New display name"),
		),
		mcp.WithString("email",
			mcp.Description("New email address"),
		),
		mcp.WithString("phone",
			mcp.Description("New phone number"),
		),
		mcp.WithString("groupIds",
			mcp.Description("Replacement group ID list"),
		),
	)
	s.AddTool(updateTool, common.InstrumentedToolHandler("contacts_update", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateContact(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("contacts_delete",
		mcp.WithDescription("Delete one or more contacts"),
		mcp.WithString("contactIds",
			mcp.Required(),
			mcp.Description("Contact ID (string) or array of contact IDs to delete"),
		),
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler("contacts_delete", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteContacts(ctx, request, sc)
		}))

	importTool := mcp.NewTool("contacts_import",
		mcp.WithDescription("Import contacts from CSV text. The first row is a header; rows without a name and a valid email are skipped."),
		mcp.WithString("csv",
			mcp.Required(),
			mcp.Description("CSV content with the columns Name,Email,Phone,Groups"),
		),
	)
	s.AddTool(importTool, common.InstrumentedToolHandler("contacts_import", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleImportContacts(ctx, request, sc)
		}))

	return nil
}

func handleListContacts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	dir := sc.Directory()

	contacts, err := dir.SearchContacts(ctx, common.String(args, "query"))
	if err != nil {
		return common.ErrorResult("list contacts", err), nil
	}

	if groupID := common.String(args, "groupId"); groupID != "" {
		filtered := make([]store.Contact, 0, len(contacts))
		for _, c := range contacts {
			if c.InGroup(groupID) {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}
	if contacts == nil {
		contacts = []store.Contact{}
	}

	return common.JSONResult(contacts), nil
}

func handleExportContacts(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	if err := sc.Directory().ExportCSV(ctx, &sb); err != nil {
		return common.ErrorResult("export contacts", err), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func handleAddContact(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	groupIDs, _, err := common.StringList(args, "groupIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := sc.Directory().AddContact(ctx, store.ContactInput{
		Name:     common.String(args, "name"),
		Email:    common.String(args, "email"),
		Phone:    common.String(args, "phone"),
		GroupIDs: groupIDs,
	})
	if err != nil {
		return common.ErrorResult("add contact", err), nil
	}
	return common.JSONResult(c), nil
}

func handleUpdateContact(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, err := common.RequiredString(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch := store.ContactPatch{
		Name:  common.OptionalString(args, "name"),
		Email: common.OptionalString(args, "email"),
		Phone: common.OptionalString(args, "phone"),
	}
	groupIDs, present, err := common.StringList(args, "groupIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if present {
		patch.GroupIDs = &groupIDs
	}

	c, err := sc.Directory().UpdateContact(ctx, id, patch)
	if err != nil {
		return common.ErrorResult("update contact", err), nil
	}
	return common.JSONResult(c), nil
}

func handleDeleteContacts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["contactIds"], "contactIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dir := sc.Directory()
	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		removed, err := dir.DeleteContact(ctx, id)
		if err != nil {
			return "", err
		}
		if !removed {
			return "", fmt.Errorf("contact %s: %w", id, store.ErrNotFound)
		}
		return "Deleted contact " + id, nil
	})

	out := batch.FormatResults(results)
	if batch.Summarize(results).Successful == 0 {
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}

func handleImportContacts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	content := common.RawString(args, "csv")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("csv is required"), nil
	}

	res, err := sc.Directory().ImportCSV(ctx, strings.NewReader(content))
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			return common.ErrorResult("import contacts", err), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to import contacts after %d rows: %v", res.Imported, err)), nil
	}
	return common.JSONResult(res), nil
}
