package contact_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/store"
	"github.com/teemow/mailcampaign/internal/tools/batch"
)

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), config.Default(), server.Options{KV: store.NewMemoryKV()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestRegisterContactTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{"read only", true, []string{"contacts_export", "contacts_list"}},
		{"read write", false, []string{"contacts_add", "contacts_delete", "contacts_export", "contacts_import", "contacts_list", "contacts_update"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterContactTools(s, newServerContext(t), tt.readOnly))

			var names []string
			for name := range s.ListTools() {
				names = append(names, name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestAddListAndFilter(t *testing.T) {
	sc := newServerContext(t)
	ctx := context.Background()

	res, err := handleAddContact(ctx, call(map[string]any{
		"name": "Ana", "email": "ana@example.com", "groupIds": []any{"2"},
	}), sc)
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var added store.Contact
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &added))
	assert.Equal(t, []string{"2"}, added.GroupIDs)

	_, err = handleAddContact(ctx, call(map[string]any{"name": "Bo", "email": "bo@example.com", "groupIds": "1"}), sc)
	require.NoError(t, err)

	group, err := sc.Directory().Group(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, group.ContactCount)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", map[string]any{}, []string{"Ana", "Bo"}},
		{"query", map[string]any{"query": "ANA"}, []string{"Ana"}},
		{"group", map[string]any{"groupId": "1"}, []string{"Bo"}},
		{"no match", map[string]any{"query": "zed"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := handleListContacts(ctx, call(tt.args), sc)
			require.NoError(t, err)
			var contacts []store.Contact
			require.NoError(t, json.Unmarshal([]byte(text(t, res)), &contacts))
			var names []string
			for _, c := range contacts {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestAddContactValidation(t *testing.T) {
	sc := newServerContext(t)

	res, err := handleAddContact(context.Background(), call(map[string]any{"name": "Ana", "email": "not-an-email"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "Fix the highlighted fields")

	contacts, err := sc.Directory().Contacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestUpdateContactClearsGroups(t *testing.T) {
	sc := newServerContext(t)
	ctx := context.Background()

	c, err := sc.Directory().AddContact(ctx, store.ContactInput{Name: "Ana", Email: "ana@example.com", GroupIDs: []string{"1", "2"}})
	require.NoError(t, err)

	res, err := handleUpdateContact(ctx, call(map[string]any{"id": c.ID, "phone": "555", "groupIds": ""}), sc)
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	got, err := sc.Store().GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "555", got.Phone)
	assert.Empty(t, got.GroupIDs)

	g1, err := sc.Directory().Group(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 0, g1.ContactCount)

	res, err = handleUpdateContact(ctx, call(map[string]any{"id": "missing", "name": "X"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestDeleteContactsBatch(t *testing.T) {
	sc := newServerContext(t)
	ctx := context.Background()

	c, err := sc.Directory().AddContact(ctx, store.ContactInput{Name: "Ana", Email: "ana@example.com", GroupIDs: []string{"1"}})
	require.NoError(t, err)

	res, err := handleDeleteContacts(ctx, call(map[string]any{"contactIds": []any{c.ID, "missing"}}), sc)
	require.NoError(t, err)
	require.False(t, res.IsError)

	var summary batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, batch.StatusError, summary.Results[1].Status)

	g1, err := sc.Directory().Group(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 0, g1.ContactCount)

	res, err = handleDeleteContacts(ctx, call(map[string]any{"contactIds": "missing"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError, "all-failed batch is an error result")
}

func TestImportThenExport(t *testing.T) {
	sc := newServerContext(t)
	ctx := context.Background()

	csvText := "Name,Email,Phone,Groups\nAna,ana@example.com,555,1;2\n,nobody@example.com,,\nBo,bad-email,,\n\nCy,cy@example.com,,\n"
	res, err := handleImportContacts(ctx, call(map[string]any{"csv": csvText}), sc)
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.JSONEq(t, `{"imported":2,"skipped":2}`, text(t, res))

	res, err = handleExportContacts(ctx, call(nil), sc)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text(t, res)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone,Groups", lines[0])
	assert.Equal(t, "Ana,ana@example.com,555,1;2", lines[1])

	res, err = handleImportContacts(ctx, call(map[string]any{"csv": "  "}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
