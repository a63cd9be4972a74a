package common

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestJSONResult(t *testing.T) {
	res := JSONResult(map[string]int{"sent": 2})
	if res.IsError {
		t.Fatal("unexpected error result")
	}
	if got, want := resultText(t, res), "{\n  \"sent\": 2\n}"; got != want {
		t.Errorf("JSONResult() = %q, want %q", got, want)
	}
}
