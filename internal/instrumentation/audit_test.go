package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestAuditLoggerToolInvocation(t *testing.T) {
	tests := []struct {
		name       string
		includePII bool
		wantUser   bool
	}{
		{"anonymized", false, false},
		{"with pii", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true, IncludePII: tt.includePII})

			al.LogToolInvocation(NewToolInvocation("contacts_add").WithUser("me@example.com").Complete(true, nil))
			al.LogToolInvocation(NewToolInvocation("campaigns_send").Complete(false, errors.New("not authenticated")))

			lines := decodeLines(t, &buf)
			if len(lines) != 2 {
				t.Fatalf("got %d lines, want 2", len(lines))
			}
			if lines[0]["msg"] != "tool_executed" || lines[1]["msg"] != "tool_failed" {
				t.Errorf("messages = %v, %v", lines[0]["msg"], lines[1]["msg"])
			}
			_, hasUser := lines[0]["user"]
			if hasUser != tt.wantUser {
				t.Errorf("user present = %v, want %v", hasUser, tt.wantUser)
			}
			if !tt.wantUser && lines[0]["user_hash"] == nil {
				t.Error("expected user_hash when PII is excluded")
			}
			if lines[1]["error"] != "not authenticated" {
				t.Errorf("error = %v", lines[1]["error"])
			}
		})
	}
}

func TestAuditLoggerCampaign(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})

	al.LogCampaign(CampaignEvent{Title: "Hello", GroupID: "1", Mode: "bulk", Recipients: []string{"a@example.com"}, Sent: 1})
	al.LogCampaign(CampaignEvent{Title: "Hello", GroupID: "1", Mode: "individual", Failed: 2, Err: errors.New("all failed")})

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["msg"] != "campaign_sent" || lines[1]["msg"] != "campaign_failed" {
		t.Errorf("messages = %v, %v", lines[0]["msg"], lines[1]["msg"])
	}
	if _, ok := lines[0]["recipients"]; ok {
		t.Error("recipients must not be logged without PII")
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("x").Complete(true, nil))
	al.LogCampaign(CampaignEvent{Title: "x"})
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogCampaign(CampaignEvent{})
}
