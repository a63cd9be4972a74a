package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/mailcampaign/internal/logging"
)

// ToolInvocation captures one MCP tool call for the audit trail.
type ToolInvocation struct {
	Tool string

	// UserEmail is the signed-in sender, if any. It is PII.
	UserEmail string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity.
func (ti *ToolInvocation) WithUser(email string) *ToolInvocation {
	ti.UserEmail = email
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as finished and computes its duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(includePII bool) []any {
	args := []any{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.UserEmail != "" {
		if includePII {
			args = append(args, slog.String("user", ti.UserEmail))
		} else {
			args = append(args, logging.UserHash(ti.UserEmail), logging.Domain(ti.UserEmail))
		}
	}
	if ti.TraceID != "" {
		args = append(args, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		args = append(args, slog.String("error", ti.Error))
	}
	return args
}

// CampaignEvent is the audit record of one campaign send.
type CampaignEvent struct {
	Title      string
	GroupID    string
	Mode       string
	Sender     string
	Recipients []string
	Sent       int
	Failed     int
	Err        error
}

// AuditLogger writes tool invocations and campaign sends to a dedicated
// logger.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a completed tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.includePII)...)
	} else {
		al.logger.Warn("tool_failed", ti.attrs(al.includePII)...)
	}
}

// LogCampaign logs the outcome of a campaign send.
func (al *AuditLogger) LogCampaign(ev CampaignEvent) {
	if al == nil || !al.enabled {
		return
	}
	args := []any{
		logging.Campaign(ev.Title),
		logging.Group(ev.GroupID),
		logging.Mode(ev.Mode),
		slog.Int("sent", ev.Sent),
		slog.Int("failed", ev.Failed),
	}
	if ev.Sender != "" {
		if al.includePII {
			args = append(args, slog.String("sender", ev.Sender))
		} else {
			args = append(args, logging.UserHash(ev.Sender))
		}
	}
	if al.includePII && len(ev.Recipients) > 0 {
		args = append(args, slog.String("recipients", strings.Join(ev.Recipients, ", ")))
	}
	if ev.Err != nil {
		args = append(args, logging.Err(ev.Err))
		al.logger.Warn("campaign_failed", args...)
		return
	}
	al.logger.Info("campaign_sent", args...)
}
