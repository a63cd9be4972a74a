package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus     = "status"
	attrMode       = "mode"
	attrResult     = "result"
	attrTool       = "tool"
	attrCollection = "collection"
	attrOperation  = "operation"
)

// Metrics provides methods for recording observability metrics. The zero
// value is a no-op recorder.
type Metrics struct {
	campaignSendsTotal      metric.Int64Counter
	campaignRecipientsTotal metric.Int64Counter

	mailDispatchTotal    metric.Int64Counter
	mailDispatchDuration metric.Float64Histogram

	storeOperationsTotal metric.Int64Counter

	oauthAuthTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.campaignSendsTotal, err = meter.Int64Counter(
		"campaign_sends_total",
		metric.WithDescription("Total number of campaign sends"),
		metric.WithUnit("{campaign}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign_sends_total counter: %w", err)
	}

	m.campaignRecipientsTotal, err = meter.Int64Counter(
		"campaign_recipients_total",
		metric.WithDescription("Total number of campaign recipients by outcome"),
		metric.WithUnit("{recipient}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign_recipients_total counter: %w", err)
	}

	m.mailDispatchTotal, err = meter.Int64Counter(
		"mail_dispatch_total",
		metric.WithDescription("Total number of Gmail send calls"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_dispatch_total counter: %w", err)
	}

	m.mailDispatchDuration, err = meter.Float64Histogram(
		"mail_dispatch_duration_seconds",
		metric.WithDescription("Gmail send call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_dispatch_duration_seconds histogram: %w", err)
	}

	m.storeOperationsTotal, err = meter.Int64Counter(
		"store_operations_total",
		metric.WithDescription("Total number of local store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store_operations_total counter: %w", err)
	}

	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordCampaignSend records one campaign send attempt.
// Status is one of StatusSuccess, StatusPartial, StatusError.
func (m *Metrics) RecordCampaignSend(ctx context.Context, mode, status string) {
	if m == nil || m.campaignSendsTotal == nil {
		return
	}
	m.campaignSendsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	))
}

// RecordCampaignRecipients records per-recipient outcomes of one send.
func (m *Metrics) RecordCampaignRecipients(ctx context.Context, mode string, sent, failed int) {
	if m == nil || m.campaignRecipientsTotal == nil {
		return
	}
	if sent > 0 {
		m.campaignRecipientsTotal.Add(ctx, int64(sent), metric.WithAttributes(
			attribute.String(attrMode, mode),
			attribute.String(attrResult, ResultSent),
		))
	}
	if failed > 0 {
		m.campaignRecipientsTotal.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String(attrMode, mode),
			attribute.String(attrResult, ResultFailed),
		))
	}
}

// RecordMailDispatch records one Gmail send call.
func (m *Metrics) RecordMailDispatch(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.mailDispatchTotal == nil || m.mailDispatchDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.mailDispatchTotal.Add(ctx, 1, attrs)
	m.mailDispatchDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStoreOperation records one local store operation.
func (m *Metrics) RecordStoreOperation(ctx context.Context, collection, operation, status string) {
	if m == nil || m.storeOperationsTotal == nil {
		return
	}
	m.storeOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCollection, collection),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	))
}

// RecordOAuthAuth records a login attempt with result.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}
	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
