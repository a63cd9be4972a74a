// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for mailcampaign.
//
// # Metrics
//
// Campaign metrics:
//   - campaign_sends_total: Counter of campaign sends by mode and status
//   - campaign_recipients_total: Counter of per-recipient outcomes by mode and result
//
// Mail dispatch metrics:
//   - mail_dispatch_total: Counter of Gmail send calls by status
//   - mail_dispatch_duration_seconds: Histogram of Gmail send latency
//
// Storage and session metrics:
//   - store_operations_total: Counter of store operations by collection, operation, status
//   - oauth_auth_total: Counter of login attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for campaign sends (campaign.send), individual Gmail
// dispatches (gmail.send) and MCP tool invocations (tool.<name>).
//
// # Configuration
//
// Config is filled by internal/config from the [telemetry] section of the
// config file and these environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII: audit log switches
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, cfg.InstrumentationConfig(version, true))
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordMailDispatch(ctx, instrumentation.StatusSuccess, time.Since(start))
//	m.RecordCampaignSend(ctx, "individual", instrumentation.StatusSuccess)
package instrumentation
