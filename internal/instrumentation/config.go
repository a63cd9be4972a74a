package instrumentation

import (
	"errors"
	"fmt"
	"slices"
)

// Label values shared by the metrics and the audit log.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusPartial marks a campaign where some recipients failed.
	StatusPartial = "partial"

	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects exporters and the audit log. The application config fills
// it from the [telemetry] section and the OTEL_* environment.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	Enabled         bool
	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is host:port without scheme.
	OTLPEndpoint string
	// OTLPInsecure selects plain HTTP for OTLP export.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// Stdio is set when stdout carries the MCP stream; stdout exporters are
	// then refused.
	Stdio bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool
	// IncludePII writes full email addresses instead of hashes.
	IncludePII bool
}

// Defaults returns the built-in settings: Prometheus metrics, no tracing,
// audit log without PII.
func Defaults() Config {
	return Config{
		ServiceName:       "mailcampaign",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging:      AuditLoggingConfig{Enabled: true},
	}
}

// Validate checks exporter names and ranges. Empty exporter names are
// accepted and resolved by NewProvider.
func (c Config) Validate() error {
	var errs []error
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}
	if (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		errs = append(errs, errors.New("OTLP endpoint is required when using an OTLP exporter"))
	}
	if c.Enabled && c.Stdio && (c.MetricsExporter == ExporterStdout || c.TracingExporter == ExporterStdout) {
		errs = append(errs, errors.New("the stdout exporter cannot be used while stdout carries the MCP stream"))
	}
	return errors.Join(errs...)
}

func (c Config) metricsExporter() string {
	if c.MetricsExporter == "" {
		return ExporterPrometheus
	}
	return c.MetricsExporter
}

func (c Config) tracingExporter() string {
	if c.TracingExporter == "" {
		return ExporterNone
	}
	return c.TracingExporter
}
