package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables. GOOGLE_* and METRICS_* keep the names used by
// other Google tooling.
const (
	EnvDataDir        = "MAILCAMPAIGN_DATA_DIR"
	EnvStoreBackend   = "MAILCAMPAIGN_STORE_BACKEND"
	EnvSQLitePath     = "MAILCAMPAIGN_SQLITE_PATH"
	EnvValkeyAddr     = "MAILCAMPAIGN_VALKEY_ADDR"
	EnvValkeyPassword = "MAILCAMPAIGN_VALKEY_PASSWORD"
	EnvValkeyDB       = "MAILCAMPAIGN_VALKEY_DB"
	EnvValkeyPrefix   = "MAILCAMPAIGN_VALKEY_KEY_PREFIX"
	EnvValkeyTLS      = "MAILCAMPAIGN_VALKEY_TLS"
	EnvClientID       = "GOOGLE_CLIENT_ID"
	EnvClientSecret   = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURL    = "GOOGLE_REDIRECT_URL"
	EnvMode           = "MAILCAMPAIGN_MODE"
	EnvGreeting       = "MAILCAMPAIGN_GREETING"
	EnvStatusDisplay  = "MAILCAMPAIGN_STATUS_DISPLAY"
	EnvLogLevel       = "MAILCAMPAIGN_LOG_LEVEL"
	EnvLogFormat      = "MAILCAMPAIGN_LOG_FORMAT"
	EnvLogFile        = "MAILCAMPAIGN_LOG_FILE"
	EnvMetricsEnabled = "METRICS_ENABLED"
	EnvMetricsAddr    = "METRICS_ADDR"

	EnvTelemetryEnabled = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter  = "METRICS_EXPORTER"
	EnvTracingExporter  = "TRACING_EXPORTER"
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure     = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate     = "OTEL_TRACES_SAMPLER_ARG"
	EnvAuditEnabled     = "AUDIT_LOGGING_ENABLED"
	EnvAuditPII         = "AUDIT_LOGGING_INCLUDE_PII"
)

// LoadDotenv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
				return
			}
			*dst = b
		}
	}

	str(EnvDataDir, &c.DataDir)
	str(EnvStoreBackend, &c.Storage.Backend)
	str(EnvSQLitePath, &c.Storage.SQLitePath)
	str(EnvValkeyAddr, &c.Storage.Valkey.Addr)
	str(EnvValkeyPassword, &c.Storage.Valkey.Password)
	str(EnvValkeyPrefix, &c.Storage.Valkey.KeyPrefix)
	boolean(EnvValkeyTLS, &c.Storage.Valkey.TLS)
	if v, ok := os.LookupEnv(EnvValkeyDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", EnvValkeyDB, v))
		} else {
			c.Storage.Valkey.DB = db
		}
	}

	str(EnvClientID, &c.Google.ClientID)
	str(EnvClientSecret, &c.Google.ClientSecret)
	str(EnvRedirectURL, &c.Google.RedirectURL)

	str(EnvMode, &c.Campaign.DefaultMode)
	str(EnvGreeting, &c.Campaign.Greeting)
	if v, ok := os.LookupEnv(EnvStatusDisplay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", EnvStatusDisplay, v))
		} else {
			c.Campaign.StatusDisplay = Duration{d}
		}
	}

	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFormat, &c.Log.Format)
	str(EnvLogFile, &c.Log.File)

	boolean(EnvMetricsEnabled, &c.Metrics.Enabled)
	str(EnvMetricsAddr, &c.Metrics.Addr)

	boolean(EnvTelemetryEnabled, &c.Telemetry.Enabled)
	str(EnvMetricsExporter, &c.Telemetry.MetricsExporter)
	str(EnvTracingExporter, &c.Telemetry.TracingExporter)
	str(EnvOTLPEndpoint, &c.Telemetry.OTLPEndpoint)
	boolean(EnvOTLPInsecure, &c.Telemetry.OTLPInsecure)
	if v, ok := os.LookupEnv(EnvSamplingRate); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", EnvSamplingRate, v))
		} else {
			c.Telemetry.SamplingRate = rate
		}
	}
	boolean(EnvAuditEnabled, &c.Telemetry.Audit)
	boolean(EnvAuditPII, &c.Telemetry.AuditPII)

	return errors.Join(errs...)
}
