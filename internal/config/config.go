package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/google"
	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/store"
)

// AppName names the config and data directories.
const AppName = "mailcampaign"

// Duration is a time.Duration written as a Go duration string ("2s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// StorageConfig selects the durable KV backend.
type StorageConfig struct {
	Backend    string       `toml:"backend"`
	SQLitePath string       `toml:"sqlite_path"`
	Valkey     ValkeyConfig `toml:"valkey"`
}

// ValkeyConfig holds the remote KV settings.
type ValkeyConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
	TLS       bool   `toml:"tls"`
}

// GoogleConfig holds the OAuth client used for the Gmail login.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// CampaignConfig tunes the send workflow.
type CampaignConfig struct {
	DefaultMode   string   `toml:"default_mode"`
	Greeting      string   `toml:"greeting"`
	StatusDisplay Duration `toml:"status_display"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// MetricsConfig controls the Prometheus endpoint of the serve command.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// TelemetryConfig selects the OpenTelemetry exporters and the audit log.
type TelemetryConfig struct {
	Enabled         bool    `toml:"enabled"`
	MetricsExporter string  `toml:"metrics_exporter"`
	TracingExporter string  `toml:"tracing_exporter"`
	OTLPEndpoint    string  `toml:"otlp_endpoint"`
	OTLPInsecure    bool    `toml:"otlp_insecure"`
	SamplingRate    float64 `toml:"sampling_rate"`
	Audit           bool    `toml:"audit"`
	AuditPII        bool    `toml:"audit_pii"`
}

// Config is the full application configuration.
type Config struct {
	DataDir   string          `toml:"data_dir"`
	Storage   StorageConfig   `toml:"storage"`
	Google    GoogleConfig    `toml:"google"`
	Campaign  CampaignConfig  `toml:"campaign"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	// Path is the file the config was read from, empty when none was found.
	Path string `toml:"-"`
}

// Default returns the built-in defaults.
func Default() *Config {
	telemetry := instrumentation.Defaults()
	return &Config{
		DataDir: defaultDataDir(),
		Storage: StorageConfig{
			Backend: store.BackendFile,
			Valkey:  ValkeyConfig{KeyPrefix: store.DefaultValkeyPrefix},
		},
		Google: GoogleConfig{RedirectURL: google.DefaultRedirectURL},
		Campaign: CampaignConfig{
			DefaultMode:   string(campaign.DefaultMode),
			Greeting:      campaign.DefaultGreeting,
			StatusDisplay: Duration{campaign.DefaultResetInterval},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Telemetry: TelemetryConfig{
			Enabled:         telemetry.Enabled,
			MetricsExporter: telemetry.MetricsExporter,
			TracingExporter: telemetry.TracingExporter,
			SamplingRate:    telemetry.TraceSamplingRate,
			Audit:           telemetry.AuditLogging.Enabled,
		},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
	}
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.toml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppName)
	}
	return AppName
}

// Load reads the config file at path, or DefaultPath when path is empty, and
// applies environment overrides. A missing default file is not an error; a
// missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Backend) {
	case store.BackendMemory, store.BackendFile, store.BackendSQLite, store.BackendValkey:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be one of memory, file, sqlite, valkey", c.Storage.Backend))
	}
	if strings.EqualFold(c.Storage.Backend, store.BackendValkey) && c.Storage.Valkey.Addr == "" {
		errs = append(errs, errors.New("storage.valkey.addr is required for the valkey backend"))
	}
	if strings.EqualFold(c.Storage.Backend, store.BackendFile) && c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required for the file backend"))
	}
	if _, err := campaign.ParseMode(c.Campaign.DefaultMode); err != nil {
		errs = append(errs, fmt.Errorf("campaign.default_mode: %w", err))
	}
	if c.Campaign.StatusDisplay.Duration <= 0 {
		errs = append(errs, fmt.Errorf("campaign.status_display must be positive, got %s", c.Campaign.StatusDisplay))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if err := c.InstrumentationConfig("", false).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	return errors.Join(errs...)
}

// InstrumentationConfig converts the telemetry settings. stdio marks that
// stdout carries the MCP stream.
func (c *Config) InstrumentationConfig(version string, stdio bool) instrumentation.Config {
	ic := instrumentation.Defaults()
	if version != "" {
		ic.ServiceVersion = version
	}
	ic.Enabled = c.Telemetry.Enabled
	ic.MetricsExporter = strings.ToLower(c.Telemetry.MetricsExporter)
	ic.TracingExporter = strings.ToLower(c.Telemetry.TracingExporter)
	ic.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	ic.OTLPInsecure = c.Telemetry.OTLPInsecure
	ic.TraceSamplingRate = c.Telemetry.SamplingRate
	ic.Stdio = stdio
	ic.AuditLogging = instrumentation.AuditLoggingConfig{
		Enabled:    c.Telemetry.Audit,
		IncludePII: c.Telemetry.AuditPII,
	}
	return ic
}

// KVConfig converts the storage settings for store.OpenKV.
func (c *Config) KVConfig() store.KVConfig {
	return store.KVConfig{
		Backend:    strings.ToLower(c.Storage.Backend),
		DataDir:    c.DataDir,
		SQLitePath: c.Storage.SQLitePath,
		Valkey: store.ValkeyConfig{
			Addr:      c.Storage.Valkey.Addr,
			Password:  c.Storage.Valkey.Password,
			DB:        c.Storage.Valkey.DB,
			KeyPrefix: c.Storage.Valkey.KeyPrefix,
			TLS:       c.Storage.Valkey.TLS,
		},
	}
}

// OAuthSettings converts the Google settings for google.NewOAuthConfig.
func (c *Config) OAuthSettings() google.OAuthSettings {
	return google.OAuthSettings{
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  c.Google.RedirectURL,
	}
}

// LoggingOptions converts the log settings for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Mode returns the validated default send mode.
func (c *Config) Mode() campaign.Mode {
	m, err := campaign.ParseMode(c.Campaign.DefaultMode)
	if err != nil {
		return campaign.DefaultMode
	}
	return m
}
