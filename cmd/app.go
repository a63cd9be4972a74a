package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/server"
)

// app is the per-invocation wiring every command works through.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	sc        *server.ServerContext
}

// loadConfig reads dotenv files, then the config file and environment.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	if err := config.LoadDotenv(opts.envFiles...); err != nil {
		return nil, err
	}
	return config.Load(opts.configPath)
}

// newLogger builds the process logger. Logs go to stderr unless a log file
// is configured; stdout carries command output and the MCP stdio stream.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logOpts := cfg.LoggingOptions()
	logOpts.Output = cmd.ErrOrStderr()
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return logger, closer, nil
}

// openApp loads the configuration and opens storage. so may carry metrics
// and the audit logger; the logger is always set here.
func openApp(cmd *cobra.Command, opts *globalOptions, so server.Options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	so.Logger = logger

	sc, err := server.NewServerContext(cmd.Context(), cfg, so)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return &app{cfg: cfg, logger: logger, logCloser: closer, sc: sc}, nil
}

func (a *app) Close() {
	if err := a.sc.Shutdown(); err != nil {
		a.logger.Warn("shutdown failed", logging.Err(err))
	}
	_ = a.logCloser.Close()
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(a *app) error) error {
	a, err := openApp(cmd, opts, server.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
