package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/resources"
	"github.com/teemow/mailcampaign/internal/server"
	"github.com/teemow/mailcampaign/internal/tools/campaign_tools"
	"github.com/teemow/mailcampaign/internal/tools/contact_tools"
	"github.com/teemow/mailcampaign/internal/tools/group_tools"
	"github.com/teemow/mailcampaign/internal/tools/session_tools"
)

const metricsStartTimeout = 5 * time.Second

type serveOptions struct {
	yolo           bool
	debug          bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdin/stdout so an AI
assistant can manage contacts and groups and send campaigns.

The server starts read-only: only list, export and status tools are
registered. Pass --yolo to also register the tools that change data or send
email.

Logs go to stderr, or to the configured log file. With --metrics-enabled a
separate HTTP listener serves /metrics, /healthz and /readyz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, so)
		},
	}

	cmd.Flags().BoolVar(&so.yolo, "yolo", false, "Register write tools (add, update, delete, send)")
	cmd.Flags().BoolVar(&so.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&so.metricsEnabled, "metrics-enabled", false, "Serve Prometheus metrics and health endpoints")
	cmd.Flags().StringVar(&so.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics listen address")

	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, so *serveOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if so.debug {
		cfg.Log.Level = "debug"
	}
	if cmd.Flags().Changed("metrics-enabled") {
		cfg.Metrics.Enabled = so.metricsEnabled
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = so.metricsAddr
	}

	logger, logCloser, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	instrConfig := cfg.InstrumentationConfig(version, true)
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	sc, err := server.NewServerContext(ctx, cfg, server.Options{
		Logger:  logger,
		Metrics: provider.Metrics(),
		Audit:   instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	health := server.NewHealthChecker(sc, version)

	if cfg.Metrics.Enabled {
		metricsServer, err := startMetricsServer(cfg.Metrics.Addr, provider, health, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := newMCPServer()

	readOnly := !so.yolo
	if readOnly {
		logger.Info("starting MCP server in read-only mode (use --yolo to enable write tools)")
	} else {
		logger.Info("starting MCP server with write tools enabled")
	}

	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return err
	}
	health.SetReady(true)

	return runStdioServer(ctx, mcpSrv, logger)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("mailcampaign", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
}

// startMetricsServer starts the listener in the background and waits until
// it is bound.
func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ready:
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-errCh:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartTimeout):
		return nil, errors.New("metrics server startup timed out")
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	}
}

// registerAllTools registers every tool and resource on the MCP server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Contacts",
			register: func() error {
				return contact_tools.RegisterContactTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Groups",
			register: func() error {
				return group_tools.RegisterGroupTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Campaigns",
			register: func() error {
				return campaign_tools.RegisterCampaignTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Session",
			register: func() error {
				return session_tools.RegisterSessionTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Resources",
			register: func() error {
				return resources.RegisterResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
