package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/teemow/mailcampaign/internal/campaign"
	"github.com/teemow/mailcampaign/internal/config"
	"github.com/teemow/mailcampaign/internal/directory"
	"github.com/teemow/mailcampaign/internal/gmail"
	"github.com/teemow/mailcampaign/internal/google"
	"github.com/teemow/mailcampaign/internal/instrumentation"
	"github.com/teemow/mailcampaign/internal/logging"
	"github.com/teemow/mailcampaign/internal/session"
	"github.com/teemow/mailcampaign/internal/store"
)

// Options overrides parts of the wiring. The zero value uses the config.
type Options struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	// KV replaces the configured backend; ServerContext still closes it.
	KV store.KV
	// Identity replaces the Google userinfo lookup.
	Identity google.IdentityFetcher
	// GmailEndpoint and HTTPClient are passed to the Gmail client.
	GmailEndpoint string
	HTTPClient    *http.Client

	// OnStatusChange observes the campaign status tracker.
	OnStatusChange func(campaign.Status)
}

// ServerContext is the application context every command and tool handler
// works through.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      *config.Config
	kv       store.KV
	store    *store.Store
	dir      *directory.Directory
	session  *session.Holder
	gmail    *gmail.Client
	workflow *campaign.Workflow
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext opens storage and wires every component.
func NewServerContext(ctx context.Context, cfg *config.Config, opts Options) (*ServerContext, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	kv := opts.KV
	if kv == nil {
		var err error
		kv, err = store.OpenKV(ctx, cfg.KVConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
		}
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger.With(logging.Backend(cfg.Storage.Backend))),
		session.WithRecorder(opts.Metrics),
	}
	if cfg.Google.ClientID != "" {
		oauthConf, err := google.NewOAuthConfig(cfg.OAuthSettings())
		if err != nil {
			_ = kv.Close()
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithOAuthConfig(oauthConf))
	}
	if opts.Identity != nil {
		sessionOpts = append(sessionOpts, session.WithIdentityFetcher(opts.Identity))
	}
	sess, err := session.New(ctx, kv, sessionOpts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	st := store.New(kv, store.WithRecorder(opts.Metrics))
	dir := directory.New(st, logger)
	gm := gmail.NewClient(gmail.Options{
		Endpoint:   opts.GmailEndpoint,
		HTTPClient: opts.HTTPClient,
		Metrics:    opts.Metrics,
		Logger:     logger,
	})
	wf := campaign.NewWorkflow(dir, sess, gm, campaign.Options{
		Renderer: campaign.Renderer{Greeting: cfg.Campaign.Greeting},
		Tracker:  campaign.NewTracker(cfg.Campaign.StatusDisplay.Duration, opts.OnStatusChange),
		Metrics:  opts.Metrics,
		Audit:    opts.Audit,
		Logger:   logger,
	})

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		cfg:      cfg,
		kv:       kv,
		store:    st,
		dir:      dir,
		session:  sess,
		gmail:    gm,
		workflow: wf,
		metrics:  opts.Metrics,
		audit:    opts.Audit,
		logger:   logger,
	}, nil
}

// Context returns the server context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

func (sc *ServerContext) Directory() *directory.Directory {
	return sc.dir
}

func (sc *ServerContext) Session() *session.Holder {
	return sc.session
}

func (sc *ServerContext) Gmail() *gmail.Client {
	return sc.gmail
}

func (sc *ServerContext) Workflow() *campaign.Workflow {
	return sc.workflow
}

// Metrics returns the metrics recorder; it may be nil and is nil-safe.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger; it may be nil and is nil-safe.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Ping reads one key to check that the storage backend answers.
func (sc *ServerContext) Ping(ctx context.Context) error {
	if _, _, err := sc.kv.Get(ctx, store.KeyGroups); err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}
	return nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and closes the storage backend. It is safe to
// call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	if err := sc.kv.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
