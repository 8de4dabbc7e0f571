// Package app wires configuration, infrastructure and core services into one
// container shared by the CLI and the console API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/api"
	"github.com/dataflow/console/internal/api/handler"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/core/service"
	"github.com/dataflow/console/internal/infrastructure/backend"
	"github.com/dataflow/console/internal/infrastructure/config"
	mongodb "github.com/dataflow/console/internal/infrastructure/db/mongo"
	"github.com/dataflow/console/internal/infrastructure/queue"
	"github.com/dataflow/console/internal/infrastructure/tokenstore"
)

// App holds every wired component.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Tokens   ports.TokenStore
	Backend  *backend.Client
	Session  *service.SessionManager
	Scrapes  *service.ScrapeWorkflow
	Catalog  *service.Catalog
	Plans    *service.PlanSelector
	Accounts *service.Accounts
	Journal  ports.ScrapeJournal

	loop    *queue.Loop
	sched   ports.Scheduler
	checks  map[string]handler.Checker
	closers []func() error
	cancel  context.CancelFunc
}

type options struct {
	tokens    ports.TokenStore
	transport http.RoundTripper
	sched     ports.Scheduler
}

// Option overrides a dependency, mostly for tests.
type Option func(*options)

// WithTokenStore replaces the configured token store.
func WithTokenStore(s ports.TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithTransport routes backend traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithScheduler replaces the serial event loop.
func WithScheduler(s ports.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// New connects the configured stores and builds the services. Nothing talks
// to the backend until Start.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Log: log, checks: map[string]handler.Checker{}}

	// 1. Token store.
	if o.tokens != nil {
		a.Tokens = o.tokens
	} else {
		opened, err := tokenstore.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Tokens = opened.Store
		a.closers = append(a.closers, opened.Close)
		if opened.Checker != nil {
			a.checks["redis"] = opened.Checker
		}
	}

	// 2. Backend client.
	var clientOpts []backend.Option
	if o.transport != nil {
		clientOpts = append(clientOpts, backend.WithTransport(o.transport))
	}
	client, err := backend.New(backend.Config{
		BaseURL:   cfg.API.BaseURL,
		Prefix:    cfg.API.Prefix,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
		CacheSize: cfg.API.DatasetCacheSize,
		CacheTTL:  cfg.API.DatasetCacheTTL,
	}, a.Tokens, log.With().Str("component", "backend").Logger(), clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Backend = client
	a.checks["backend"] = handler.CheckFunc(client.Ping)

	// 3. Scrape journal.
	a.Journal = mongodb.NopJournal{}
	if cfg.JournalEnabled() {
		mc, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open scrape journal: %w", err)
		}
		a.closers = append(a.closers, func() error { return mc.Disconnect(context.Background()) })
		a.checks["mongodb"] = mongodb.NewChecker(mc)

		journal := mongodb.NewScrapeJournal(db)
		if ix, ok := journal.(interface{ EnsureIndexes(context.Context) error }); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure scrape journal indexes")
			}
		}
		a.Journal = journal
	}

	// 4. Scheduler.
	if o.sched != nil {
		a.sched = o.sched
	} else {
		a.loop = queue.NewLoop(0, log.With().Str("component", "loop").Logger())
		a.sched = a.loop
	}

	// 5. Services.
	a.Session = service.NewSessionManager(client, a.Tokens, service.SessionOptions{
		RefreshLeeway: cfg.Token.RefreshLeeway,
	}, log.With().Str("component", "session").Logger())

	a.Scrapes = service.NewScrapeWorkflow(client, a.Session, a.sched, a.Journal, service.ScrapeOptions{
		SubmitTimeout:   cfg.Scrape.SubmitTimeout,
		InitialDelay:    cfg.Scrape.InitialDelay,
		PollInterval:    cfg.Scrape.PollInterval,
		RetryDelay:      cfg.Scrape.RetryDelay,
		PollTimeout:     cfg.Scrape.PollTimeout,
		MaxPollFailures: cfg.Scrape.MaxPollFailures,
	}, log.With().Str("component", "scrape").Logger())

	a.Catalog = service.NewCatalog(client, a.Session, log.With().Str("component", "catalog").Logger())
	a.Plans = service.NewPlanSelector(client, a.Session, log.With().Str("component", "billing").Logger())
	a.Accounts = service.NewAccounts(client, a.Session, log.With().Str("component", "account").Logger())

	return a, nil
}

// Start runs the event loop and restores any persisted session. It returns
// once the session left the loading state.
func (a *App) Start(ctx context.Context) {
	if a.loop != nil {
		loopCtx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		a.loop.Start(loopCtx)
	}
	a.Session.Start(ctx)
}

// Router builds the console API on top of the wired services.
func (a *App) Router() *echo.Echo {
	return api.NewRouter(api.Services{
		Session:  a.Session,
		Scrapes:  a.Scrapes,
		Catalog:  a.Catalog,
		Plans:    a.Plans,
		Accounts: a.Accounts,
		Checks:   a.checks,
	}, a.Log.With().Str("component", "api").Logger())
}

// Close stops polling and releases every connection. It is safe to call more
// than once.
func (a *App) Close() error {
	if a.Scrapes != nil {
		a.Scrapes.Close()
	}
	if a.cancel != nil {
		a.cancel()
		<-a.loop.Done()
		a.cancel = nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
