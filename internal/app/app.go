// Package app wires configuration into the running components.
package app

import (
	"context"
	"fmt"

	"github.com/bobmcallan/auth-mcp/internal/catalog"
	"github.com/bobmcallan/auth-mcp/internal/client"
	"github.com/bobmcallan/auth-mcp/internal/common"
	"github.com/bobmcallan/auth-mcp/internal/config"
	"github.com/bobmcallan/auth-mcp/internal/router"
	"github.com/bobmcallan/auth-mcp/internal/server"
	"github.com/bobmcallan/auth-mcp/internal/session"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Store    session.Store
	Session  *session.Session
	Catalog  *catalog.Loader
	Executor *client.HTTPExecutor
	Router   *router.Router
	Server   *server.Server

	closers []func() error
}

// New initializes the application. The stored session is loaded and the
// catalog build is started before New returns.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initStore(ctx); err != nil {
		return nil, err
	}

	a.Session = session.New(a.Store, cfg.Session.Key, session.WithLogger(logger))
	st := a.Session.Load(ctx)
	logger.Info().Str("session", string(st.State)).Str("backend", cfg.Session.Backend).Msg("session loaded")

	a.Catalog = catalog.NewLoader(
		catalog.NewHTTPFetcher(cfg.API.DescriptionTimeout()),
		cfg.API.DescriptionURL,
		cfg.API.DescriptionTimeout(),
		logger,
	)
	a.Catalog.Start(ctx)

	a.Executor = client.NewHTTPExecutor(cfg.API.BaseURL, cfg.API.Timeout(), a.Session, logger)
	a.Router = router.New(a.Catalog, a.Session, a.Executor, logger)
	a.Server = server.New(cfg.Server.Name, config.GetVersion(), a.Catalog, a.Router, logger).
		WithMaxConcurrent(cfg.Server.MaxConcurrent)

	logger.Info().
		Str("base_url", cfg.API.BaseURL).
		Str("description_url", cfg.API.DescriptionURL).
		Msg("application initialization complete")

	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.Config.Session.Backend {
	case "redis":
		rs, err := session.NewRedisStore(ctx, a.Config.Session.Redis.Addr, a.Config.Session.Redis.KeyPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect session store: %w", err)
		}
		a.Store = rs
		a.closers = append(a.closers, rs.Close)
	default:
		a.Store = session.NewFileStore(a.Config.Session.Dir)
	}
	return nil
}

// Close releases external resources.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
