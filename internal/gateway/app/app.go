package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	reportcache "infographic/internal/cache/report"
	"infographic/internal/gateway/config"
	"infographic/internal/gateway/handler"
	"infographic/internal/gateway/repository/history"
	"infographic/internal/gateway/server"
	"infographic/internal/gateway/service/generation"
	"infographic/internal/llm"
)

// Components are the wired dependencies shared by the server and the CLI.
type Components struct {
	Factory *llm.Factory
	Service *generation.Service
	History history.Store
	Cache   *reportcache.Instrumented

	closers []func() error
}

func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Components, error) {
	retry := llm.DefaultRetryPolicy()
	if cfg.Generation.RetryMaxAttempts > 0 {
		retry.MaxAttempts = cfg.Generation.RetryMaxAttempts
	}
	if cfg.Generation.RetryBaseDelay > 0 {
		retry.BaseDelay = cfg.Generation.RetryBaseDelay
	}
	factory, err := llm.NewDefaultFactory(llm.FactoryConfig{
		Credentials:     cfg.Credentials,
		DefaultProvider: cfg.DefaultProvider,
		Retry:           retry,
		MaxSources:      cfg.Generation.MaxSources,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}

	c := &Components{Factory: factory}
	store, closeStore, err := initHistory(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	c.History = store
	c.closers = append(c.closers, closeStore)

	cache, closeCache, err := initCache(ctx, cfg, log)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Cache = cache
	c.closers = append(c.closers, closeCache)

	c.Service = generation.New(generation.Config{
		Factory: factory,
		Cache:   cache,
		History: store,
		Logger:  log,
		Timeout: cfg.Generation.Timeout,
	})
	return c, nil
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

type App struct {
	components *Components
	server     *server.Server
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	c, err := Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	h := handler.New(c.Factory, c.Service, c.History, log, handler.WithCacheStats(c.Cache.Snapshot))
	srv := server.New(cfg.Port, server.NewMux(h, log), log)
	return &App{components: c, server: srv}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.components.Close())
}
