package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	reportcache "infographic/internal/cache/report"
	"infographic/internal/gateway/config"
	"infographic/internal/gateway/repository/history"
)

func initHistory(ctx context.Context, cfg *config.Config, log zerolog.Logger) (history.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.History.Backend {
	case "postgres":
		s, err := history.OpenPostgres(ctx, cfg.History.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres history: %w", err)
		}
		log.Info().Msg("history store: postgres")
		return s, s.Close, nil
	case "sqlite":
		s, err := history.OpenSQLite(cfg.History.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize sqlite history: %w", err)
		}
		log.Info().Str("path", cfg.History.SQLitePath).Msg("history store: sqlite")
		return s, s.Close, nil
	case "s3":
		s3 := cfg.History.S3
		s, err := history.NewS3Store(history.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 history: %w", err)
		}
		log.Info().Str("bucket", s3.Bucket).Str("endpoint", s3.Endpoint).Msg("history store: s3")
		return s, noop, nil
	}
	log.Info().Msg("history store: in-memory")
	return history.NewMemoryStore(), noop, nil
}

func initCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*reportcache.Instrumented, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Cache.Backend {
	case "none":
		return reportcache.WithMetrics(reportcache.Noop{}), noop, nil
	case "redis":
		r, err := reportcache.DialRedis(ctx, reportcache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return reportcache.WithMetrics(r), r.Close, nil
	}
	return reportcache.WithMetrics(reportcache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL)), noop, nil
}
