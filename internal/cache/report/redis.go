package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"infographic/internal/report"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores reports as JSON values with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, cfg RedisConfig, log zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis connection established")
	return NewRedis(client, cfg.TTL, log), nil
}

func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, log: log}
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, key string) (*report.Report, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("report cache get failed")
		return nil, false
	}
	var r report.Report
	if err := json.Unmarshal(val, &r); err != nil || !r.Displayable() {
		c.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached report")
		return nil, false
	}
	return &r, true
}

func (c *Redis) Put(ctx context.Context, key string, r *report.Report) {
	if r == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to marshal report for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("report cache put failed")
	}
}
