package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infographic/internal/gateway/config"
	"infographic/internal/gateway/repository/history"
)

func TestBuild_MemoryBackends(t *testing.T) {
	cfg := &config.Config{
		Port:        ":0",
		Credentials: config.Credentials{"groq": "gsk"},
		History:     config.HistoryConfig{Backend: "memory"},
		Cache:       config.CacheConfig{Backend: "memory", Size: 4},
	}
	c, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	ids := make([]string, 0, 4)
	for _, p := range c.Factory.ListProviders() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"gemini", "openai", "openrouter", "groq"}, ids)
	assert.True(t, c.Factory.Configured("groq"))
	assert.False(t, c.Factory.Configured("gemini"))
	assert.IsType(t, &history.MemoryStore{}, c.History)
	assert.NotNil(t, c.Service)
}

func TestBuild_SQLiteHistory(t *testing.T) {
	cfg := &config.Config{
		History: config.HistoryConfig{Backend: "sqlite", SQLitePath: ":memory:"},
		Cache:   config.CacheConfig{Backend: "none"},
	}
	c, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &history.SQLStore{}, c.History)
	assert.NoError(t, c.Close())
}

func TestBuild_S3NeedsCredentials(t *testing.T) {
	cfg := &config.Config{
		History: config.HistoryConfig{Backend: "s3", S3: config.S3Config{Endpoint: "localhost:9000"}},
	}
	_, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "s3 history")
}
