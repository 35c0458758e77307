// Package handler serves the HTTP API: provider discovery, report
// generation over JSON, SSE and WebSocket, and history.
package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	reportcache "infographic/internal/cache/report"
	"infographic/internal/gateway/repository/history"
	"infographic/internal/gateway/service/generation"
	"infographic/internal/llm"
	llmclient "infographic/internal/llmClient"
	"infographic/internal/report"
)

// Catalog describes the registered providers. *llm.Factory satisfies it.
type Catalog interface {
	ListProviders() []llm.ProviderInfo
	ListModels(id string) ([]llmclient.ModelInfo, error)
	DefaultProvider() string
	Configured(id string) bool
}

// Generator runs generations. *generation.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request, onPartial func(*report.Report)) (*generation.Result, error)
	Stream(ctx context.Context, req generation.Request) <-chan generation.Event
}

type Handler struct {
	catalog Catalog
	gen     Generator
	history history.Store
	stats   func() reportcache.MetricsSnapshot
	log     zerolog.Logger
}

type Option func(*Handler)

// WithCacheStats exposes cache counters on /health.
func WithCacheStats(fn func() reportcache.MetricsSnapshot) Option {
	return func(h *Handler) { h.stats = fn }
}

func New(catalog Catalog, gen Generator, store history.Store, log zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{catalog: catalog, gen: gen, history: store, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	out := map[string]any{"status": "ok"}
	if h.stats != nil {
		out["cache"] = h.stats()
	}
	writeJSON(w, http.StatusOK, out)
}
