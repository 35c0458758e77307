// Package generation runs report generations for the transport layer and
// records their results.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	reportcache "infographic/internal/cache/report"
	"infographic/internal/gateway/repository/history"
	"infographic/internal/llm"
	"infographic/internal/prompt"
	"infographic/internal/report"
)

var ErrInvalidRequest = errors.New("invalid request")

// Request is one generation order. Options are flattened into the JSON body.
type Request struct {
	Provider string `json:"provider,omitempty"`
	Topic    string `json:"topic"`
	llm.Options
}

// Result is a finished generation.
type Result struct {
	ID       string         `json:"id"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Cached   bool           `json:"cached"`
	Report   *report.Report `json:"report"`
}

// AdapterFactory builds provider adapters. *llm.Factory satisfies it.
type AdapterFactory interface {
	Create(ctx context.Context, id string) (*llm.Adapter, error)
}

type Config struct {
	Factory AdapterFactory
	Cache   reportcache.Cache
	History history.Store
	Logger  zerolog.Logger
	// Timeout bounds one generation including retries. Zero means none.
	Timeout time.Duration
	Now     func() time.Time
	NewID   func() string
}

// Service resolves providers, consults the report cache and appends
// finished reports to history.
type Service struct {
	factory AdapterFactory
	cache   reportcache.Cache
	history history.Store
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func New(cfg Config) *Service {
	s := &Service{
		factory: cfg.Factory,
		cache:   cfg.Cache,
		history: cfg.History,
		log:     cfg.Logger,
		timeout: cfg.Timeout,
		now:     cfg.Now,
		newID:   cfg.NewID,
	}
	if s.cache == nil {
		s.cache = reportcache.Noop{}
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// History is the store finished generations are appended to.
func (s *Service) History() history.Store { return s.history }

func normalize(req Request) (Request, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return req, errors.Join(ErrInvalidRequest, errors.New("topic is required"))
	}
	if req.MaxTokens < 0 {
		return req, errors.Join(ErrInvalidRequest, errors.New("maxTokens must not be negative"))
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.Model = strings.TrimSpace(req.Model)
	req.Language = prompt.ParseLanguage(string(req.Language))
	req.SectionCount = prompt.ClampSections(req.SectionCount)
	return req, nil
}

// Generate runs req to completion. onPartial, when non-nil, receives every
// displayable snapshot; a cache hit yields exactly one.
func (s *Service) Generate(ctx context.Context, req Request, onPartial func(*report.Report)) (*Result, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	adapter, err := s.factory.Create(ctx, req.Provider)
	if err != nil {
		return nil, err
	}
	defer func() { _ = adapter.Close() }()

	info := adapter.Info()
	model := adapter.ResolveModel(req.Options)
	key := reportcache.Key(reportcache.KeyParts{
		Provider:     info.ID,
		Model:        model,
		Language:     string(req.Language),
		SectionCount: req.SectionCount,
		Search:       req.EnableSearch && info.SupportsSearch,
		Topic:        req.Topic,
	})
	log := s.log.With().Str("provider", info.ID).Str("model", model).Logger()

	if cached, ok := s.cache.Get(ctx, key); ok {
		log.Debug().Str("topic", req.Topic).Msg("report cache hit")
		if onPartial != nil {
			onPartial(cached)
		}
		return &Result{Provider: info.ID, Model: model, Cached: true, Report: cached}, nil
	}

	start := s.now()
	r, err := adapter.GenerateInfographic(ctx, req.Topic, onPartial, req.Options)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, key, r)

	item := report.NewHistoryItem(s.newID(), req.Topic, s.now(), r)
	if err := s.history.Append(context.WithoutCancel(ctx), item); err != nil {
		log.Warn().Err(err).Str("id", item.ID).Msg("failed to append history")
	}
	log.Info().
		Str("id", item.ID).
		Int("sections", len(r.Sections)).
		Int("sources", len(r.Sources)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("report generated")
	return &Result{ID: item.ID, Provider: info.ID, Model: model, Report: r}, nil
}
