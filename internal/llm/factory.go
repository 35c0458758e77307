package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	llmclient "infographic/internal/llmClient"
	"infographic/internal/prompt"
	"infographic/internal/report"
	"infographic/internal/sectiontype"
)

// DefaultProviderID is used when no default is configured.
const DefaultProviderID = "gemini"

// ProviderInfo is the capability descriptor shown to clients.
type ProviderInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DefaultModel   string `json:"defaultModel"`
	SupportsSearch bool   `json:"supportsSearch"`
}

func infoOf(spec llmclient.ProviderSpec) ProviderInfo {
	return ProviderInfo{
		ID:             spec.ID,
		Name:           spec.Name,
		DefaultModel:   spec.DefaultModel,
		SupportsSearch: spec.SupportsSearch,
	}
}

// CredentialSource yields the API key for a provider id, or "".
type CredentialSource interface {
	APIKey(providerID string) string
}

// StaticCredentials maps provider ids to keys.
type StaticCredentials map[string]string

func (c StaticCredentials) APIKey(providerID string) string {
	return strings.TrimSpace(c[normalizeID(providerID)])
}

type FactoryConfig struct {
	Credentials     CredentialSource
	DefaultProvider string
	Retry           RetryPolicy
	// MaxSources caps citations per Report; 0 means DefaultMaxSources and a
	// negative value disables the cap.
	MaxSources int
	// Seed fixes few-shot sampling; 0 samples from the clock.
	Seed   int64
	Types  prompt.TypeSource
	Logger zerolog.Logger
	// ClientOptions overrides transport per provider id.
	ClientOptions map[string]llmclient.Options
}

// Factory maps provider ids to Adapters. Its tables are static after
// registration.
type Factory struct {
	cfg      FactoryConfig
	composer *prompt.Composer
	schema   *report.Schema

	mu       sync.RWMutex
	specs    map[string]llmclient.ProviderSpec
	limiters map[string]*rpsLimiter
	order    []string
}

// NewFactory returns an empty Factory. Use RegisterProvider or
// llmclient.RegisterAll to fill it.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Types == nil {
		cfg.Types = sectiontype.Default()
	}
	if cfg.Credentials == nil {
		cfg.Credentials = StaticCredentials{}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	switch {
	case cfg.MaxSources == 0:
		cfg.MaxSources = DefaultMaxSources
	case cfg.MaxSources < 0:
		cfg.MaxSources = 0
	}
	return &Factory{
		cfg:      cfg,
		composer: prompt.NewComposer(cfg.Types, cfg.Seed),
		schema:   prompt.ResponseSchema(cfg.Types),
		specs:    map[string]llmclient.ProviderSpec{},
		limiters: map[string]*rpsLimiter{},
	}
}

// NewDefaultFactory returns a Factory with every built-in backend.
func NewDefaultFactory(cfg FactoryConfig) (*Factory, error) {
	f := NewFactory(cfg)
	if err := llmclient.RegisterAll(f); err != nil {
		return nil, err
	}
	return f, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// RegisterProvider adds spec. Registering an id twice replaces it in place.
func (f *Factory) RegisterProvider(spec llmclient.ProviderSpec) error {
	if spec.Factory == nil {
		return fmt.Errorf("register provider: factory is nil")
	}
	id := normalizeID(spec.ID)
	if id == "" || strings.TrimSpace(spec.DefaultModel) == "" {
		return fmt.Errorf("register provider: id and default model are required")
	}
	spec.ID = id
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.specs[id]; !exists {
		f.order = append(f.order, id)
	}
	f.specs[id] = spec
	f.limiters[id] = newRPSLimiter(spec.RateLimit.RPS, spec.RateLimit.Burst)
	return nil
}

func (f *Factory) lookup(id string) (llmclient.ProviderSpec, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	spec, ok := f.specs[normalizeID(id)]
	return spec, ok
}

// limiter returns the request bucket shared by every Adapter of id.
func (f *Factory) limiter(id string) *rpsLimiter {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.limiters[normalizeID(id)]
}

// Create builds an Adapter for id; an empty id means DefaultProvider. A
// missing credential fails here, before any network call.
func (f *Factory) Create(ctx context.Context, id string) (*Adapter, error) {
	if strings.TrimSpace(id) == "" {
		id = f.DefaultProvider()
	}
	spec, ok := f.lookup(id)
	if !ok {
		return nil, &UnknownProviderError{ID: id}
	}
	key := f.cfg.Credentials.APIKey(spec.ID)
	if key == "" {
		return nil, &ConfigurationError{
			Provider: spec.ID,
			Reason:   fmt.Sprintf("missing API key (set %s)", spec.CredentialEnv),
		}
	}
	base, err := spec.Factory(ctx, key, f.cfg.ClientOptions[spec.ID])
	if err != nil {
		return nil, &ConfigurationError{Provider: spec.ID, Reason: "client init failed", Err: err}
	}
	log := f.cfg.Logger.With().Str("provider", spec.ID).Logger()
	return &Adapter{
		spec:       spec,
		client:     Wrap(base, WithLogging(log), withLimiter(f.limiter(spec.ID))),
		composer:   f.composer,
		schema:     f.schema,
		retry:      f.cfg.Retry,
		maxSources: f.cfg.MaxSources,
		log:        log,
	}, nil
}

// ListProviders returns descriptors in registration order.
func (f *Factory) ListProviders() []ProviderInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ProviderInfo, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, infoOf(f.specs[id]))
	}
	return out
}

// ListModels returns the model catalogue of id.
func (f *Factory) ListModels(id string) ([]llmclient.ModelInfo, error) {
	spec, ok := f.lookup(id)
	if !ok {
		return nil, &UnknownProviderError{ID: id}
	}
	return append([]llmclient.ModelInfo(nil), spec.Models...), nil
}

// Provider returns the descriptor of id.
func (f *Factory) Provider(id string) (ProviderInfo, bool) {
	spec, ok := f.lookup(id)
	if !ok {
		return ProviderInfo{}, false
	}
	return infoOf(spec), true
}

// DefaultProvider is the configured default when registered, then gemini,
// then the first registered provider.
func (f *Factory) DefaultProvider() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, id := range []string{normalizeID(f.cfg.DefaultProvider), DefaultProviderID} {
		if _, ok := f.specs[id]; ok {
			return id
		}
	}
	if len(f.order) > 0 {
		return f.order[0]
	}
	return ""
}

// Configured reports whether a credential is available for id.
func (f *Factory) Configured(id string) bool {
	spec, ok := f.lookup(id)
	return ok && f.cfg.Credentials.APIKey(spec.ID) != ""
}
