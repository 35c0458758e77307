package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"infographic/internal/llm/stream"
	llmclient "infographic/internal/llmClient"
	"infographic/internal/prompt"
	"infographic/internal/report"
)

// Options tunes one generation. Zero values select defaults.
type Options struct {
	Model        string          `json:"model,omitempty"`
	Language     prompt.Language `json:"language,omitempty"`
	EnableSearch bool            `json:"enableSearch,omitempty"`
	MaxTokens    int             `json:"maxTokens,omitempty"`
	SectionCount int             `json:"sectionCount,omitempty"`
}

// Adapter implements the uniform generation contract on top of one backend.
// It is safe for concurrent use; each call owns its own Accumulator.
type Adapter struct {
	spec       llmclient.ProviderSpec
	client     llmclient.StreamClient
	composer   *prompt.Composer
	schema     *report.Schema
	retry      RetryPolicy
	maxSources int
	log        zerolog.Logger
}

// ID is the provider id.
func (a *Adapter) ID() string { return a.spec.ID }

// Info is the provider's capability descriptor.
func (a *Adapter) Info() ProviderInfo { return infoOf(a.spec) }

func (a *Adapter) Close() error { return a.client.Close() }

// ResolveModel picks the model for opts: an explicit model, then the
// reasoning variant when MaxTokens is set, then the default.
func (a *Adapter) ResolveModel(opts Options) string {
	switch {
	case opts.Model != "":
		return opts.Model
	case opts.MaxTokens > 0 && a.spec.ReasoningModel != "":
		return a.spec.ReasoningModel
	}
	return a.spec.DefaultModel
}

// GenerateInfographic streams a Report about topic. onPartial, when non-nil,
// receives every displayable snapshot in arrival order. A fresh attempt
// restarts the snapshot sequence.
func (a *Adapter) GenerateInfographic(ctx context.Context, topic string, onPartial func(*report.Report), opts Options) (*report.Report, error) {
	lang := opts.Language
	if lang == "" {
		lang = prompt.English
	}
	search := opts.EnableSearch && a.spec.SupportsSearch
	req := llmclient.StreamRequest{
		Model:        a.ResolveModel(opts),
		System:       a.composer.BuildSystemInstruction(opts.SectionCount, lang, true),
		User:         prompt.UserInstruction(topic, lang),
		MaxTokens:    opts.MaxTokens,
		EnableSearch: search,
	}
	if a.spec.StructuredOutput {
		req.Schema = a.schema
	}

	policy := a.retry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		a.log.Warn().Err(err).
			Str("provider", a.spec.ID).
			Str("model", req.Model).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("generation attempt failed; retrying")
	}

	var out *report.Report
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := a.attempt(ctx, req, onPartial)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err == nil {
		return out, nil
	}

	var cfgErr *ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return nil, err
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%s: generation canceled: %w", a.spec.ID, ctx.Err())
	}
	a.log.Error().Err(err).Str("provider", a.spec.ID).Int("attempts", attempts).Msg("generation failed")
	return nil, &GenerationFailedError{Provider: a.spec.ID, Attempts: attempts, Err: err}
}

// attempt runs one stream through a fresh Accumulator.
func (a *Adapter) attempt(ctx context.Context, req llmclient.StreamRequest, onPartial func(*report.Report)) (*report.Report, error) {
	acc := stream.New(onPartial)
	srcs := newSourceSet(a.maxSources)

	for chunk, err := range a.client.Stream(ctx, req) {
		if err != nil {
			return nil, a.classify(ctx, err)
		}
		acc.Feed(chunk.Text)
		srcs.add(chunk.Sources...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := acc.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &MalformedOutputError{Provider: a.spec.ID, Err: llmclient.ErrEmptyResponse}
	}
	r, err := acc.Finalize(text)
	if err != nil {
		return nil, &MalformedOutputError{Provider: a.spec.ID, Length: len(text), Err: err}
	}
	return r.WithSources(mergeSources(r.Sources, srcs.list(), a.maxSources)), nil
}

func (a *Adapter) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var se *llmclient.StatusError
	if errors.As(err, &se) && se.Unauthorized() {
		return &ConfigurationError{Provider: a.spec.ID, Reason: "credential rejected", Err: err}
	}
	var pe *llmclient.PermanentError
	if errors.As(err, &pe) {
		return err
	}
	return &TransientBackendError{Provider: a.spec.ID, Err: err}
}

// mergeSources keeps sources the model wrote into the document and appends
// grounding citations collected from the stream.
func mergeSources(inline, grounded []report.Source, limit int) []report.Source {
	set := newSourceSet(limit)
	set.add(inline...)
	set.add(grounded...)
	return set.list()
}
