package llmclient

import (
	"context"
	"iter"
	"net/http"

	"infographic/internal/report"
)

// Chunk is one increment of a streamed response.
type Chunk struct {
	Text    string
	Sources []report.Source
}

// StreamRequest is the backend-neutral request for one generation attempt.
type StreamRequest struct {
	Model        string
	System       string
	User         string
	MaxTokens    int
	EnableSearch bool
	// Schema is used by backends with structured output. It is ignored when
	// search is enabled, since grounded requests cannot carry a schema.
	Schema *report.Schema
}

// StreamClient is a thin wrapper around one vendor API. It only focuses on
// the wire call; retries, rate limits and logging are layered on top.
type StreamClient interface {
	Name() string
	Stream(ctx context.Context, req StreamRequest) iter.Seq2[Chunk, error]
	Close() error
}

// Options overrides transport details, mostly for tests and proxies.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}
