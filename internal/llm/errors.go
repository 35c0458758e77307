package llm

import (
	"context"
	"errors"
	"fmt"

	llmclient "infographic/internal/llmClient"
)

// ConfigurationError is a missing or rejected credential. It is raised before
// any network I/O when the key is absent and is never retried.
type ConfigurationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: configuration error: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: configuration error: %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// UnknownProviderError is returned for ids the Factory does not know.
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.ID)
}

// TransientBackendError wraps a network failure or non-2xx response during
// one attempt.
type TransientBackendError struct {
	Provider string
	Err      error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("%s: backend error: %v", e.Provider, e.Err)
}

func (e *TransientBackendError) Unwrap() error { return e.Err }

// MalformedOutputError means the stream completed but no Report could be
// recovered from Length bytes of output.
type MalformedOutputError struct {
	Provider string
	Length   int
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s: malformed output (%d bytes): %v", e.Provider, e.Length, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// GenerationFailedError is the terminal error after the retry policy gave up.
type GenerationFailedError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("%s: generation failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// Error kinds exposed to clients.
const (
	KindConfiguration    = "configuration"
	KindUnknownProvider  = "unknown_provider"
	KindGenerationFailed = "generation_failed"
	KindCanceled         = "canceled"
	KindInternal         = "internal"
)

// ErrorKind classifies err so callers can tell a missing credential apart
// from a failed generation.
func ErrorKind(err error) string {
	var (
		cfgErr     *ConfigurationError
		unknownErr *UnknownProviderError
		genErr     *GenerationFailedError
		malErr     *MalformedOutputError
		backendErr *TransientBackendError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &unknownErr):
		return KindUnknownProvider
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &genErr), errors.As(err, &malErr), errors.As(err, &backendErr):
		return KindGenerationFailed
	}
	return KindInternal
}

func retryable(err error) bool {
	var (
		cfgErr  *ConfigurationError
		permErr *llmclient.PermanentError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &permErr):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
