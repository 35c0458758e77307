package llmclient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when a backend closes a stream without text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// StatusError is a non-2xx response from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RateLimit  RateLimitHeaders
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, body)
}

// Unauthorized reports a rejected credential.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// RetryAfter is the wait the backend asked for, or zero.
func (e *StatusError) RetryAfter() time.Duration {
	return e.RateLimit.NextWait()
}

const maxErrorBody = 2048

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
