package llm

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// RetryPolicy is a bounded retry loop with linear backoff: the wait after
// attempt n is n × BaseDelay. It has no I/O of its own.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait after the given 1-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.base()
}

// Do runs fn until it succeeds, returns a non-retryable error, ctx is done or
// MaxAttempts is reached. It returns the number of attempts made and the last
// error. A backend that asks for a longer wait (Retry-After) gets it.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	max := p.MaxAttempts
	if max < 1 {
		max = DefaultMaxAttempts
	}
	var last error
	for attempt := 1; attempt <= max; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		last = err
		if !retryable(err) {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if attempt == max {
			break
		}
		delay := p.Delay(attempt)
		if hint := retryAfter(err); hint > delay {
			delay = hint
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
	return max, last
}

func (p RetryPolicy) base() time.Duration {
	if p.BaseDelay <= 0 {
		return DefaultBaseDelay
	}
	return p.BaseDelay
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type retryAfterHinter interface {
	RetryAfter() time.Duration
}

func retryAfter(err error) time.Duration {
	var h retryAfterHinter
	if errors.As(err, &h) {
		return h.RetryAfter()
	}
	return 0
}
