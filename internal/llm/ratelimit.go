package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// rpsLimiter throttles to at most rps requests per second with a burst
// capacity. A nil limiter never blocks.
type rpsLimiter struct {
	lim *rate.Limiter
}

// newRPSLimiter returns nil when rps <= 0.
func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rpsLimiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Acquire blocks until a token is available or the context is canceled.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	r := l.lim.Reserve()
	wait := r.Delay()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
