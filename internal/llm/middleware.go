package llm

import (
	"context"
	"iter"
	"time"

	"github.com/rs/zerolog"

	llmclient "infographic/internal/llmClient"
)

// Middleware decorates a StreamClient with a cross-cutting concern (rate
// limiting, logging).
type Middleware func(llmclient.StreamClient) llmclient.StreamClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.StreamClient, mws ...Middleware) llmclient.StreamClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// withLimiter delays the start of each stream until rl grants a token. rl is
// shared by every client of one provider; a nil limiter is a no-op.
func withLimiter(rl *rpsLimiter) Middleware {
	return func(next llmclient.StreamClient) llmclient.StreamClient {
		if rl == nil {
			return next
		}
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next llmclient.StreamClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Stream(ctx context.Context, req llmclient.StreamRequest) iter.Seq2[llmclient.Chunk, error] {
	return func(yield func(llmclient.Chunk, error) bool) {
		if err := c.rl.Acquire(ctx); err != nil {
			yield(llmclient.Chunk{}, err)
			return
		}
		for chunk, err := range c.next.Stream(ctx, req) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}

// -------- Logging --------

// WithLogging logs each stream's model, size, duration and failure.
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next llmclient.StreamClient) llmclient.StreamClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.StreamClient
	log  zerolog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Stream(ctx context.Context, req llmclient.StreamRequest) iter.Seq2[llmclient.Chunk, error] {
	return func(yield func(llmclient.Chunk, error) bool) {
		start := time.Now()
		var bytes, chunks, sources int
		l.log.Debug().
			Str("provider", l.next.Name()).
			Str("model", req.Model).
			Int("prompt_bytes", len(req.System)+len(req.User)).
			Bool("search", req.EnableSearch).
			Msg("LLM stream start")

		for chunk, err := range l.next.Stream(ctx, req) {
			if err != nil {
				l.log.Warn().Err(err).
					Str("provider", l.next.Name()).
					Str("model", req.Model).
					Int("bytes", bytes).
					Dur("elapsed", time.Since(start)).
					Msg("LLM stream error")
				yield(chunk, err)
				return
			}
			chunks++
			bytes += len(chunk.Text)
			sources += len(chunk.Sources)
			if !yield(chunk, nil) {
				return
			}
		}
		l.log.Info().
			Str("provider", l.next.Name()).
			Str("model", req.Model).
			Int("chunks", chunks).
			Int("bytes", bytes).
			Int("sources", sources).
			Dur("elapsed", time.Since(start)).
			Msg("LLM stream done")
	}
}
