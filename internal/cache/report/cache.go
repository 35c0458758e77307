// Package reportcache memoizes finished reports by request fingerprint.
package reportcache

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"infographic/internal/report"
)

const DefaultTTL = time.Hour

// Cache stores finished reports. Implementations treat backend failures
// as misses.
type Cache interface {
	Get(ctx context.Context, key string) (*report.Report, bool)
	Put(ctx context.Context, key string, r *report.Report)
}

// KeyParts identifies a generation request for caching.
type KeyParts struct {
	Provider     string
	Model        string
	Language     string
	SectionCount int
	Search       bool
	Topic        string
}

// Key derives the cache key for p. Provider and model are case-folded and
// the topic is whitespace-normalized.
func Key(p KeyParts) string {
	topic := strings.Join(strings.Fields(strings.ToLower(p.Topic)), " ")
	hash := sha1.Sum(fmt.Appendf(nil, "%s|%s|%s|%d|%t|%s",
		strings.ToLower(strings.TrimSpace(p.Provider)),
		strings.ToLower(strings.TrimSpace(p.Model)),
		strings.ToLower(strings.TrimSpace(p.Language)),
		p.SectionCount, p.Search, topic))
	return fmt.Sprintf("infographic:v1:report:%x", hash)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*report.Report, bool) { return nil, false }
func (Noop) Put(context.Context, string, *report.Report)        {}

type MetricsSnapshot struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Writes uint64 `json:"writes"`
}

// Instrumented counts hits, misses and writes of the wrapped cache.
type Instrumented struct {
	inner  Cache
	hits   atomic.Uint64
	misses atomic.Uint64
	writes atomic.Uint64
}

func WithMetrics(inner Cache) *Instrumented {
	if inner == nil {
		inner = Noop{}
	}
	return &Instrumented{inner: inner}
}

func (c *Instrumented) Get(ctx context.Context, key string) (*report.Report, bool) {
	r, ok := c.inner.Get(ctx, key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

func (c *Instrumented) Put(ctx context.Context, key string, r *report.Report) {
	if r == nil {
		return
	}
	c.writes.Add(1)
	c.inner.Put(ctx, key, r)
}

func (c *Instrumented) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Writes: c.writes.Load(),
	}
}
