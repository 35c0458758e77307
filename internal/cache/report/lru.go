package reportcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"infographic/internal/report"
)

// LRU is an in-process cache bounded by entry count and TTL.
type LRU struct {
	lru *expirable.LRU[string, *report.Report]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRU{lru: expirable.NewLRU[string, *report.Report](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) (*report.Report, bool) {
	r, ok := c.lru.Get(key)
	if !ok || r == nil {
		return nil, false
	}
	return r.WithSources(r.Sources), true
}

func (c *LRU) Put(_ context.Context, key string, r *report.Report) {
	if r == nil {
		return
	}
	c.lru.Add(key, r.WithSources(r.Sources))
}

func (c *LRU) Len() int { return c.lru.Len() }
