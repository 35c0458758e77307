package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders holds the rate-limit signals of an OpenAI-compatible
// response (Groq, OpenAI and OpenRouter share the header names).
type RateLimitHeaders struct {
	RetryAfter        time.Duration
	RemainingRequests int
	RemainingTokens   int
	ResetRequests     time.Duration
	ResetTokens       time.Duration
	found             bool
}

// NextWait converts the signals into a wait before the next request.
func (h RateLimitHeaders) NextWait() time.Duration {
	if !h.found {
		return 0
	}
	if h.RetryAfter > 0 {
		return h.RetryAfter
	}
	if h.RemainingTokens == 0 && h.ResetTokens > 0 {
		return h.ResetTokens
	}
	if h.RemainingRequests == 0 && h.ResetRequests > 0 {
		return h.ResetRequests
	}
	return 0
}

func parseRateLimitHeaders(h http.Header) RateLimitHeaders {
	out := RateLimitHeaders{RemainingRequests: -1, RemainingTokens: -1}
	if h == nil {
		return out
	}
	readInt := func(key string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
		return n, err == nil
	}
	readDur := func(key string) (time.Duration, bool) {
		d, err := time.ParseDuration(strings.TrimSpace(h.Get(key)))
		return d, err == nil
	}
	if n, ok := readInt("Retry-After"); ok {
		out.RetryAfter = time.Duration(n) * time.Second
		out.found = true
	}
	if n, ok := readInt("X-Ratelimit-Remaining-Requests"); ok {
		out.RemainingRequests = n
		out.found = true
	}
	if n, ok := readInt("X-Ratelimit-Remaining-Tokens"); ok {
		out.RemainingTokens = n
		out.found = true
	}
	if d, ok := readDur("X-Ratelimit-Reset-Requests"); ok {
		out.ResetRequests = d
		out.found = true
	}
	if d, ok := readDur("X-Ratelimit-Reset-Tokens"); ok {
		out.ResetTokens = d
		out.found = true
	}
	return out
}
