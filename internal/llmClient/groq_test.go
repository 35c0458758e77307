package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
			w.(http.Flusher).Flush()
		}
	}))
}

func deltaEvent(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "c1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "m",
		"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": text}, "finish_reason": nil}},
	})
	return string(b)
}

func collect(t *testing.T, c StreamClient, req StreamRequest) (string, error) {
	t.Helper()
	var b strings.Builder
	for chunk, err := range c.Stream(context.Background(), req) {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk.Text)
	}
	return b.String(), nil
}

func TestGroq_StreamsDeltasUntilDone(t *testing.T) {
	var got groqChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range []string{`{"title":`, `"T","sections"`, `:[]}`} {
			fmt.Fprintf(w, "data: %s\n\n", deltaEvent(d))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprintf(w, "data: %s\n\n", deltaEvent("ignored"))
	}))
	defer srv.Close()

	c, err := NewGroqClient("k", Options{BaseURL: srv.URL})
	require.NoError(t, err)
	text, err := collect(t, c, StreamRequest{Model: "llama", System: "sys", User: "topic", MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"T","sections":[]}`, text)

	assert.True(t, got.Stream)
	assert.Equal(t, "llama", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
}

func TestGroq_StatusErrorCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	}))
	defer srv.Close()

	c, err := NewGroqClient("k", Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = collect(t, c, StreamRequest{Model: "m"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, 7*time.Second, se.RetryAfter())
	assert.Contains(t, se.Error(), "slow down")
}

func TestGroq_ContextLengthIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":"context_length_exceeded"}}`)
	}))
	defer srv.Close()

	c, err := NewGroqClient("k", Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = collect(t, c, StreamRequest{Model: "m"})
	var pe *PermanentError
	assert.ErrorAs(t, err, &pe)
}

func TestGroq_InlineStreamError(t *testing.T) {
	srv := sseServer(t, deltaEvent(`{"ti`), `{"error":{"message":"overloaded"}}`)
	defer srv.Close()

	c, err := NewGroqClient("k", Options{BaseURL: srv.URL})
	require.NoError(t, err)
	text, err := collect(t, c, StreamRequest{Model: "m"})
	assert.Equal(t, `{"ti`, text)
	assert.ErrorContains(t, err, "overloaded")
}

func TestGroq_RequiresKey(t *testing.T) {
	_, err := NewGroqClient("", Options{})
	assert.Error(t, err)
}

func TestRateLimitHeaders_NextWait(t *testing.T) {
	h := http.Header{}
	assert.Zero(t, parseRateLimitHeaders(h).NextWait())

	h.Set("X-Ratelimit-Remaining-Requests", "0")
	h.Set("X-Ratelimit-Reset-Requests", "2.5s")
	assert.Equal(t, 2500*time.Millisecond, parseRateLimitHeaders(h).NextWait())

	h.Set("X-Ratelimit-Remaining-Tokens", "0")
	h.Set("X-Ratelimit-Reset-Tokens", "4s")
	assert.Equal(t, 4*time.Second, parseRateLimitHeaders(h).NextWait())
}
