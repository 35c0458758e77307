package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible) with
// stream=true and reads the server-sent events itself.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

func NewGroqClient(apiKey string, opts Options) (*GroqClient, error) {
	if apiKey == "" {
		return nil, errors.New("groq: API key is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		// Streams are bounded by the request context, not a client timeout.
		hc = &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 60 * time.Second}}
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = groqBaseURL
	}
	return &GroqClient{http: hc, apiKey: apiKey, baseURL: base}, nil
}

func (g *GroqClient) Name() string { return "groq" }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model          string            `json:"model"`
	Messages       []groqMessage     `json:"messages"`
	Stream         bool              `json:"stream"`
	MaxTokens      int               `json:"max_completion_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type groqStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *GroqClient) Stream(ctx context.Context, req StreamRequest) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		body, err := g.open(ctx, req)
		if err != nil {
			yield(Chunk{}, err)
			return
		}
		defer body.Close()

		sc := bufio.NewScanner(body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}
			var ev groqStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				yield(Chunk{}, fmt.Errorf("groq: decode event: %w", err))
				return
			}
			if ev.Error != nil {
				yield(Chunk{}, fmt.Errorf("groq: stream error: %s", ev.Error.Message))
				return
			}
			if len(ev.Choices) == 0 || ev.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(Chunk{Text: ev.Choices[0].Delta.Content}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Chunk{}, fmt.Errorf("groq: read stream: %w", err))
		}
	}
}

func (g *GroqClient) open(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	reqBody := groqChatReq{
		Model: req.Model,
		Messages: []groqMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Stream:         true,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{
			Provider:   "groq",
			StatusCode: resp.StatusCode,
			Body:       truncateBody(raw),
			RateLimit:  parseRateLimitHeaders(resp.Header),
		}
		// Check for context length exceeded (permanent error)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(raw), `"code":"context_length_exceeded"`) {
			return nil, NewPermanentError(se)
		}
		return nil, se
	}
	return resp.Body, nil
}

func RegisterGroq(reg ProviderRegistrar) error {
	return reg.RegisterProvider(ProviderSpec{
		ID:               "groq",
		Name:             "Groq",
		DefaultModel:     "llama-3.3-70b-versatile",
		ReasoningModel:   "openai/gpt-oss-120b",
		StructuredOutput: true,
		CredentialEnv:    "GROQ_API_KEY",
		Models: []ModelInfo{
			{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", Free: true},
			{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", Free: true},
			{ID: "openai/gpt-oss-120b", Name: "GPT-OSS 120B", Free: true},
			{ID: "moonshotai/kimi-k2-instruct", Name: "Kimi K2", Free: true},
		},
		RateLimit: RateLimitConfig{RPS: 0.5, Burst: 1},
		Factory: func(_ context.Context, apiKey string, opts Options) (StreamClient, error) {
			return NewGroqClient(apiKey, opts)
		},
	})
}
