package llmclient

import (
	"context"
	"errors"
	"iter"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1/"

// OpenAIClient streams chat completions through openai-go. It also serves
// OpenRouter, which exposes the same API under a different base URL.
type OpenAIClient struct {
	client   openai.Client
	provider string
	jsonMode bool
}

func NewOpenAIClient(apiKey string, opts Options) (*OpenAIClient, error) {
	return newOpenAICompatible("openai", apiKey, opts, true)
}

// NewOpenRouterClient targets OpenRouter. Free routes do not all honor
// response_format, so JSON output is requested through the prompt only.
func NewOpenRouterClient(apiKey string, opts Options) (*OpenAIClient, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = openRouterBaseURL
	}
	return newOpenAICompatible("openrouter", apiKey, opts, false,
		option.WithHeader("HTTP-Referer", "https://github.com/infographic"),
		option.WithHeader("X-Title", "Infographic"),
	)
}

func newOpenAICompatible(provider, apiKey string, opts Options, jsonMode bool, extra ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New(provider + ": API key is required")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	reqOpts = append(reqOpts, extra...)
	return &OpenAIClient{
		client:   openai.NewClient(reqOpts...),
		provider: provider,
		jsonMode: jsonMode,
	}, nil
}

func (c *OpenAIClient) Name() string { return c.provider }
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) Stream(ctx context.Context, req StreamRequest) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		params := openai.ChatCompletionNewParams{
			Model: openai.ChatModel(req.Model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.System),
				openai.UserMessage(req.User),
			},
		}
		if req.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
		}
		if c.jsonMode {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		}

		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			ev := stream.Current()
			if len(ev.Choices) == 0 {
				continue
			}
			delta := ev.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !yield(Chunk{Text: delta}, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(Chunk{}, c.wrapErr(err))
		}
	}
}

func (c *OpenAIClient) wrapErr(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var h http.Header
	if apiErr.Response != nil {
		h = apiErr.Response.Header
	}
	se := &StatusError{
		Provider:   c.provider,
		StatusCode: apiErr.StatusCode,
		Body:       truncateBody([]byte(apiErr.Message)),
		RateLimit:  parseRateLimitHeaders(h),
	}
	if apiErr.Code == "context_length_exceeded" {
		return NewPermanentError(se)
	}
	return se
}

func RegisterOpenAI(reg ProviderRegistrar) error {
	return reg.RegisterProvider(ProviderSpec{
		ID:               "openai",
		Name:             "OpenAI",
		DefaultModel:     "gpt-4o-mini",
		ReasoningModel:   "o4-mini",
		StructuredOutput: true,
		CredentialEnv:    "OPENAI_API_KEY",
		Models: []ModelInfo{
			{ID: "gpt-4o-mini", Name: "GPT-4o mini"},
			{ID: "gpt-4.1-mini", Name: "GPT-4.1 mini"},
			{ID: "gpt-4o", Name: "GPT-4o"},
			{ID: "o4-mini", Name: "o4-mini"},
		},
		RateLimit: RateLimitConfig{RPS: 1, Burst: 2},
		Factory: func(_ context.Context, apiKey string, opts Options) (StreamClient, error) {
			return NewOpenAIClient(apiKey, opts)
		},
	})
}

func RegisterOpenRouter(reg ProviderRegistrar) error {
	return reg.RegisterProvider(ProviderSpec{
		ID:             "openrouter",
		Name:           "OpenRouter",
		DefaultModel:   "deepseek/deepseek-chat-v3-0324:free",
		ReasoningModel: "deepseek/deepseek-r1:free",
		CredentialEnv:  "OPENROUTER_API_KEY",
		Models: []ModelInfo{
			{ID: "deepseek/deepseek-chat-v3-0324:free", Name: "DeepSeek V3", Free: true},
			{ID: "deepseek/deepseek-r1:free", Name: "DeepSeek R1", Free: true},
			{ID: "meta-llama/llama-3.3-70b-instruct:free", Name: "Llama 3.3 70B", Free: true},
			{ID: "google/gemini-2.0-flash-exp:free", Name: "Gemini 2.0 Flash (exp)", Free: true},
			{ID: "anthropic/claude-3.5-haiku", Name: "Claude 3.5 Haiku"},
		},
		RateLimit: RateLimitConfig{RPS: 0.33, Burst: 1},
		Factory: func(_ context.Context, apiKey string, opts Options) (StreamClient, error) {
			return NewOpenRouterClient(apiKey, opts)
		},
	})
}
