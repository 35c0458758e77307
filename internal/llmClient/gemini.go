package llmclient

import (
	"context"
	"errors"
	"iter"
	"strings"

	genai "google.golang.org/genai"

	"infographic/internal/report"
)

// GeminiClient streams from the Gemini API through the official genai SDK.
// It is the only backend that supports Google Search grounding.
type GeminiClient struct {
	cli *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Stream(ctx context.Context, req StreamRequest) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.User}}}}
		for resp, err := range g.cli.Models.GenerateContentStream(ctx, req.Model, contents, geminiConfig(req)) {
			if err != nil {
				yield(Chunk{}, wrapGeminiErr(err))
				return
			}
			chunk := chunkFromResponse(resp)
			if chunk.Text == "" && len(chunk.Sources) == 0 {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// wrapGeminiErr turns SDK API errors into StatusError so a rejected key is
// recognized the same way for every backend.
func wrapGeminiErr(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var p *genai.APIError
		if !errors.As(err, &p) || p == nil {
			return err
		}
		apiErr = *p
	}
	return &StatusError{
		Provider:   "gemini",
		StatusCode: apiErr.Code,
		Body:       truncateBody([]byte(apiErr.Message)),
	}
}

func geminiConfig(req StreamRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.EnableSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		return cfg
	}
	cfg.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		cfg.ResponseSchema = toGenaiSchema(req.Schema)
	}
	return cfg
}

// chunkFromResponse extracts visible text (thought parts are skipped) and web
// grounding citations from one streamed response.
func chunkFromResponse(resp *genai.GenerateContentResponse) Chunk {
	var out Chunk
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			b.WriteString(p.Text)
		}
		out.Text = b.String()
	}
	if gm := cand.GroundingMetadata; gm != nil {
		for _, gc := range gm.GroundingChunks {
			if gc == nil || gc.Web == nil || gc.Web.URI == "" {
				continue
			}
			out.Sources = append(out.Sources, report.Source{Title: gc.Web.Title, URI: gc.Web.URI})
		}
	}
	return out
}

func toGenaiSchema(s *report.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case report.TypeObject:
		out.Type = genai.TypeObject
	case report.TypeArray:
		out.Type = genai.TypeArray
	case report.TypeString:
		out.Type = genai.TypeString
	case report.TypeNumber:
		out.Type = genai.TypeNumber
	case report.TypeInteger:
		out.Type = genai.TypeInteger
	case report.TypeBoolean:
		out.Type = genai.TypeBoolean
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenaiSchema(v)
		}
	}
	for _, a := range s.AnyOf {
		out.AnyOf = append(out.AnyOf, toGenaiSchema(a))
	}
	return out
}

func RegisterGemini(reg ProviderRegistrar) error {
	return reg.RegisterProvider(ProviderSpec{
		ID:               "gemini",
		Name:             "Google Gemini",
		DefaultModel:     "gemini-2.5-flash",
		ReasoningModel:   "gemini-2.5-pro",
		SupportsSearch:   true,
		StructuredOutput: true,
		CredentialEnv:    "GEMINI_API_KEY",
		Models: []ModelInfo{
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Free: true},
			{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite", Free: true},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
		},
		RateLimit: RateLimitConfig{RPS: 0.25, Burst: 1},
		Factory: func(ctx context.Context, apiKey string, opts Options) (StreamClient, error) {
			return NewGeminiClient(ctx, apiKey, opts)
		},
	})
}
