package llmclient

import "context"

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Free bool   `json:"free,omitempty"`
}

// RateLimitConfig bounds request rate per provider. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type ClientFactory func(ctx context.Context, apiKey string, opts Options) (StreamClient, error)

// ProviderSpec is the static description of one backend.
type ProviderSpec struct {
	ID             string
	Name           string
	DefaultModel   string
	ReasoningModel string
	SupportsSearch bool
	// StructuredOutput is set for backends that enforce a response schema.
	StructuredOutput bool
	CredentialEnv    string
	Models           []ModelInfo
	RateLimit        RateLimitConfig
	Factory          ClientFactory
}

type ProviderRegistrar interface {
	RegisterProvider(spec ProviderSpec) error
}

// RegisterAll registers every built-in backend.
func RegisterAll(reg ProviderRegistrar) error {
	for _, register := range []func(ProviderRegistrar) error{
		RegisterGemini,
		RegisterOpenAI,
		RegisterOpenRouter,
		RegisterGroq,
	} {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}
