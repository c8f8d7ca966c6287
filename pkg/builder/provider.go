package builder

import (
	"strings"

	"github.com/Egham-7/pitchside/internal/models"
)

type ProviderBuilder struct {
	apiKey    string
	baseURL   string
	timeoutMs int
	headers   map[string]string
}

func NewProviderBuilder(apiKey string) *ProviderBuilder {
	return &ProviderBuilder{
		apiKey:  apiKey,
		headers: make(map[string]string),
	}
}

func (pb *ProviderBuilder) WithBaseURL(url string) *ProviderBuilder {
	pb.baseURL = url
	return pb
}

func (pb *ProviderBuilder) WithTimeout(ms int) *ProviderBuilder {
	pb.timeoutMs = ms
	return pb
}

func (pb *ProviderBuilder) WithHeader(key, value string) *ProviderBuilder {
	pb.headers[key] = value
	return pb
}

func (pb *ProviderBuilder) Build() models.ProviderConfig {
	return models.ProviderConfig{
		APIKey:    pb.apiKey,
		BaseURL:   pb.baseURL,
		TimeoutMs: pb.timeoutMs,
		Headers:   pb.headers,
	}
}

// AddProvider registers credentials under name (openai, anthropic or gemini).
// The first provider added becomes the default for generation.
func (b *Builder) AddProvider(name string, cfg models.ProviderConfig) *Builder {
	name = strings.ToLower(name)
	b.cfg.LLM.Providers[name] = cfg
	if b.cfg.LLM.Provider == "" {
		b.cfg.LLM.Provider = name
	}
	return b
}

// UseModels sets the default provider and the models for simple and complex
// questions. Either model may carry a provider:model override.
func (b *Builder) UseModels(provider, simpleModel, complexModel string) *Builder {
	b.cfg.LLM.Provider = strings.ToLower(provider)
	b.cfg.LLM.SimpleModel = simpleModel
	b.cfg.LLM.ComplexModel = complexModel
	return b
}

// WithPricing overrides list prices when estimating cost_saved.
func (b *Builder) WithPricing(inputPer1K, outputPer1K float64) *Builder {
	b.cfg.LLM.Pricing = models.PricingConfig{InputPer1K: inputPer1K, OutputPer1K: outputPer1K}
	return b
}

func (b *Builder) WithCircuitBreaker(cfg models.CircuitBreakerConfig) *Builder {
	b.cfg.LLM.CircuitBreaker = &cfg
	return b
}
