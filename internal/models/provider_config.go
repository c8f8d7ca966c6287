package models

// ProviderType names a supported LLM SDK.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGemini    ProviderType = "gemini"
)

// ProviderConfig holds credentials and transport settings for one LLM provider.
type ProviderConfig struct {
	APIKey    string            `yaml:"api_key" json:"-"`
	BaseURL   string            `yaml:"base_url" json:"base_url,omitzero"`
	TimeoutMs int               `yaml:"timeout_ms" json:"timeout_ms,omitzero"`
	Headers   map[string]string `yaml:"headers" json:"headers,omitzero"`
}

// PricingConfig is the price of generation in USD per 1K tokens, used to
// estimate cost_saved on cache hits.
type PricingConfig struct {
	InputPer1K  float64 `yaml:"input_per_1k" json:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" json:"output_per_1k"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	Providers    map[string]ProviderConfig `yaml:"providers" json:"providers"`
	Provider     string                    `yaml:"provider" json:"provider"`
	SimpleModel  string                    `yaml:"simple_model" json:"simple_model"`
	ComplexModel string                    `yaml:"complex_model" json:"complex_model"`
	MaxTokens    int                       `yaml:"max_tokens" json:"max_tokens,omitzero"`
	Temperature  float64                   `yaml:"temperature" json:"temperature,omitzero"`
	TimeoutMs    int                       `yaml:"timeout_ms" json:"timeout_ms,omitzero"`
	SystemPrompt string                    `yaml:"system_prompt" json:"-"`
	Pricing      PricingConfig             `yaml:"pricing" json:"pricing"`
	// CircuitBreaker enables the Redis-backed breaker per provider.
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuit_breaker,omitempty" json:"circuit_breaker,omitempty"`
}

// JudgeConfig configures the cache judge call.
type JudgeConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Provider       string `yaml:"provider" json:"provider"`
	Model          string `yaml:"model" json:"model"`
	TimeoutMs      int    `yaml:"timeout_ms" json:"timeout_ms,omitzero"`
	MaxAnswerChars int    `yaml:"max_answer_chars" json:"max_answer_chars,omitzero"`
	MaxTokens      int    `yaml:"max_tokens" json:"max_tokens,omitzero"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold" json:"success_threshold"`
	TimeoutMs        int `yaml:"timeout_ms" json:"timeout_ms"`
	ResetAfterMs     int `yaml:"reset_after_ms" json:"reset_after_ms"`
}
