package models

// RAGConfig configures knowledge retrieval ahead of generation.
type RAGConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	DefaultTopK     int    `yaml:"default_top_k" json:"default_top_k"`
	MaxTopK         int    `yaml:"max_top_k" json:"max_top_k"`
	EmbeddingModel  string `yaml:"embedding_model" json:"embedding_model"`
	TimeoutMs       int    `yaml:"timeout_ms" json:"timeout_ms,omitzero"`
	MaxContextChars int    `yaml:"max_context_chars" json:"max_context_chars,omitzero"`
}

// LiveDataKind decides which TTL applies to a provider's cached responses.
type LiveDataKind string

const (
	LiveDataAPI   LiveDataKind = "api"
	LiveDataMedia LiveDataKind = "media"
)

// LiveDataProviderConfig describes one external JSON data source consulted
// for realtime questions (fixtures, standings, highlights).
type LiveDataProviderConfig struct {
	Name       string       `yaml:"name" json:"name"`
	Kind       LiveDataKind `yaml:"kind" json:"kind"`
	URL        string       `yaml:"url" json:"url"`
	APIKey     string       `yaml:"api_key" json:"-"`
	AuthHeader string       `yaml:"auth_header" json:"auth_header,omitzero"`
	TimeoutMs  int          `yaml:"timeout_ms" json:"timeout_ms,omitzero"`
	MaxRetries int          `yaml:"max_retries" json:"max_retries,omitzero"`
}

type LiveDataConfig struct {
	Enabled   bool                     `yaml:"enabled" json:"enabled"`
	Providers []LiveDataProviderConfig `yaml:"providers" json:"providers"`
}

// RouterConfig extends the built-in realtime and safe keyword lists.
type RouterConfig struct {
	ExtraRealtimeKeywords []string `yaml:"extra_realtime_keywords" json:"extra_realtime_keywords,omitzero"`
	ExtraSafeKeywords     []string `yaml:"extra_safe_keywords" json:"extra_safe_keywords,omitzero"`
	SafeMinMatches        int      `yaml:"safe_min_matches" json:"safe_min_matches,omitzero"`
	// ExtraEntities adds player, club and league aliases keyed by canonical name.
	ExtraEntities map[string][]string `yaml:"extra_entities" json:"extra_entities,omitzero"`
}

type ComplexityConfig struct {
	LengthThreshold int `yaml:"length_threshold" json:"length_threshold,omitzero"`
	ComplexTopK     int `yaml:"complex_top_k" json:"complex_top_k,omitzero"`
}
