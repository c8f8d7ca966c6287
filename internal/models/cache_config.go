package models

// CacheBackendType selects the index behind the answer cache.
type CacheBackendType string

const (
	CacheBackendRedis  CacheBackendType = "redis"
	CacheBackendMemory CacheBackendType = "memory"
	// CacheBackendLocal is an in-process cosine index over the configured embedder.
	CacheBackendLocal CacheBackendType = "local"
)

// AnswerCacheConfig holds the answer cache and the thresholds of the
// similarity -> keyword -> judge funnel.
type AnswerCacheConfig struct {
	Enabled  bool             `json:"enabled" yaml:"enabled"`
	Backend  CacheBackendType `json:"backend,omitzero" yaml:"backend"`
	RedisURL string           `json:"redis_url,omitzero" yaml:"redis_url"`
	Capacity int              `json:"capacity,omitzero" yaml:"capacity"`

	OpenAIAPIKey   string `json:"openai_api_key,omitzero" yaml:"openai_api_key"`
	EmbeddingModel string `json:"embedding_model,omitzero" yaml:"embedding_model"`

	SimilarityThreshold     float64 `json:"similarity_threshold,omitzero" yaml:"similarity_threshold"`
	HighConfidenceThreshold float64 `json:"high_confidence_threshold,omitzero" yaml:"high_confidence_threshold"`
	KeywordThreshold        float64 `json:"keyword_threshold,omitzero" yaml:"keyword_threshold"`
	KeywordGeneralWeight    float64 `json:"keyword_general_weight,omitzero" yaml:"keyword_general_weight"`
	KeywordCoreWeight       float64 `json:"keyword_core_weight,omitzero" yaml:"keyword_core_weight"`

	TTLDays        float64 `json:"ttl_days,omitzero" yaml:"ttl_days"`
	IndexTimeoutMs int     `json:"index_timeout_ms,omitzero" yaml:"index_timeout_ms"`
	MaxQueryChars  int     `json:"max_query_chars,omitzero" yaml:"max_query_chars"`
}

// APICacheBackendType selects where third-party API responses are cached.
type APICacheBackendType string

const (
	APICacheBackendMemory APICacheBackendType = "memory"
	APICacheBackendRedis  APICacheBackendType = "redis"
)

// APICacheConfig controls caching of live data provider responses.
type APICacheConfig struct {
	Backend       APICacheBackendType `json:"backend,omitzero" yaml:"backend"`
	Capacity      int                 `json:"capacity,omitzero" yaml:"capacity"`
	TTLHours      float64             `json:"ttl_hours,omitzero" yaml:"ttl_hours"`
	MediaTTLHours float64             `json:"media_ttl_hours,omitzero" yaml:"media_ttl_hours"`
	KeyPrefix     string              `json:"key_prefix,omitzero" yaml:"key_prefix"`
}
