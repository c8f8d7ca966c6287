package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Egham-7/pitchside/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSimilarityThreshold     = 0.75
	defaultHighConfidenceThreshold = 0.9
	defaultKeywordThreshold        = 0.5
	defaultKeywordGeneralWeight    = 0.6
	defaultKeywordCoreWeight       = 0.4
	defaultAnswerTTLDays           = 7
	defaultAPICacheTTLHours        = 1
	defaultMediaCacheTTLHours      = 24
	defaultCacheCapacity           = 5000
	defaultIndexTimeoutMs          = 2000
	defaultMaxQueryChars           = 500
	defaultEmbeddingModel          = "text-embedding-3-small"
	defaultJudgeTimeoutMs          = 8000
	defaultJudgeMaxAnswerChars     = 500
	defaultJudgeMaxTokens          = 200
	defaultLLMTimeoutMs            = 60000
	defaultLLMMaxTokens            = 1024
	defaultRAGTopK                 = 5
	defaultRAGMaxTopK              = 20
	defaultRAGTimeoutMs            = 5000
	defaultRAGMaxContextChars      = 6000
	defaultComplexLength           = 80
)

// Environment overrides recognized on top of the YAML file.
const (
	EnvSimilarityThreshold = "SIMILARITY_THRESHOLD"
	EnvKeywordThreshold    = "KEYWORD_MATCH_THRESHOLD"
	EnvAnswerCacheTTLDays  = "ANSWER_CACHE_TTL_DAYS"
	EnvAPICacheTTLHours    = "API_CACHE_TTL_HOURS"
	EnvMediaCacheTTLHours  = "MEDIA_CACHE_TTL_HOURS"
)

// Config represents the complete application configuration
type Config struct {
	Server     models.ServerConfig      `yaml:"server"`
	Cache      models.AnswerCacheConfig `yaml:"cache"`
	APICache   models.APICacheConfig    `yaml:"api_cache"`
	Judge      models.JudgeConfig       `yaml:"judge"`
	LLM        models.LLMConfig         `yaml:"llm"`
	RAG        models.RAGConfig         `yaml:"rag"`
	LiveData   models.LiveDataConfig    `yaml:"live_data"`
	Router     models.RouterConfig      `yaml:"router"`
	Complexity models.ComplexityConfig  `yaml:"complexity"`
	Redis      models.RedisConfig       `yaml:"redis"`
	Admin      models.AdminConfig       `yaml:"admin"`
	Metrics    models.MetricsConfig     `yaml:"metrics"`
	Usage      models.UsageConfig       `yaml:"usage"`
	Database   *models.DatabaseConfig   `yaml:"database,omitempty"`
}

// LoadFromFile loads configuration from a YAML file with environment variable
// substitution, applies environment overrides and fills defaults.
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML content into a Config.
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if cfg.LLM.Providers != nil {
		normalized := make(map[string]models.ProviderConfig, len(cfg.LLM.Providers))
		for key, value := range cfg.LLM.Providers {
			normalized[strings.ToLower(key)] = value
		}
		cfg.LLM.Providers = normalized
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	cfg.Judge.Provider = strings.ToLower(cfg.Judge.Provider)

	if err := cfg.applyEnvOverrides(os.Getenv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	overrides := []struct {
		name   string
		target *float64
	}{
		{EnvSimilarityThreshold, &c.Cache.SimilarityThreshold},
		{EnvKeywordThreshold, &c.Cache.KeywordThreshold},
		{EnvAnswerCacheTTLDays, &c.Cache.TTLDays},
		{EnvAPICacheTTLHours, &c.APICache.TTLHours},
		{EnvMediaCacheTTLHours, &c.APICache.MediaTTLHours},
	}

	for _, o := range overrides {
		raw := strings.TrimSpace(getenv(o.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", o.name, raw, err)
		}
		fiberlog.Debugf("Config: %s overrides YAML value with %v", o.name, v)
		*o.target = v
	}
	return nil
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = "*"
	}
	if c.Server.RequestTimeoutMs <= 0 {
		c.Server.RequestTimeoutMs = 90000
	}
	if c.Server.RateLimitPerMin <= 0 {
		c.Server.RateLimitPerMin = 600
	}

	cache := &c.Cache
	if cache.Backend == "" {
		cache.Backend = models.CacheBackendMemory
	}
	if cache.Capacity <= 0 {
		cache.Capacity = defaultCacheCapacity
	}
	if cache.EmbeddingModel == "" {
		cache.EmbeddingModel = defaultEmbeddingModel
	}
	if cache.SimilarityThreshold == 0 {
		cache.SimilarityThreshold = defaultSimilarityThreshold
	}
	if cache.HighConfidenceThreshold == 0 {
		cache.HighConfidenceThreshold = defaultHighConfidenceThreshold
	}
	if cache.KeywordThreshold == 0 {
		cache.KeywordThreshold = defaultKeywordThreshold
	}
	if cache.KeywordGeneralWeight == 0 && cache.KeywordCoreWeight == 0 {
		cache.KeywordGeneralWeight = defaultKeywordGeneralWeight
		cache.KeywordCoreWeight = defaultKeywordCoreWeight
	}
	if cache.TTLDays == 0 {
		cache.TTLDays = defaultAnswerTTLDays
	}
	if cache.IndexTimeoutMs <= 0 {
		cache.IndexTimeoutMs = defaultIndexTimeoutMs
	}
	if cache.MaxQueryChars <= 0 {
		cache.MaxQueryChars = defaultMaxQueryChars
	}
	if cache.RedisURL == "" {
		cache.RedisURL = c.Redis.URL
	}
	if cache.OpenAIAPIKey == "" {
		cache.OpenAIAPIKey = c.LLM.Providers[string(models.ProviderOpenAI)].APIKey
	}

	if c.APICache.Backend == "" {
		c.APICache.Backend = models.APICacheBackendMemory
	}
	if c.APICache.Capacity <= 0 {
		c.APICache.Capacity = 1000
	}
	if c.APICache.TTLHours == 0 {
		c.APICache.TTLHours = defaultAPICacheTTLHours
	}
	if c.APICache.MediaTTLHours == 0 {
		c.APICache.MediaTTLHours = defaultMediaCacheTTLHours
	}
	if c.APICache.KeyPrefix == "" {
		c.APICache.KeyPrefix = "pitchside:api:"
	}

	if c.Judge.Provider == "" {
		c.Judge.Provider = c.LLM.Provider
	}
	if c.Judge.Model == "" {
		c.Judge.Model = c.LLM.SimpleModel
	}
	if c.Judge.TimeoutMs <= 0 {
		c.Judge.TimeoutMs = defaultJudgeTimeoutMs
	}
	if c.Judge.MaxAnswerChars <= 0 {
		c.Judge.MaxAnswerChars = defaultJudgeMaxAnswerChars
	}
	if c.Judge.MaxTokens <= 0 {
		c.Judge.MaxTokens = defaultJudgeMaxTokens
	}

	if c.LLM.ComplexModel == "" {
		c.LLM.ComplexModel = c.LLM.SimpleModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if c.LLM.TimeoutMs <= 0 {
		c.LLM.TimeoutMs = defaultLLMTimeoutMs
	}

	if c.RAG.DefaultTopK <= 0 {
		c.RAG.DefaultTopK = defaultRAGTopK
	}
	if c.RAG.MaxTopK <= 0 {
		c.RAG.MaxTopK = defaultRAGMaxTopK
	}
	if c.RAG.EmbeddingModel == "" {
		c.RAG.EmbeddingModel = cache.EmbeddingModel
	}
	if c.RAG.TimeoutMs <= 0 {
		c.RAG.TimeoutMs = defaultRAGTimeoutMs
	}
	if c.RAG.MaxContextChars <= 0 {
		c.RAG.MaxContextChars = defaultRAGMaxContextChars
	}

	if c.Router.SafeMinMatches <= 0 {
		c.Router.SafeMinMatches = 2
	}
	if c.Complexity.LengthThreshold <= 0 {
		c.Complexity.LengthThreshold = defaultComplexLength
	}
	if c.Complexity.ComplexTopK <= 0 {
		c.Complexity.ComplexTopK = c.RAG.DefaultTopK * 2
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Usage.Workers <= 0 {
		c.Usage.Workers = 4
	}
	if c.Usage.QueueSize <= 0 {
		c.Usage.QueueSize = 1000
	}
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetProviderConfig returns the configuration for a named LLM provider
func (c *Config) GetProviderConfig(provider string) (models.ProviderConfig, bool) {
	cfg, ok := c.LLM.Providers[strings.ToLower(provider)]
	return cfg, ok
}

// Validate checks required fields and threshold ranges.
func (c *Config) Validate() error {
	verr := &ValidationError{}

	if c.Server.Port == "" {
		verr.MissingFields = append(verr.MissingFields, "server.port")
	}
	if c.LLM.Provider == "" {
		verr.MissingFields = append(verr.MissingFields, "llm.provider")
	} else if _, ok := c.GetProviderConfig(c.LLM.Provider); !ok {
		verr.InvalidFields = append(verr.InvalidFields, "llm.provider (not in llm.providers)")
	}
	if c.LLM.SimpleModel == "" {
		verr.MissingFields = append(verr.MissingFields, "llm.simple_model")
	}
	if c.Judge.Enabled {
		if _, ok := c.GetProviderConfig(c.Judge.Provider); !ok {
			verr.InvalidFields = append(verr.InvalidFields, "judge.provider (not in llm.providers)")
		}
	}

	unit := func(name string, v float64) {
		if v <= 0 || v > 1 {
			verr.InvalidFields = append(verr.InvalidFields, name+" (must be in (0, 1])")
		}
	}
	unit("cache.similarity_threshold", c.Cache.SimilarityThreshold)
	unit("cache.high_confidence_threshold", c.Cache.HighConfidenceThreshold)
	unit("cache.keyword_threshold", c.Cache.KeywordThreshold)
	if c.Cache.HighConfidenceThreshold < c.Cache.SimilarityThreshold {
		verr.InvalidFields = append(verr.InvalidFields, "cache.high_confidence_threshold (below similarity_threshold)")
	}
	if c.Cache.KeywordGeneralWeight < 0 || c.Cache.KeywordCoreWeight < 0 {
		verr.InvalidFields = append(verr.InvalidFields, "cache.keyword_*_weight (negative)")
	}
	if c.Cache.TTLDays <= 0 {
		verr.InvalidFields = append(verr.InvalidFields, "cache.ttl_days (must be positive)")
	}
	if c.APICache.TTLHours <= 0 || c.APICache.MediaTTLHours <= 0 {
		verr.InvalidFields = append(verr.InvalidFields, "api_cache ttl (must be positive)")
	}

	switch c.Cache.Backend {
	case models.CacheBackendMemory, models.CacheBackendRedis, models.CacheBackendLocal:
	default:
		verr.InvalidFields = append(verr.InvalidFields, "cache.backend (memory, redis or local)")
	}
	if c.Cache.Backend == models.CacheBackendRedis && c.Cache.RedisURL == "" {
		verr.MissingFields = append(verr.MissingFields, "cache.redis_url")
	}
	if c.APICache.Backend == models.APICacheBackendRedis && c.Redis.URL == "" {
		verr.MissingFields = append(verr.MissingFields, "redis.url")
	}

	if len(verr.MissingFields) > 0 || len(verr.InvalidFields) > 0 {
		return verr
	}
	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
	InvalidFields []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing required configuration fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		parts = append(parts, "invalid configuration fields: "+strings.Join(e.InvalidFields, ", "))
	}
	return strings.Join(parts, "; ")
}
