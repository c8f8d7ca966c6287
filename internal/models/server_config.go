package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port             string `json:"port,omitzero" yaml:"port"`
	AllowedOrigins   string `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment      string `json:"environment,omitzero" yaml:"environment"`
	LogLevel         string `json:"log_level,omitzero" yaml:"log_level"`
	RequestTimeoutMs int    `json:"request_timeout_ms,omitzero" yaml:"request_timeout_ms"`
	RateLimitPerMin  int    `json:"rate_limit_per_min,omitzero" yaml:"rate_limit_per_min"`
}

// RedisConfig is the shared Redis connection used by the API cache, circuit
// breakers and health checks.
type RedisConfig struct {
	URL string `json:"url,omitzero" yaml:"url"`
}

// AdminConfig protects the /admin routes. An empty secret leaves them open.
type AdminConfig struct {
	JWTSecret string `json:"-" yaml:"jwt_secret"`
	Issuer    string `json:"issuer,omitzero" yaml:"issuer"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitzero" yaml:"path"`
}

// UsageConfig controls the asynchronous answer log.
type UsageConfig struct {
	Enabled   bool `json:"enabled" yaml:"enabled"`
	Workers   int  `json:"workers,omitzero" yaml:"workers"`
	QueueSize int  `json:"queue_size,omitzero" yaml:"queue_size"`
}
