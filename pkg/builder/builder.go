package builder

import (
	"github.com/Egham-7/pitchside/internal/config"
	"github.com/Egham-7/pitchside/internal/models"
)

// Builder assembles a pitchside configuration in code, for programs that
// embed the server instead of shipping a config.yaml.
type Builder struct {
	cfg *config.Config
}

func New() *Builder {
	return &Builder{
		cfg: &config.Config{
			Server: models.ServerConfig{
				Port:           "8080",
				AllowedOrigins: "*",
				Environment:    "development",
				LogLevel:       "info",
			},
			LLM: models.LLMConfig{
				Providers: make(map[string]models.ProviderConfig),
			},
			Cache: models.AnswerCacheConfig{
				Enabled: true,
				Backend: models.CacheBackendMemory,
			},
			Judge:   models.JudgeConfig{Enabled: true},
			Metrics: models.MetricsConfig{Enabled: true},
		},
	}
}

// Build fills defaults and returns the configuration. Call Validate on the
// result, or let Server.Run do it.
func (b *Builder) Build() *config.Config {
	b.cfg.ApplyDefaults()
	return b.cfg
}
