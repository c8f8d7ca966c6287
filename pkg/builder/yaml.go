package builder

import (
	"github.com/Egham-7/pitchside/internal/config"
	"github.com/Egham-7/pitchside/internal/models"
)

// FromYAML starts from a config file so code can adjust individual settings.
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]models.ProviderConfig)
	}
	return &Builder{cfg: cfg}, nil
}
