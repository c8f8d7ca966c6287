package llm

import (
	"testing"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPricingFor(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		model      string
		configured models.PricingConfig
		want       models.PricingConfig
	}{
		{"configured wins", "openai", "gpt-4o", models.PricingConfig{InputPer1K: 1}, models.PricingConfig{InputPer1K: 1}},
		{"list price", "openai", "gpt-4o-mini", models.PricingConfig{}, models.PricingConfig{InputPer1K: 0.00015, OutputPer1K: 0.0006}},
		{"dated model", "openai", "gpt-4o-mini-2024-07-18", models.PricingConfig{}, models.PricingConfig{InputPer1K: 0.00015, OutputPer1K: 0.0006}},
		{"unknown model", "gemini", "gemini-0.1", models.PricingConfig{}, models.PricingConfig{}},
		{"unknown provider", "mistral", "large", models.PricingConfig{}, models.PricingConfig{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PricingFor(tt.provider, tt.model, tt.configured)
			assert.InDelta(t, tt.want.InputPer1K, got.InputPer1K, 1e-12)
			assert.InDelta(t, tt.want.OutputPer1K, got.OutputPer1K, 1e-12)
		})
	}
}
