package llm

import (
	"strings"

	"github.com/Egham-7/pitchside/internal/models"
)

// listPrice is USD per 1M tokens.
type listPrice struct {
	input  float64
	output float64
}

var listPrices = map[models.ProviderType]map[string]listPrice{
	models.ProviderOpenAI: {
		"gpt-5":        {1.25, 10.0},
		"gpt-5-mini":   {0.25, 2.0},
		"gpt-5-nano":   {0.05, 0.4},
		"gpt-4.1":      {2.0, 8.0},
		"gpt-4.1-mini": {0.4, 1.6},
		"gpt-4.1-nano": {0.1, 0.4},
		"gpt-4o":       {2.5, 10.0},
		"gpt-4o-mini":  {0.15, 0.6},
	},
	models.ProviderAnthropic: {
		"claude-opus-4-1":            {15.0, 75.0},
		"claude-sonnet-4-5-20250929": {3.0, 15.0},
		"claude-3-5-sonnet-20241022": {3.0, 15.0},
		"claude-3-5-haiku-20241022":  {0.8, 4.0},
	},
	models.ProviderGemini: {
		"gemini-2.5-pro":        {1.25, 10.0},
		"gemini-2.5-flash":      {0.3, 2.5},
		"gemini-2.5-flash-lite": {0.1, 0.4},
		"gemini-2.0-flash":      {0.1, 0.4},
	},
}

// PricingFor returns the configured pricing when set, otherwise the list
// price of the model. Unknown models cost nothing.
func PricingFor(provider, model string, configured models.PricingConfig) models.PricingConfig {
	if configured.InputPer1K > 0 || configured.OutputPer1K > 0 {
		return configured
	}
	table, ok := listPrices[models.ProviderType(provider)]
	if !ok {
		return models.PricingConfig{}
	}
	price, ok := table[model]
	if !ok {
		// versioned names such as gpt-4o-mini-2024-07-18
		best := ""
		for name := range table {
			if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
				best = name
			}
		}
		if best == "" {
			return models.PricingConfig{}
		}
		price = table[best]
	}
	return models.PricingConfig{InputPer1K: price.input / 1000, OutputPer1K: price.output / 1000}
}
