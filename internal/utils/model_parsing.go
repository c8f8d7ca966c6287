package utils

import (
	"fmt"
	"strings"
)

// SplitModelSpec splits "provider:model". A bare model name resolves to
// defaultProvider. Empty parts and extra colons are rejected.
func SplitModelSpec(spec, defaultProvider string) (provider, model string, err error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return "", "", fmt.Errorf("model specification cannot be empty")
	}

	parts := strings.Split(trimmed, ":")
	switch len(parts) {
	case 1:
		if defaultProvider == "" {
			return "", "", fmt.Errorf("no provider in model %q and no default provider", spec)
		}
		return defaultProvider, trimmed, nil
	case 2:
		provider = strings.TrimSpace(parts[0])
		model = strings.TrimSpace(parts[1])
		if provider == "" || model == "" {
			return "", "", fmt.Errorf("model specification %q must be provider:model", spec)
		}
		return provider, model, nil
	default:
		return "", "", fmt.Errorf("model specification %q has more than one colon", spec)
	}
}
