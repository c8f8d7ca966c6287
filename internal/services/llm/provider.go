package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/Egham-7/pitchside/internal/models"
)

// Request is a single-turn completion request. JSONSchema, when set, asks the
// provider for structured output matching the schema.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature *float64
	JSONSchema  *Schema
}

type Schema struct {
	Name   string
	Schema map[string]any
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

type Response struct {
	Text     string
	Model    string
	Provider string
	Usage    Usage
}

// Provider is an LLM backend able to answer a single prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Cost prices token usage in USD.
func Cost(pricing models.PricingConfig, usage Usage) float64 {
	return float64(usage.InputTokens)/1000*pricing.InputPer1K +
		float64(usage.OutputTokens)/1000*pricing.OutputPer1K
}

// wrapError turns an SDK error into an AppError, keeping deadline errors
// distinguishable from provider failures.
func wrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewTimeoutError(provider+" completion", err)
	}
	return models.NewProviderError(provider, "completion request failed", err)
}

func emptyResponseError(provider string) error {
	return models.NewProviderError(provider, "empty completion", nil)
}

func trimText(s string) string {
	return strings.TrimSpace(s)
}
