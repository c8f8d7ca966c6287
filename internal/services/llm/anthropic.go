package llm

import (
	"context"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 1024

type AnthropicProvider struct {
	client anthropic.Client
}

func NewAnthropicProvider(cfg models.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError(string(models.ProviderAnthropic), "API key not configured", nil)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		clientOpts = append(clientOpts, option.WithHeader(key, value))
	}
	if cfg.TimeoutMs > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(time.Duration(cfg.TimeoutMs)*time.Millisecond))
	}

	return &AnthropicProvider{client: anthropic.NewClient(clientOpts...)}, nil
}

func (p *AnthropicProvider) Name() string { return string(models.ProviderAnthropic) }

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	system := req.System
	if req.JSONSchema != nil {
		system = strings.TrimSpace(system + "\nRespond with a single JSON object and nothing else.")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(p.Name(), err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, emptyResponseError(p.Name())
	}

	return &Response{
		Text:     trimText(sb.String()),
		Model:    string(resp.Model),
		Provider: p.Name(),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
