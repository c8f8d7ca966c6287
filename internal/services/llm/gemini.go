package llm

import (
	"context"
	"fmt"

	"github.com/Egham-7/pitchside/internal/models"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, cfg models.ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError(string(models.ProviderGemini), "API key not configured", nil)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string { return string(models.ProviderGemini) }

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	genCfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		genCfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.JSONSchema != nil {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.User), genCfg)
	if err != nil {
		return nil, wrapError(p.Name(), err)
	}

	text := trimText(resp.Text())
	if text == "" {
		return nil, emptyResponseError(p.Name())
	}

	out := &Response{
		Text:     text,
		Model:    req.Model,
		Provider: p.Name(),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
