package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

type OpenAIProvider struct {
	client *openai.Client
}

func newOpenAIClient(cfg models.ProviderConfig) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, models.NewProviderError(string(models.ProviderOpenAI), "API key not configured", nil)
	}

	opts := []openaiOption.RequestOption{
		openaiOption.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(cfg.BaseURL))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}
	if cfg.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	return &client, nil
}

func NewOpenAIProvider(cfg models.ProviderConfig) (*OpenAIProvider, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAIProvider{client: client}, nil
}

func (p *OpenAIProvider) Name() string { return string(models.ProviderOpenAI) }

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.JSONSchema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.JSONSchema.Name,
					Schema: req.JSONSchema.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(p.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, emptyResponseError(p.Name())
	}

	return &Response{
		Text:     trimText(resp.Choices[0].Message.Content),
		Model:    resp.Model,
		Provider: p.Name(),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
