package llm

import (
	"context"
	"fmt"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/openai/openai-go/v2"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder turns text into vectors for the local cache index and the
// knowledge store.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(cfg models.ProviderConfig, model string) (*OpenAIEmbedder, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, wrapError(string(models.ProviderOpenAI), err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response has no data")
	}

	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}
