package answer_cache

import (
	"context"
	"fmt"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/botirk38/semanticcache"
	"github.com/botirk38/semanticcache/options"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// SemanticIndex adapts a semanticcache instance (LRU or Redis backend, OpenAI
// embeddings) to the Index interface.
type SemanticIndex struct {
	cache *semanticcache.SemanticCache[string, models.CacheEntry]
}

// NewSemanticIndex creates the index for the memory or redis backend.
func NewSemanticIndex(cfg models.AnswerCacheConfig) (*SemanticIndex, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set in cache configuration")
	}

	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	var (
		cache *semanticcache.SemanticCache[string, models.CacheEntry]
		err   error
	)

	switch cfg.Backend {
	case models.CacheBackendMemory:
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = 1000
			fiberlog.Warnf("AnswerCache: Invalid or missing capacity, using default %d", capacity)
		}
		fiberlog.Debugf("AnswerCache: Using in-memory LRU backend with capacity=%d", capacity)
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.CacheEntry](cfg.OpenAIAPIKey, embedModel),
			options.WithLRUBackend[string, models.CacheEntry](capacity),
		)

	case models.CacheBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis URL not set for redis backend")
		}
		fiberlog.Debugf("AnswerCache: Using Redis backend with URL=%s", cfg.RedisURL)
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.CacheEntry](cfg.OpenAIAPIKey, embedModel),
			options.WithRedisBackend[string, models.CacheEntry](cfg.RedisURL, 0),
		)

	default:
		return nil, fmt.Errorf("unsupported semantic cache backend: %s (supported: redis, memory)", cfg.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create semantic cache: %w", err)
	}
	return &SemanticIndex{cache: cache}, nil
}

// Get, Nearest and Upsert go through the async API: semanticcache embeds
// without honouring ctx, so the select is what bounds a stalled provider.
func (s *SemanticIndex) Get(ctx context.Context, id string) (*models.CacheEntry, bool, error) {
	select {
	case res := <-s.cache.GetAsync(ctx, id):
		if res.Error != nil || !res.Found {
			return nil, false, res.Error
		}
		entry := res.Value
		return &entry, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *SemanticIndex) Nearest(ctx context.Context, text string, minSimilarity float64) (*Neighbor, error) {
	var res semanticcache.LookupResult[models.CacheEntry]
	select {
	case res = <-s.cache.LookupAsync(ctx, text, float32(minSimilarity)):
	case <-ctx.Done():
		return nil, fmt.Errorf("semantic lookup: %w", ctx.Err())
	}
	if res.Error != nil {
		return nil, fmt.Errorf("semantic lookup: %w", res.Error)
	}
	if res.Match == nil {
		return nil, nil
	}
	return &Neighbor{
		ID:       res.Match.Value.QueryHash,
		Entry:    res.Match.Value,
		Distance: 1 - float64(res.Match.Score),
	}, nil
}

func (s *SemanticIndex) Upsert(ctx context.Context, id, text string, entry models.CacheEntry) error {
	select {
	case err := <-s.cache.SetAsync(ctx, id, text, entry):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SemanticIndex) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, id)
}

func (s *SemanticIndex) Purge(ctx context.Context) error {
	return s.cache.Flush(ctx)
}

func (s *SemanticIndex) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
