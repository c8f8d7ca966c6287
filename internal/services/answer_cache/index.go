package answer_cache

import (
	"context"

	"github.com/Egham-7/pitchside/internal/models"
)

// Neighbor is the closest stored entry to a query. Distance is 1 - cosine
// similarity.
type Neighbor struct {
	ID       string
	Entry    models.CacheEntry
	Distance float64
}

// Index is the similarity store behind the answer cache. Implementations
// must be safe for concurrent use; Upsert on an existing id overwrites it.
type Index interface {
	// Get returns the entry stored under id.
	Get(ctx context.Context, id string) (*models.CacheEntry, bool, error)
	// Nearest returns the closest entry whose similarity is at least
	// minSimilarity, or nil when there is none.
	Nearest(ctx context.Context, text string, minSimilarity float64) (*Neighbor, error)
	Upsert(ctx context.Context, id, text string, entry models.CacheEntry) error
	Delete(ctx context.Context, id string) error
	Purge(ctx context.Context) error
	Close() error
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
