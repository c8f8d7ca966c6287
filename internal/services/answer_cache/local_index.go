package answer_cache

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/utils"
)

type localItem struct {
	vector []float32
	norm   float64
	entry  models.CacheEntry
}

// LocalIndex is an in-process cosine index. Lookups are a linear scan, which
// is fine for the few thousand entries a single node holds.
type LocalIndex struct {
	embedder Embedder
	capacity int

	mu    sync.RWMutex
	items map[string]*localItem
}

// NewLocalIndex creates an index that evicts the oldest entry once capacity
// is reached. capacity <= 0 means unbounded.
func NewLocalIndex(embedder Embedder, capacity int) *LocalIndex {
	return &LocalIndex{
		embedder: embedder,
		capacity: capacity,
		items:    make(map[string]*localItem),
	}
}

func (l *LocalIndex) Get(_ context.Context, id string) (*models.CacheEntry, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[id]
	if !ok {
		return nil, false, nil
	}
	entry := item.entry
	return &entry, true, nil
}

func (l *LocalIndex) Nearest(ctx context.Context, text string, minSimilarity float64) (*Neighbor, error) {
	vec, err := l.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qnorm := utils.Norm(vec)
	if qnorm == 0 {
		return nil, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		bestID  string
		bestSim = math.Inf(-1)
		best    *localItem
	)
	for id, item := range l.items {
		sim := utils.Cosine(vec, qnorm, item.vector, item.norm)
		if sim > bestSim || (sim == bestSim && id < bestID) {
			bestID, bestSim, best = id, sim, item
		}
	}
	if best == nil || bestSim < minSimilarity {
		return nil, nil
	}
	return &Neighbor{ID: bestID, Entry: best.entry, Distance: 1 - bestSim}, nil
}

func (l *LocalIndex) Upsert(ctx context.Context, id, text string, entry models.CacheEntry) error {
	vec, err := l.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.items[id]; !exists && l.capacity > 0 && len(l.items) >= l.capacity {
		l.evictOldestLocked()
	}
	l.items[id] = &localItem{vector: vec, norm: utils.Norm(vec), entry: entry}
	return nil
}

func (l *LocalIndex) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	delete(l.items, id)
	l.mu.Unlock()
	return nil
}

func (l *LocalIndex) Purge(_ context.Context) error {
	l.mu.Lock()
	l.items = make(map[string]*localItem)
	l.mu.Unlock()
	return nil
}

func (l *LocalIndex) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *LocalIndex) Close() error {
	return nil
}

func (l *LocalIndex) evictOldestLocked() {
	var (
		oldestID string
		oldest   *localItem
	)
	for id, item := range l.items {
		if oldest == nil || item.entry.CreatedAt.Before(oldest.entry.CreatedAt) {
			oldestID, oldest = id, item
		}
	}
	if oldest != nil {
		delete(l.items, oldestID)
	}
}
