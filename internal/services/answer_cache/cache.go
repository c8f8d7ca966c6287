package answer_cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultSimilarityThreshold     = 0.75
	defaultHighConfidenceThreshold = 0.9
	defaultTTL                     = 7 * 24 * time.Hour
	defaultIndexTimeout            = 2 * time.Second
)

// Options tune the answer cache.
type Options struct {
	SimilarityThreshold     float64
	HighConfidenceThreshold float64
	TTL                     time.Duration
	IndexTimeout            time.Duration
	MaxQueryChars           int
	// Now is the clock used for created_at and TTL checks.
	Now func() time.Time
}

// OptionsFromConfig converts the YAML cache section.
func OptionsFromConfig(cfg models.AnswerCacheConfig) Options {
	return Options{
		SimilarityThreshold:     cfg.SimilarityThreshold,
		HighConfidenceThreshold: cfg.HighConfidenceThreshold,
		TTL:                     time.Duration(cfg.TTLDays * float64(24*time.Hour)),
		IndexTimeout:            time.Duration(cfg.IndexTimeoutMs) * time.Millisecond,
		MaxQueryChars:           cfg.MaxQueryChars,
	}
}

func (o Options) withDefaults() Options {
	if o.SimilarityThreshold <= 0 || o.SimilarityThreshold > 1 {
		o.SimilarityThreshold = defaultSimilarityThreshold
	}
	if o.HighConfidenceThreshold <= 0 || o.HighConfidenceThreshold > 1 {
		o.HighConfidenceThreshold = defaultHighConfidenceThreshold
	}
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
	if o.IndexTimeout <= 0 {
		o.IndexTimeout = defaultIndexTimeout
	}
	if o.MaxQueryChars <= 0 {
		o.MaxQueryChars = defaultMaxQueryChars
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stats are cumulative counters since construction.
type Stats struct {
	Lookups        int64 `json:"lookups"`
	Hits           int64 `json:"hits"`
	ExactHits      int64 `json:"exact_hits"`
	Misses         int64 `json:"misses"`
	Expired        int64 `json:"expired"`
	Errors         int64 `json:"errors"`
	Inserts        int64 `json:"inserts"`
	InsertFailures int64 `json:"insert_failures"`
}

// AnswerCache stores generated answers keyed by normalized query and finds
// the closest previous answer for a new query. It owns the similarity index;
// index failures are reported as misses and failed inserts, never as errors.
type AnswerCache struct {
	index Index
	opts  Options

	lookups        atomic.Int64
	hits           atomic.Int64
	exactHits      atomic.Int64
	misses         atomic.Int64
	expired        atomic.Int64
	errors         atomic.Int64
	inserts        atomic.Int64
	insertFailures atomic.Int64
}

func New(index Index, opts Options) *AnswerCache {
	return &AnswerCache{index: index, opts: opts.withDefaults()}
}

// NewFromConfig builds the configured backend. The local backend needs an
// embedder; memory and redis embed through semanticcache.
func NewFromConfig(cfg models.AnswerCacheConfig, embedder Embedder) (*AnswerCache, error) {
	var (
		index Index
		err   error
	)
	switch cfg.Backend {
	case models.CacheBackendLocal:
		if embedder == nil {
			return nil, fmt.Errorf("local cache backend requires an embedder")
		}
		index = NewLocalIndex(embedder, cfg.Capacity)
	default:
		index, err = NewSemanticIndex(cfg)
		if err != nil {
			return nil, err
		}
	}
	fiberlog.Infof("AnswerCache: Initialized backend=%s similarity=%.2f high_confidence=%.2f ttl_days=%.1f",
		cfg.Backend, cfg.SimilarityThreshold, cfg.HighConfidenceThreshold, cfg.TTLDays)
	return New(index, OptionsFromConfig(cfg)), nil
}

// Enabled reports whether the cache has an index. A disabled cache misses
// every lookup.
func (c *AnswerCache) Enabled() bool {
	return c != nil && c.index != nil
}

func (c *AnswerCache) SimilarityThreshold() float64 {
	return c.opts.SimilarityThreshold
}

func (c *AnswerCache) HighConfidenceThreshold() float64 {
	return c.opts.HighConfidenceThreshold
}

// IsHighConfidence reports whether a match may skip keyword and judge checks.
func (c *AnswerCache) IsHighConfidence(similarity float64) bool {
	return similarity >= c.opts.HighConfidenceThreshold
}

// Lookup returns the closest cached answer, or nil when the cache is empty,
// the best match is under the similarity threshold, the entry has outlived
// its TTL, or the index fails.
func (c *AnswerCache) Lookup(ctx context.Context, query, requestID string) *models.SimilarityMatch {
	if c == nil || c.index == nil {
		return nil
	}
	c.lookups.Add(1)

	norm := Normalize(query, c.opts.MaxQueryChars)
	if norm == "" {
		c.misses.Add(1)
		return nil
	}
	id := QueryHash(norm)

	res, err := withIndexTimeout(ctx, c.opts.IndexTimeout, func(ctx context.Context) (found, error) {
		return c.find(ctx, id, norm)
	})
	entry, similarity, exact := res.entry, res.similarity, res.exact
	if err != nil {
		c.errors.Add(1)
		c.misses.Add(1)
		fiberlog.Warnf("[%s] AnswerCache: Index unavailable, treating as miss: %v", requestID, err)
		return nil
	}
	if entry == nil || similarity < c.opts.SimilarityThreshold {
		c.misses.Add(1)
		fiberlog.Debugf("[%s] AnswerCache: Miss", requestID)
		return nil
	}

	age := entry.Age(c.opts.Now())
	if age > c.opts.TTL {
		c.expired.Add(1)
		c.misses.Add(1)
		fiberlog.Debugf("[%s] AnswerCache: Entry %s expired (age %s)", requestID, entry.QueryHash, age.Round(time.Minute))
		c.evictAsync(entry.QueryHash, entry.CreatedAt)
		return nil
	}

	c.hits.Add(1)
	if exact {
		c.exactHits.Add(1)
	}
	fiberlog.Infof("[%s] AnswerCache: Hit (similarity %.3f, exact %t)", requestID, similarity, exact)

	return &models.SimilarityMatch{
		Entry:      *entry,
		Answer:     entry.Answer,
		Similarity: similarity,
		AgeInDays:  age.Hours() / 24,
	}
}

type found struct {
	entry      *models.CacheEntry
	similarity float64
	exact      bool
}

// find tries the exact id first, then the nearest neighbour.
func (c *AnswerCache) find(ctx context.Context, id, norm string) (found, error) {
	entry, ok, err := c.index.Get(ctx, id)
	if err != nil {
		return found{}, fmt.Errorf("exact lookup: %w", err)
	}
	if ok {
		return found{entry: entry, similarity: 1, exact: true}, nil
	}

	nb, err := c.index.Nearest(ctx, norm, c.opts.SimilarityThreshold)
	if err != nil || nb == nil {
		return found{}, err
	}
	if nb.Entry.QueryHash == "" {
		nb.Entry.QueryHash = nb.ID
	}
	return found{entry: &nb.Entry, similarity: clampSimilarity(1 - nb.Distance)}, nil
}

// withIndexTimeout runs fn under timeout and returns at the deadline even
// when the index ignores ctx. A late result is dropped.
func withIndexTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(ctx)
		done <- result{val, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("index call abandoned: %w", ctx.Err())
	}
}

// Insert stores an answer under the normalized query's hash, overwriting any
// previous answer for the same query. It reports whether the write succeeded.
func (c *AnswerCache) Insert(ctx context.Context, query, answer string, meta models.EntryMetadata, requestID string) bool {
	if c == nil || c.index == nil {
		return false
	}
	norm := Normalize(query, c.opts.MaxQueryChars)
	if norm == "" || answer == "" {
		c.insertFailures.Add(1)
		return false
	}
	id := QueryHash(norm)

	entry := models.CacheEntry{
		QueryHash:       id,
		NormalizedQuery: norm,
		QueryPreview:    preview(query),
		Answer:          answer,
		CreatedAt:       c.opts.Now().UTC(),
		Metadata:        meta.Sanitize(),
	}

	_, err := withIndexTimeout(ctx, c.opts.IndexTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.index.Upsert(ctx, id, norm, entry)
	})
	if err != nil {
		c.insertFailures.Add(1)
		fiberlog.Warnf("[%s] AnswerCache: Insert failed for %s: %v", requestID, id, err)
		return false
	}
	c.inserts.Add(1)
	fiberlog.Debugf("[%s] AnswerCache: Stored %s", requestID, id)
	return true
}

// Remove deletes the entry for a query. It is a no-op on a disabled cache.
func (c *AnswerCache) Remove(ctx context.Context, query string) error {
	if c == nil || c.index == nil {
		return nil
	}
	norm := Normalize(query, c.opts.MaxQueryChars)
	if norm == "" {
		return fmt.Errorf("empty query")
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.IndexTimeout)
	defer cancel()
	return c.index.Delete(ctx, QueryHash(norm))
}

// Purge drops every entry. It is a no-op on a disabled cache.
func (c *AnswerCache) Purge(ctx context.Context) error {
	if c == nil || c.index == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.IndexTimeout)
	defer cancel()
	if err := c.index.Purge(ctx); err != nil {
		return fmt.Errorf("purge answer cache: %w", err)
	}
	fiberlog.Info("AnswerCache: Purged all entries")
	return nil
}

func (c *AnswerCache) Stats() Stats {
	return Stats{
		Lookups:        c.lookups.Load(),
		Hits:           c.hits.Load(),
		ExactHits:      c.exactHits.Load(),
		Misses:         c.misses.Load(),
		Expired:        c.expired.Load(),
		Errors:         c.errors.Load(),
		Inserts:        c.inserts.Load(),
		InsertFailures: c.insertFailures.Load(),
	}
}

// Close closes the cache and releases resources
func (c *AnswerCache) Close() error {
	if c == nil || c.index == nil {
		return nil
	}
	return c.index.Close()
}

// evictAsync removes an expired entry unless it has been rewritten since.
func (c *AnswerCache) evictAsync(id string, createdAt time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.IndexTimeout)
		defer cancel()
		current, ok, err := c.index.Get(ctx, id)
		if err != nil || !ok || !current.CreatedAt.Equal(createdAt) {
			return
		}
		if err := c.index.Delete(ctx, id); err != nil {
			fiberlog.Debugf("AnswerCache: Failed to evict expired entry %s: %v", id, err)
		}
	}()
}

func clampSimilarity(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
