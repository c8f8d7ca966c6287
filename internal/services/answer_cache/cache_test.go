package answer_cache

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEmbedder hashes each word into one of 64 buckets. Identical texts get
// identical vectors; texts sharing words are similar.
type wordEmbedder struct {
	err error
}

func (w *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if w.err != nil {
		return nil, w.err
	}
	vec := make([]float32, 64)
	for _, word := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	return vec, nil
}

// stubIndex returns a fixed neighbour or error.
type stubIndex struct {
	neighbor *Neighbor
	err      error
	upserts  int
}

func (s *stubIndex) Get(context.Context, string) (*models.CacheEntry, bool, error) {
	return nil, false, s.err
}

func (s *stubIndex) Nearest(_ context.Context, _ string, minSimilarity float64) (*Neighbor, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.neighbor == nil || 1-s.neighbor.Distance < minSimilarity {
		return nil, nil
	}
	return s.neighbor, nil
}

func (s *stubIndex) Upsert(context.Context, string, string, models.CacheEntry) error {
	s.upserts++
	return s.err
}

func (s *stubIndex) Delete(context.Context, string) error { return s.err }
func (s *stubIndex) Purge(context.Context) error          { return s.err }
func (s *stubIndex) Close() error                         { return nil }

// stalledEmbedder blocks until release is closed and ignores ctx.
type stalledEmbedder struct {
	release chan struct{}
}

func (s *stalledEmbedder) Embed(context.Context, string) ([]float32, error) {
	<-s.release
	return make([]float32, 64), nil
}

func newLocalCache(now *time.Time) (*AnswerCache, *LocalIndex) {
	idx := NewLocalIndex(&wordEmbedder{}, 100)
	opts := Options{}
	if now != nil {
		opts.Now = func() time.Time { return *now }
	}
	return New(idx, opts), idx
}

func TestInsertIsIdempotent(t *testing.T) {
	cache, idx := newLocalCache(nil)
	ctx := context.Background()

	require.True(t, cache.Insert(ctx, "손흥민 최근 폼은?", "first", models.EntryMetadata{}, "test"))
	require.True(t, cache.Insert(ctx, "손흥민 최근 폼은?", "second", models.EntryMetadata{}, "test"))

	assert.Equal(t, 1, idx.Len())
	match := cache.Lookup(ctx, "손흥민 최근 폼은?", "test")
	require.NotNil(t, match)
	assert.Equal(t, "second", match.Answer)
}

func TestLookupIsNormalizationInvariant(t *testing.T) {
	cache, _ := newLocalCache(nil)
	ctx := context.Background()

	require.True(t, cache.Insert(ctx, "  Arsenal News  ", "Arsenal won 2-0.", models.EntryMetadata{}, "test"))

	match := cache.Lookup(ctx, "arsenal news", "test")
	require.NotNil(t, match)
	assert.Equal(t, 1.0, match.Similarity)
	assert.Equal(t, "Arsenal won 2-0.", match.Answer)
	assert.Equal(t, "arsenal news", match.Entry.NormalizedQuery)
	assert.Equal(t, int64(1), cache.Stats().ExactHits)
}

func TestLookupTTLBoundary(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	cache, _ := newLocalCache(&now)
	ctx := context.Background()

	require.True(t, cache.Insert(ctx, "토트넘 역사", "1882년 창단", models.EntryMetadata{}, "test"))

	now = start.Add(6*24*time.Hour + 23*time.Hour)
	match := cache.Lookup(ctx, "토트넘 역사", "test")
	require.NotNil(t, match)
	assert.InDelta(t, 6+23.0/24, match.AgeInDays, 1e-9)

	now = start.Add(7*24*time.Hour + time.Hour)
	assert.Nil(t, cache.Lookup(ctx, "토트넘 역사", "test"))
	assert.Equal(t, int64(1), cache.Stats().Expired)
}

func TestLookupSimilarityBands(t *testing.T) {
	entry := models.CacheEntry{QueryHash: "qa_x", Answer: "cached", CreatedAt: time.Now()}

	tests := []struct {
		name     string
		distance float64
		wantHit  bool
		wantHigh bool
	}{
		{"below threshold", 0.30, false, false},
		{"verification band", 0.20, true, false},
		{"exactly at threshold", 0.25, true, false},
		{"high confidence", 0.05, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := &stubIndex{neighbor: &Neighbor{ID: "qa_x", Entry: entry, Distance: tt.distance}}
			cache := New(idx, Options{})

			match := cache.Lookup(context.Background(), "query", "test")
			if !tt.wantHit {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.InDelta(t, 1-tt.distance, match.Similarity, 1e-9)
			assert.Equal(t, tt.wantHigh, cache.IsHighConfidence(match.Similarity))
		})
	}
}

func TestIndexFailureDegrades(t *testing.T) {
	idx := &stubIndex{err: errors.New("connection refused")}
	cache := New(idx, Options{})
	ctx := context.Background()

	assert.Nil(t, cache.Lookup(ctx, "arsenal news", "test"))
	assert.False(t, cache.Insert(ctx, "arsenal news", "answer", models.EntryMetadata{}, "test"))

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.InsertFailures)
}

func TestEmbedderFailureDegrades(t *testing.T) {
	cache := New(NewLocalIndex(&wordEmbedder{err: errors.New("quota")}, 10), Options{})

	assert.False(t, cache.Insert(context.Background(), "q", "a", models.EntryMetadata{}, "test"))
	assert.Nil(t, cache.Lookup(context.Background(), "q", "test"))
}

func TestStalledIndexIsBoundedByTimeout(t *testing.T) {
	emb := &stalledEmbedder{release: make(chan struct{})}
	t.Cleanup(func() { close(emb.release) })

	cache := New(NewLocalIndex(emb, 10), Options{IndexTimeout: 50 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	assert.Nil(t, cache.Lookup(ctx, "arsenal news", "test"))
	assert.False(t, cache.Insert(ctx, "arsenal news", "answer", models.EntryMetadata{}, "test"))
	assert.Less(t, time.Since(start), time.Second)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.InsertFailures)
}

func TestWithIndexTimeoutReturnsResult(t *testing.T) {
	got, err := withIndexTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = withIndexTimeout(context.Background(), 10*time.Millisecond, func(context.Context) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 7, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNilCacheIsAMiss(t *testing.T) {
	var cache *AnswerCache
	assert.Nil(t, cache.Lookup(context.Background(), "q", "test"))
	assert.False(t, cache.Insert(context.Background(), "q", "a", models.EntryMetadata{}, "test"))
	assert.NoError(t, cache.Remove(context.Background(), "q"))
	assert.NoError(t, cache.Purge(context.Background()))
	assert.NoError(t, cache.Close())
	assert.False(t, cache.Enabled())
}

func TestDisabledCacheAdminOps(t *testing.T) {
	cache := New(nil, Options{})
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	assert.NotPanics(t, func() {
		assert.NoError(t, cache.Purge(ctx))
		assert.NoError(t, cache.Remove(ctx, "arsenal news"))
	})
	assert.Equal(t, Stats{}, cache.Stats())
}

func TestInsertSanitizesMetadata(t *testing.T) {
	cache, _ := newLocalCache(nil)
	ctx := context.Background()

	meta := models.EntryMetadata{Model: "gpt-4o-mini", PromptTokens: 120}
	meta.SetSourceIDs([]string{"doc-1", "doc-2"})
	require.True(t, meta.SetExtra("season", "24/25"))
	require.True(t, meta.SetExtra("sources", []string{"a", "b"}))
	require.False(t, meta.SetExtra("nested", map[string]any{"x": 1}))
	meta.Extra[" "] = models.StringValue("blank key")

	require.True(t, cache.Insert(ctx, "q", "a", meta, "test"))
	match := cache.Lookup(ctx, "q", "test")
	require.NotNil(t, match)

	got := match.Entry.Metadata
	assert.Equal(t, []string{"doc-1", "doc-2"}, got.SourceIDList())
	assert.Equal(t, "24/25", got.Extra["season"].Any())
	assert.Equal(t, "a,b", got.Extra["sources"].Any())
	assert.NotContains(t, got.Extra, " ")
	assert.NotContains(t, got.Extra, "nested")
}

func TestConcurrentInsertSameQuery(t *testing.T) {
	cache, idx := newLocalCache(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Insert(ctx, "Arsenal News", "answer", models.EntryMetadata{}, "test")
			cache.Lookup(ctx, "arsenal news", "test")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, int64(32), cache.Stats().Inserts)
}

func TestRemoveAndPurge(t *testing.T) {
	cache, idx := newLocalCache(nil)
	ctx := context.Background()

	cache.Insert(ctx, "one", "1", models.EntryMetadata{}, "test")
	cache.Insert(ctx, "two", "2", models.EntryMetadata{}, "test")

	require.NoError(t, cache.Remove(ctx, " ONE "))
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, cache.Purge(ctx))
	assert.Equal(t, 0, idx.Len())
	assert.Error(t, cache.Remove(ctx, "   "))
}
