package answer_cache

import (
	"context"
	"testing"
	"time"

	"github.com/Egham-7/pitchside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIndex_NearestPicksClosest(t *testing.T) {
	idx := NewLocalIndex(&wordEmbedder{}, 0)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "a", "arsenal tactics pressing", models.CacheEntry{Answer: "a"}))
	require.NoError(t, idx.Upsert(ctx, "b", "chelsea transfer budget", models.CacheEntry{Answer: "b"}))

	nb, err := idx.Nearest(ctx, "arsenal tactics pressing", 0.5)
	require.NoError(t, err)
	require.NotNil(t, nb)
	assert.Equal(t, "a", nb.ID)
	assert.InDelta(t, 0, nb.Distance, 1e-9)
}

func TestLocalIndex_EmptyAndFloor(t *testing.T) {
	idx := NewLocalIndex(&wordEmbedder{}, 0)
	ctx := context.Background()

	nb, err := idx.Nearest(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Nil(t, nb)

	require.NoError(t, idx.Upsert(ctx, "a", "alpha beta", models.CacheEntry{}))
	nb, err = idx.Nearest(ctx, "alpha beta", 1.01)
	require.NoError(t, err)
	assert.Nil(t, nb)
}

func TestLocalIndex_EvictsOldest(t *testing.T) {
	idx := NewLocalIndex(&wordEmbedder{}, 2)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, idx.Upsert(ctx, "old", "one", models.CacheEntry{CreatedAt: base}))
	require.NoError(t, idx.Upsert(ctx, "mid", "two", models.CacheEntry{CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, idx.Upsert(ctx, "new", "three", models.CacheEntry{CreatedAt: base.Add(2 * time.Minute)}))

	assert.Equal(t, 2, idx.Len())
	_, found, _ := idx.Get(ctx, "old")
	assert.False(t, found)

	// overwriting an existing id never evicts
	require.NoError(t, idx.Upsert(ctx, "mid", "two again", models.CacheEntry{CreatedAt: base}))
	assert.Equal(t, 2, idx.Len())
}
