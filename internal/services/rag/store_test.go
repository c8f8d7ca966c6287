package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordEmbedder struct {
	err error
}

func (w wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if w.err != nil {
		return nil, w.err
	}
	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%64]++
	}
	return vec, nil
}

func newTestStore(t *testing.T, emb Embedder) *Store {
	t.Helper()
	db, err := database.New(models.DatabaseConfig{Type: models.SQLite, FilePath: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return NewStore(db.DB, emb, models.RAGConfig{MaxTopK: 3})
}

func seedDocs() []models.KnowledgeDocument {
	return []models.KnowledgeDocument{
		{ID: "spurs", Title: "Tottenham", Content: "Tottenham Hotspur play at White Hart Lane", Metadata: models.DocMetadata{"source": "wiki"}},
		{ID: "arsenal", Title: "Arsenal", Content: "Arsenal play at the Emirates Stadium"},
		{ID: "son", Title: "Son Heung-min", Content: "Son Heung-min is a Tottenham forward"},
		{Content: "   "},
	}
}

func TestStore_IngestAndSearch(t *testing.T) {
	store := newTestStore(t, wordEmbedder{})
	ctx := context.Background()

	n, err := store.Ingest(ctx, seedDocs())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	results, err := store.Search(ctx, "Arsenal play at the Emirates Stadium", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "arsenal", results[0].ID)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestStore_IngestUpserts(t *testing.T) {
	store := newTestStore(t, wordEmbedder{})
	ctx := context.Background()

	_, err := store.Ingest(ctx, seedDocs())
	require.NoError(t, err)
	_, err = store.Ingest(ctx, []models.KnowledgeDocument{{ID: "arsenal", Title: "Arsenal", Content: "Arsenal moved to the Emirates in 2006"}})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	results, err := store.Search(ctx, "arsenal moved to the emirates in 2006", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Arsenal moved to the Emirates in 2006", results[0].Document)
}

func TestStore_TopKIsCapped(t *testing.T) {
	store := newTestStore(t, wordEmbedder{})
	ctx := context.Background()
	_, err := store.Ingest(ctx, seedDocs())
	require.NoError(t, err)

	_, err = store.Ingest(ctx, []models.KnowledgeDocument{{Content: "Chelsea play at Stamford Bridge"}})
	require.NoError(t, err)

	results, err := store.Search(ctx, "stadium", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStore_EmbedderFailure(t *testing.T) {
	store := newTestStore(t, wordEmbedder{err: errors.New("quota")})

	_, err := store.Ingest(context.Background(), seedDocs())
	assert.Error(t, err)
	_, err = store.Search(context.Background(), "arsenal", 3)
	assert.Error(t, err)

	results, err := store.Search(context.Background(), "  ", 3)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocumentIDIsStable(t *testing.T) {
	assert.Equal(t, DocumentID("abc"), DocumentID("  abc\n"))
	assert.True(t, strings.HasPrefix(DocumentID("abc"), "doc_"))
}
