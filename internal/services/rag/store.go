package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/utils"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultTopK     = 5
	defaultMaxTopK  = 20
	defaultTimeout  = 5 * time.Second
	searchBatchSize = 500
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store keeps knowledge documents with their embeddings in the relational
// database and searches them by cosine distance.
type Store struct {
	db       *gorm.DB
	embedder Embedder
	maxTopK  int
	timeout  time.Duration
}

func NewStore(db *gorm.DB, embedder Embedder, cfg models.RAGConfig) *Store {
	s := &Store{
		db:       db,
		embedder: embedder,
		maxTopK:  cfg.MaxTopK,
		timeout:  time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	if s.maxTopK <= 0 {
		s.maxTopK = defaultMaxTopK
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	return s
}

// DocumentID derives a stable id from a document's content.
func DocumentID(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return "doc_" + hex.EncodeToString(sum[:])[:24]
}

// Ingest embeds and upserts documents. Documents without content are
// skipped; the number stored is returned.
func (s *Store) Ingest(ctx context.Context, docs []models.KnowledgeDocument) (int, error) {
	batch := make([]models.KnowledgeDocument, 0, len(docs))
	for _, doc := range docs {
		doc.Content = strings.TrimSpace(doc.Content)
		if doc.Content == "" {
			continue
		}
		if doc.ID == "" {
			doc.ID = DocumentID(doc.Content)
		}
		vec, err := s.embedder.Embed(ctx, embeddingText(doc))
		if err != nil {
			return 0, fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		doc.Embedding = vec
		batch = append(batch, doc)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "content", "source", "metadata", "embedding", "updated_at"}),
		}).
		CreateInBatches(&batch, 100).Error
	if err != nil {
		return 0, fmt.Errorf("store documents: %w", err)
	}

	fiberlog.Infof("RAG: Ingested %d documents", len(batch))
	return len(batch), nil
}

// Search returns the topK documents nearest to query.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qnorm := utils.Norm(qvec)

	var (
		results []models.SearchResult
		rows    []models.KnowledgeDocument
	)
	err = s.db.WithContext(ctx).
		Model(&models.KnowledgeDocument{}).
		FindInBatches(&rows, searchBatchSize, func(_ *gorm.DB, _ int) error {
			for _, doc := range rows {
				sim := utils.Cosine(qvec, qnorm, doc.Embedding, utils.Norm(doc.Embedding))
				results = append(results, models.SearchResult{
					ID:       doc.ID,
					Document: doc.Content,
					Title:    doc.Title,
					Metadata: doc.Metadata,
					Distance: 1 - sim,
				})
			}
			sort.Slice(results, func(i, j int) bool {
				if results[i].Distance != results[j].Distance {
					return results[i].Distance < results[j].Distance
				}
				return results[i].ID < results[j].ID
			})
			if len(results) > topK {
				results = results[:topK]
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.KnowledgeDocument{}).Count(&n).Error
	return n, err
}

func embeddingText(doc models.KnowledgeDocument) string {
	if doc.Title == "" {
		return doc.Content
	}
	return doc.Title + "\n" + doc.Content
}
