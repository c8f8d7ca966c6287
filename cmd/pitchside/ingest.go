package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Egham-7/pitchside/internal/config"
	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/database"
	"github.com/Egham-7/pitchside/internal/services/llm"
	"github.com/Egham-7/pitchside/internal/services/rag"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var (
		file    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed a JSONL file of knowledge documents into the RAG store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			docs, err := readDocuments(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			n, err := ingest(ctx, cfg, docs)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d of %d documents from %s\n", n, len(docs), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSONL file with one document per line")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall ingest timeout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDocuments(path string) ([]models.KnowledgeDocument, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	docs, err := rag.ReadJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents in %s", path)
	}
	return docs, nil
}

func ingest(ctx context.Context, cfg *config.Config, docs []models.KnowledgeDocument) (int, error) {
	if cfg.Database == nil {
		return 0, fmt.Errorf("ingest needs a database section in the config")
	}
	providerCfg, ok := cfg.GetProviderConfig(string(models.ProviderOpenAI))
	if !ok || providerCfg.APIKey == "" {
		return 0, fmt.Errorf("ingest needs an openai provider for embeddings")
	}

	db, err := database.New(*cfg.Database)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
	}()
	if err := db.Migrate(); err != nil {
		return 0, fmt.Errorf("failed to run database migrations: %w", err)
	}

	embedder, err := llm.NewOpenAIEmbedder(providerCfg, cfg.RAG.EmbeddingModel)
	if err != nil {
		return 0, err
	}
	return rag.NewStore(db.DB, embedder, cfg.RAG).Ingest(ctx, docs)
}
