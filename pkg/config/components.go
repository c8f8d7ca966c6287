package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/pitchside/internal/config"
	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/apicache"
	"github.com/Egham-7/pitchside/internal/services/complexity"
	"github.com/Egham-7/pitchside/internal/services/database"
	"github.com/Egham-7/pitchside/internal/services/judge"
	"github.com/Egham-7/pitchside/internal/services/keywords"
	"github.com/Egham-7/pitchside/internal/services/livedata"
	"github.com/Egham-7/pitchside/internal/services/llm"
	"github.com/Egham-7/pitchside/internal/services/metrics"
	"github.com/Egham-7/pitchside/internal/services/pipeline"
	"github.com/Egham-7/pitchside/internal/services/rag"
	"github.com/Egham-7/pitchside/internal/services/realtime"
	"github.com/Egham-7/pitchside/internal/services/usage"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Components are the constructed services of one pitchside process. Optional
// parts are nil when their configuration is absent.
type Components struct {
	Config   *config.Config
	Redis    *redis.Client
	DB       *database.DB
	Registry *llm.Registry
	Cache    *answer_cache.AnswerCache
	Store    *rag.Store
	APICache *apicache.Cache
	Live     *livedata.Service
	Usage    *usage.Service
	Worker   *usage.Worker
	Pipeline *pipeline.Pipeline
}

// Build wires every component from cfg. On error, whatever was already
// opened is closed.
func Build(cfg *config.Config) (comps *Components, err error) {
	c := &Components{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if c.Redis, err = createRedisClient(cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	if c.DB, err = openDatabase(cfg.Database); err != nil {
		return nil, err
	}

	c.Registry = llm.NewRegistry(cfg.LLM, c.Redis)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if c.Cache, err = buildAnswerCache(cfg, embedder); err != nil {
		return nil, fmt.Errorf("failed to create answer cache: %w", err)
	}

	if cfg.RAG.Enabled {
		switch {
		case c.DB == nil:
			fiberlog.Warn("RAG enabled but no database configured - generating without knowledge context")
		case embedder == nil:
			fiberlog.Warn("RAG enabled but no openai provider for embeddings - generating without knowledge context")
		default:
			c.Store = rag.NewStore(c.DB.DB, embedder, cfg.RAG)
		}
	}

	if c.APICache, err = apicache.New(cfg.APICache, c.Redis); err != nil {
		return nil, fmt.Errorf("failed to create api cache: %w", err)
	}
	if c.Live, err = livedata.NewServiceFromConfig(cfg.LiveData, c.APICache); err != nil {
		return nil, fmt.Errorf("failed to create live data providers: %w", err)
	}

	if cfg.Usage.Enabled && c.DB != nil {
		c.Usage = usage.NewService(c.DB.DB)
		c.Worker = usage.NewWorker(c.Usage, cfg.Usage.Workers, cfg.Usage.QueueSize)
	}

	if cfg.Metrics.Enabled {
		metrics.Register()
	}

	if c.Pipeline, err = buildPipeline(cfg, c); err != nil {
		return nil, err
	}
	return c, nil
}

func buildPipeline(cfg *config.Config, c *Components) (*pipeline.Pipeline, error) {
	gazetteer := keywords.NewGazetteer(cfg.Router.ExtraEntities)
	deps := pipeline.Deps{
		Router:     realtime.NewRouter(cfg.Router),
		Classifier: complexity.NewClassifier(gazetteer, cfg.Complexity),
		Cache:      c.Cache,
		Gate: keywords.NewGate(keywords.NewExtractor(gazetteer), keywords.GateConfig{
			GeneralWeight: cfg.Cache.KeywordGeneralWeight,
			CoreWeight:    cfg.Cache.KeywordCoreWeight,
			Threshold:     cfg.Cache.KeywordThreshold,
		}),
		Judge:     judge.New(c.Registry.Scoped("judge"), cfg.Judge),
		Providers: c.Registry,
	}
	// optional collaborators stay nil interfaces when absent
	if c.Store != nil {
		deps.Retriever = c.Store
	}
	if c.Live != nil && c.Live.Enabled() {
		deps.Live = c.Live
	}
	if c.Worker != nil {
		deps.Recorder = c.Worker
	}

	p, err := pipeline.New(deps, pipeline.Options{
		LLM:        cfg.LLM,
		RAG:        cfg.RAG,
		Complexity: cfg.Complexity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create answer pipeline: %w", err)
	}
	return p, nil
}

// buildEmbedder returns nil when no openai provider is configured.
func buildEmbedder(cfg *config.Config) (*llm.OpenAIEmbedder, error) {
	providerCfg, ok := cfg.GetProviderConfig(string(models.ProviderOpenAI))
	if !ok || providerCfg.APIKey == "" {
		return nil, nil
	}
	emb, err := llm.NewOpenAIEmbedder(providerCfg, cfg.RAG.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}

func buildAnswerCache(cfg *config.Config, embedder *llm.OpenAIEmbedder) (*answer_cache.AnswerCache, error) {
	if !cfg.Cache.Enabled {
		fiberlog.Info("AnswerCache: Disabled - every question is generated")
		return answer_cache.New(nil, answer_cache.OptionsFromConfig(cfg.Cache)), nil
	}
	var emb answer_cache.Embedder
	if embedder != nil {
		emb = embedder
	}
	return answer_cache.NewFromConfig(cfg.Cache, emb)
}

func openDatabase(cfg *models.DatabaseConfig) (*database.DB, error) {
	if cfg == nil {
		fiberlog.Info("Database not configured - answer log and knowledge store disabled")
		return nil, nil
	}
	db, err := database.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	fiberlog.Infof("Database (%s) initialized successfully", db.DriverName())

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	fiberlog.Info("Database migrations completed successfully")
	return db, nil
}

func createRedisClient(cfg models.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		fiberlog.Info("Redis not configured - circuit breakers are process-local")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3

	return pingWithRetry(redis.NewClient(opt))
}

func pingWithRetry(client *redis.Client) (*redis.Client, error) {
	const (
		maxAttempts = 3
		baseDelay   = time.Second
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			fiberlog.Infof("Redis connection established (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * baseDelay)
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}

// Close flushes the answer log and releases connections. It is safe to call
// on a partially built value.
func (c *Components) Close() {
	if c.Worker != nil {
		c.Worker.Stop()
	}
	if c.Live != nil {
		c.Live.Close()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			fiberlog.Errorf("Failed to close answer cache: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			fiberlog.Errorf("Failed to close Redis client: %v", err)
		}
	}
}
