package builder

import "github.com/Egham-7/pitchside/internal/models"

func (b *Builder) WithDatabase(cfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &cfg
	return b
}

// WithUsage turns on the asynchronous answer log. It needs a database.
func (b *Builder) WithUsage(workers, queueSize int) *Builder {
	b.cfg.Usage = models.UsageConfig{Enabled: true, Workers: workers, QueueSize: queueSize}
	return b
}

// WithRAG enables knowledge retrieval. It needs a database and an openai
// provider for embeddings.
func (b *Builder) WithRAG(defaultTopK, maxTopK int) *Builder {
	b.cfg.RAG.Enabled = true
	b.cfg.RAG.DefaultTopK = defaultTopK
	b.cfg.RAG.MaxTopK = maxTopK
	return b
}

func (b *Builder) WithRedis(url string) *Builder {
	b.cfg.Redis.URL = url
	return b
}
