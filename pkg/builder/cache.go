package builder

import "github.com/Egham-7/pitchside/internal/models"

// WithAnswerCache replaces the answer cache settings wholesale.
func (b *Builder) WithAnswerCache(cfg models.AnswerCacheConfig) *Builder {
	b.cfg.Cache = cfg
	return b
}

func (b *Builder) DisableAnswerCache() *Builder {
	b.cfg.Cache.Enabled = false
	return b
}

// WithThresholds sets the similarity funnel: matches below similarity are
// misses, matches at or above highConfidence skip the judge.
func (b *Builder) WithThresholds(similarity, highConfidence, keyword float64) *Builder {
	b.cfg.Cache.SimilarityThreshold = similarity
	b.cfg.Cache.HighConfidenceThreshold = highConfidence
	b.cfg.Cache.KeywordThreshold = keyword
	return b
}

func (b *Builder) WithJudge(provider, model string) *Builder {
	b.cfg.Judge.Enabled = true
	b.cfg.Judge.Provider = provider
	b.cfg.Judge.Model = model
	return b
}

func (b *Builder) DisableJudge() *Builder {
	b.cfg.Judge.Enabled = false
	return b
}

func (b *Builder) WithLiveData(providers ...models.LiveDataProviderConfig) *Builder {
	b.cfg.LiveData = models.LiveDataConfig{Enabled: len(providers) > 0, Providers: providers}
	return b
}
