package pipeline

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/complexity"
	"github.com/Egham-7/pitchside/internal/services/judge"
	"github.com/Egham-7/pitchside/internal/services/keywords"
	"github.com/Egham-7/pitchside/internal/services/llm"
	"github.com/Egham-7/pitchside/internal/services/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []llm.Request
}

func (f *fakeProvider) Name() string { return "openai" }

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{
		Text:     f.text,
		Model:    req.Model,
		Provider: "openai",
		Usage:    llm.Usage{InputTokens: 120, OutputTokens: 80},
	}, nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSource map[string]llm.Provider

func (s fakeSource) Provider(_ context.Context, name string) (llm.Provider, error) {
	p, ok := s[name]
	if !ok {
		return nil, models.NewProviderError(name, "not configured", nil)
	}
	return p, nil
}

type fakeCache struct {
	mu      sync.Mutex
	match   *models.SimilarityMatch
	lookups int
	inserts []string
}

func (c *fakeCache) Lookup(context.Context, string, string) *models.SimilarityMatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	return c.match
}

func (c *fakeCache) Insert(_ context.Context, query, _ string, _ models.EntryMetadata, _ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts = append(c.inserts, query)
	return true
}

func (c *fakeCache) IsHighConfidence(similarity float64) bool { return similarity >= 0.9 }

type fakeJudge struct {
	result models.JudgeResult
	calls  int
}

func (j *fakeJudge) Judge(context.Context, string, string, float64, string) models.JudgeResult {
	j.calls++
	return j.result
}

type fakeRetriever struct {
	topK int
	err  error
}

func (r *fakeRetriever) Search(_ context.Context, _ string, topK int) ([]models.SearchResult, error) {
	r.topK = topK
	if r.err != nil {
		return nil, r.err
	}
	return []models.SearchResult{{
		ID:       "doc_1",
		Document: "Son Heung-min joined Tottenham in 2015.",
		Metadata: map[string]string{"title": "Son Heung-min", "source": "wiki"},
		Distance: 0.1,
	}}, nil
}

type fakeLive struct{ calls int }

func (l *fakeLive) Context(context.Context, string, string) string {
	l.calls++
	return "[fixtures]\n{\"home\":\"Tottenham\",\"away\":\"Arsenal\",\"score\":\"2-1\"}"
}

type fakeRecorder struct {
	mu   sync.Mutex
	logs []*models.AnswerLog
}

func (r *fakeRecorder) Submit(l *models.AnswerLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
}

// runeEmbedder hashes character bigrams into a fixed vector, so identical
// texts embed identically.
type runeEmbedder struct{}

func (runeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 64)
	r := []rune(text)
	for i := 0; i+1 < len(r); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(r[i : i+2])))
		v[h.Sum32()%64]++
	}
	return v, nil
}

type fixture struct {
	pipeline  *Pipeline
	provider  *fakeProvider
	recorder  *fakeRecorder
	retriever *fakeRetriever
	live      *fakeLive
}

func testOptions() Options {
	return Options{
		LLM: models.LLMConfig{
			Provider:     "openai",
			SimpleModel:  "gpt-4o-mini",
			ComplexModel: "gpt-4o",
			MaxTokens:    512,
			Pricing:      models.PricingConfig{InputPer1K: 0.001, OutputPer1K: 0.002},
		},
		RAG: models.RAGConfig{Enabled: true, DefaultTopK: 5, MaxTopK: 20},
	}
}

func newFixture(t *testing.T, cache Cache, j Judge) *fixture {
	t.Helper()
	g := keywords.NewGazetteer(nil)
	f := &fixture{
		provider:  &fakeProvider{text: "손흥민은 최근 5경기에서 3골을 넣었습니다."},
		recorder:  &fakeRecorder{},
		retriever: &fakeRetriever{},
		live:      &fakeLive{},
	}
	p, err := New(Deps{
		Router:     realtime.NewRouter(models.RouterConfig{}),
		Classifier: complexity.NewClassifier(g, models.ComplexityConfig{}),
		Cache:      cache,
		Gate:       keywords.NewGate(keywords.NewExtractor(g), keywords.DefaultGateConfig()),
		Judge:      j,
		Providers:  fakeSource{"openai": f.provider},
		Retriever:  f.retriever,
		Live:       f.live,
		Recorder:   f.recorder,
	}, testOptions())
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func newLocalCache() (*answer_cache.AnswerCache, *answer_cache.LocalIndex) {
	idx := answer_cache.NewLocalIndex(runeEmbedder{}, 100)
	return answer_cache.New(idx, answer_cache.Options{}), idx
}

func TestAnswer_MissThenRepeatHitsCache(t *testing.T) {
	cache, idx := newLocalCache()
	j := &fakeJudge{result: models.JudgeResult{Verdict: models.JudgeYes}}
	f := newFixture(t, cache, j)
	ctx := context.Background()

	first, err := f.pipeline.Answer(ctx, models.AnswerRequest{Query: "손흥민 최근 폼은?"}, "req-1")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, models.CacheSourceLLM, first.CacheSource)
	assert.Equal(t, 1.0, first.Confidence)
	assert.Zero(t, first.CostSaved)
	assert.True(t, first.Decision.Recached)
	assert.Equal(t, 1, idx.Len())

	second, err := f.pipeline.Answer(ctx, models.AnswerRequest{Query: "손흥민 최근 폼은?"}, "req-2")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, models.CacheSourceChroma, second.CacheSource)
	assert.Equal(t, first.Answer, second.Answer)
	assert.InDelta(t, 1.0, second.Confidence, 1e-9)
	// 120 prompt and 80 completion tokens at the configured prices
	assert.InDelta(t, 0.00028, second.CostSaved, 1e-12)
	assert.Contains(t, second.Decision.Path, models.StateHighConfHit)

	assert.Equal(t, 0, j.calls)
	assert.Equal(t, 1, f.provider.Calls())
}

func TestAnswer_RealtimeNeverReadsCache(t *testing.T) {
	cache, _ := newLocalCache()
	require.True(t, cache.Insert(context.Background(), "오늘 경기 결과는?", "어제 기록된 오래된 결과", models.EntryMetadata{}, "seed"))

	f := newFixture(t, cache, &fakeJudge{})
	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "오늘 경기 결과는?"}, "req-rt")
	require.NoError(t, err)

	assert.False(t, resp.CacheHit)
	assert.Equal(t, models.RouteRealtime, resp.Decision.Route)
	assert.Equal(t, []models.PipelineState{
		models.StateRouting, models.StateRealtimeForced, models.StateGenerate, models.StateRecache, models.StateRespond,
	}, resp.Decision.Path)
	assert.Zero(t, cache.Stats().Lookups)
	assert.Equal(t, 1, f.live.calls)
	require.Equal(t, 1, f.provider.Calls())
	assert.Contains(t, f.provider.calls[0].User, "Live data:")
}

func TestAnswer_HighConfidenceSkipsJudge(t *testing.T) {
	cache := &fakeCache{match: &models.SimilarityMatch{
		Answer:     "손흥민은 2015년 토트넘에 입단했습니다.",
		Similarity: 0.95,
		Entry: models.CacheEntry{Metadata: models.EntryMetadata{
			Provider: "openai", Model: "gpt-4o-mini", PromptTokens: 1000, CompletionTokens: 1000,
		}},
	}}
	j := &fakeJudge{}
	f := newFixture(t, cache, j)

	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 토트넘 입단 연도"}, "req-hc")
	require.NoError(t, err)

	assert.True(t, resp.CacheHit)
	assert.Equal(t, models.CacheSourceChroma, resp.CacheSource)
	assert.InDelta(t, 0.95, resp.Confidence, 1e-9)
	assert.InDelta(t, 0.003, resp.CostSaved, 1e-12)
	assert.Equal(t, 0, j.calls)
	assert.Equal(t, 0, f.provider.Calls())
	assert.Empty(t, cache.inserts)
}

func TestAnswer_KeywordVetoSkipsJudge(t *testing.T) {
	cache := &fakeCache{match: &models.SimilarityMatch{Answer: "맨유 2023", Similarity: 0.8}}
	j := &fakeJudge{result: models.JudgeResult{Verdict: models.JudgeYes}}
	f := newFixture(t, cache, j)

	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 2024"}, "req-kv")
	require.NoError(t, err)

	assert.False(t, resp.CacheHit)
	assert.Equal(t, 0, j.calls)
	assert.Equal(t, 1, f.provider.Calls())
	assert.Less(t, resp.Decision.KeywordScore, 0.5)
	assert.Equal(t, []models.PipelineState{
		models.StateRouting, models.StateCacheLookup, models.StateLowConfHit, models.StateMiss,
		models.StateGenerate, models.StateRecache, models.StateRespond,
	}, resp.Decision.Path)
}

func TestAnswer_JudgeVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		verdict  models.JudgeVerdict
		wantHit  bool
		wantCall int
	}{
		{"yes serves cache", models.JudgeYes, true, 0},
		{"no generates", models.JudgeNo, false, 1},
		{"uncertain generates", models.JudgeUncertain, false, 1},
		{"call api generates", models.JudgeCallAPI, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &fakeCache{match: &models.SimilarityMatch{Answer: "손흥민 2024 시즌 17골", Similarity: 0.8}}
			j := &fakeJudge{result: models.JudgeResult{Verdict: tt.verdict, Reason: "test"}}
			f := newFixture(t, cache, j)

			resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 2024"}, "req-j")
			require.NoError(t, err)

			assert.Equal(t, 1, j.calls)
			assert.Equal(t, tt.wantHit, resp.CacheHit)
			assert.Equal(t, tt.wantCall, f.provider.Calls())
			require.NotNil(t, resp.Decision.Judge)
			assert.Equal(t, tt.verdict, resp.Decision.Judge.Verdict)
			if tt.wantHit {
				assert.InDelta(t, 0.8, resp.Confidence, 1e-9)
			}
		})
	}
}

func TestAnswer_JudgeFailureFallsBackToGeneration(t *testing.T) {
	cache := &fakeCache{match: &models.SimilarityMatch{Answer: "손흥민 2024 시즌 17골", Similarity: 0.8}}
	source := fakeSource{}
	cj := judge.New(source, models.JudgeConfig{Enabled: true, Provider: "anthropic", Model: "claude-3-5-haiku-latest"})
	f := newFixture(t, cache, cj)
	source["anthropic"] = &fakeProvider{err: errors.New("connection reset")}

	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 2024"}, "req-jf")
	require.NoError(t, err)

	assert.False(t, resp.CacheHit)
	require.NotNil(t, resp.Decision.Judge)
	assert.Equal(t, models.JudgeUncertain, resp.Decision.Judge.Verdict)
	assert.Equal(t, 1, f.provider.Calls())
	assert.Contains(t, resp.Decision.Path, models.StateGenerate)
}

func TestAnswer_GenerationFailureIsReturned(t *testing.T) {
	cache := &fakeCache{}
	f := newFixture(t, cache, &fakeJudge{})
	f.provider.err = models.NewProviderError("openai", "upstream 500", nil)

	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 최근 폼은?"}, "req-gf")
	require.Error(t, err)
	assert.Nil(t, resp)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrorTypeProvider, appErr.Type)
	assert.Empty(t, cache.inserts)

	require.Len(t, f.recorder.logs, 1)
	assert.NotEmpty(t, f.recorder.logs[0].ErrorMessage)
	assert.False(t, f.recorder.logs[0].CacheHit)
}

func TestAnswer_ComplexQueriesUseComplexModel(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		topK      int
		wantModel string
		wantTopK  int
	}{
		{"simple default", "손흥민 최근 폼은?", 0, "gpt-4o-mini", 5},
		{"simple explicit", "손흥민 최근 폼은?", 3, "gpt-4o-mini", 3},
		{"complex doubles", "토트넘 vs 아스날 비교해줘", 0, "gpt-4o", 10},
		{"complex capped", "토트넘 vs 아스날 비교해줘", 15, "gpt-4o", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &fakeCache{}, &fakeJudge{})

			_, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: tt.query, TopK: tt.topK}, "req-c")
			require.NoError(t, err)

			require.Equal(t, 1, f.provider.Calls())
			assert.Equal(t, tt.wantModel, f.provider.calls[0].Model)
			assert.Equal(t, tt.wantTopK, f.retriever.topK)
			assert.Equal(t, 512, f.provider.calls[0].MaxTokens)
			assert.Contains(t, f.provider.calls[0].User, "Reference material:")
			assert.Zero(t, f.live.calls)
		})
	}
}

func TestAnswer_RetrieverFailureStillGenerates(t *testing.T) {
	f := newFixture(t, &fakeCache{}, &fakeJudge{})
	f.retriever.err = errors.New("db down")

	resp, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "손흥민 최근 폼은?"}, "req-rf")
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Equal(t, "손흥민 최근 폼은?", f.provider.calls[0].User)
}

func TestAnswer_RecordsDecision(t *testing.T) {
	cache := &fakeCache{}
	f := newFixture(t, cache, &fakeJudge{})

	_, err := f.pipeline.Answer(context.Background(), models.AnswerRequest{Query: "  손흥민 최근 폼은?  "}, "req-log")
	require.NoError(t, err)

	require.Len(t, f.recorder.logs, 1)
	l := f.recorder.logs[0]
	assert.Equal(t, "req-log", l.RequestID)
	assert.Equal(t, answer_cache.QueryHash("손흥민 최근 폼은?"), l.QueryHash)
	assert.Equal(t, "ROUTING>CACHE_LOOKUP>MISS>GENERATE>RECACHE>RESPOND", l.Path)
	assert.Equal(t, int64(120), l.TokensInput)
	assert.Equal(t, int64(80), l.TokensOutput)
	assert.InDelta(t, 0.00028, l.Cost, 1e-12)
	assert.Equal(t, []string{"  손흥민 최근 폼은?  "}, cache.inserts)
}

func TestAnswer_Validation(t *testing.T) {
	f := newFixture(t, &fakeCache{}, &fakeJudge{})

	tests := []models.AnswerRequest{
		{Query: "   "},
		{Query: strings.Repeat("골", maxQueryRunes+1)},
		{Query: "손흥민", TopK: -1},
	}
	for _, req := range tests {
		_, err := f.pipeline.Answer(context.Background(), req, "req-v")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorTypeValidation, appErr.Type)
	}
	assert.Zero(t, f.provider.Calls())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, testOptions())
	assert.Error(t, err)
}
