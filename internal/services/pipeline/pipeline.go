package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/complexity"
	"github.com/Egham-7/pitchside/internal/services/keywords"
	"github.com/Egham-7/pitchside/internal/services/llm"
	"github.com/Egham-7/pitchside/internal/services/metrics"
	"github.com/Egham-7/pitchside/internal/services/realtime"
	"github.com/Egham-7/pitchside/internal/services/usage"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTopK              = 5
	defaultMaxTopK           = 20
	defaultMaxTokens         = 1024
	defaultGenerationTimeout = 60 * time.Second
	maxQueryRunes            = 2000
)

const defaultSystemPrompt = `You are a football (soccer) assistant.
Answer in the language of the question, concisely and factually.
Use the reference material and live data when they are relevant and cite them by number.
If neither covers the question and you are not sure, say that you do not know.`

// Cache is the part of the answer cache the pipeline reads and writes.
type Cache interface {
	Lookup(ctx context.Context, query, requestID string) *models.SimilarityMatch
	Insert(ctx context.Context, query, answer string, meta models.EntryMetadata, requestID string) bool
	IsHighConfidence(similarity float64) bool
}

type Judge interface {
	Judge(ctx context.Context, query, cachedAnswer string, similarity float64, requestID string) models.JudgeResult
}

// Retriever returns knowledge documents for the generation context.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
}

// LiveContext returns fresh third-party data for realtime questions, or "".
type LiveContext interface {
	Context(ctx context.Context, query, requestID string) string
}

type ProviderSource interface {
	Provider(ctx context.Context, name string) (llm.Provider, error)
}

// Deps are the collaborators of the pipeline. Retriever, Live and Recorder
// are optional.
type Deps struct {
	Router     *realtime.Router
	Classifier *complexity.Classifier
	Cache      Cache
	Gate       *keywords.Gate
	Judge      Judge
	Providers  ProviderSource
	Retriever  Retriever
	Live       LiveContext
	Recorder   usage.Recorder
}

type Options struct {
	LLM        models.LLMConfig
	RAG        models.RAGConfig
	Complexity models.ComplexityConfig
}

// Pipeline answers football questions, reusing cached answers whenever the
// router, similarity, keyword gate and judge all allow it and generating
// otherwise.
type Pipeline struct {
	deps Deps
	opts Options

	generationTimeout time.Duration
	systemPrompt      string
	flight            singleflight.Group
}

func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Router == nil:
		return nil, fmt.Errorf("pipeline: router is required")
	case deps.Classifier == nil:
		return nil, fmt.Errorf("pipeline: classifier is required")
	case deps.Cache == nil:
		return nil, fmt.Errorf("pipeline: answer cache is required")
	case deps.Gate == nil:
		return nil, fmt.Errorf("pipeline: keyword gate is required")
	case deps.Judge == nil:
		return nil, fmt.Errorf("pipeline: judge is required")
	case deps.Providers == nil:
		return nil, fmt.Errorf("pipeline: provider source is required")
	}

	p := &Pipeline{
		deps:              deps,
		opts:              opts,
		generationTimeout: time.Duration(opts.LLM.TimeoutMs) * time.Millisecond,
		systemPrompt:      strings.TrimSpace(opts.LLM.SystemPrompt),
	}
	if p.generationTimeout <= 0 {
		p.generationTimeout = defaultGenerationTimeout
	}
	if p.systemPrompt == "" {
		p.systemPrompt = defaultSystemPrompt
	}
	return p, nil
}

// generation is the shared result of one LLM call.
type generation struct {
	Answer    string
	Model     string
	Provider  string
	Usage     llm.Usage
	SourceIDs []string
	Cost      float64
}

// Answer runs one query through the pipeline. Only generation failures are
// returned as errors; cache, keyword and judge problems degrade to
// generation.
func (p *Pipeline) Answer(ctx context.Context, req models.AnswerRequest, requestID string) (*models.AnswerResponse, error) {
	start := time.Now()
	defer metrics.ObserveStage("total", start)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, models.NewValidationError("query is required", nil)
	}
	if utf8.RuneCountInString(query) > maxQueryRunes {
		return nil, models.NewValidationError(fmt.Sprintf("query exceeds %d characters", maxQueryRunes), nil)
	}
	if req.TopK < 0 {
		return nil, models.NewValidationError("top_k must not be negative", nil)
	}

	d := &models.Decision{}
	d.Enter(models.StateRouting)
	route := p.deps.Router.Classify(query)
	d.Route = route
	metrics.IncRoute(string(route))

	class := p.deps.Classifier.Classify(query)
	d.Complexity = class.Class
	topK := p.resolveTopK(req.TopK, class)
	fiberlog.Debugf("[%s] Pipeline: route=%s complexity=%s reasons=%v top_k=%d",
		requestID, route, class.Class, class.Reasons, topK)

	if route == models.RouteRealtime {
		d.Enter(models.StateRealtimeForced)
		metrics.IncCacheLookup("skipped")
	} else if match := p.lookup(ctx, query, d, requestID); match != nil {
		return p.respondFromCache(query, match, d, start, requestID), nil
	}

	return p.respondFromGeneration(ctx, query, route, class, topK, d, start, requestID)
}

// lookup walks CACHE_LOOKUP through HIT or MISS and returns the match to
// serve, or nil.
func (p *Pipeline) lookup(ctx context.Context, query string, d *models.Decision, requestID string) *models.SimilarityMatch {
	d.Enter(models.StateCacheLookup)
	lookupStart := time.Now()
	match := p.deps.Cache.Lookup(ctx, query, requestID)
	metrics.ObserveStage("cache_lookup", lookupStart)

	if match == nil {
		d.Enter(models.StateMiss)
		metrics.IncCacheLookup("miss")
		return nil
	}
	d.Similarity = match.Similarity
	metrics.ObserveSimilarity(match.Similarity)

	if p.deps.Cache.IsHighConfidence(match.Similarity) {
		d.Enter(models.StateHighConfHit)
		metrics.IncCacheLookup("high_confidence")
		return match
	}

	d.Enter(models.StateLowConfHit)
	score := p.deps.Gate.Score(query, match.Answer)
	match.KeywordScore = score
	d.KeywordScore = score
	if p.deps.Gate.ShouldBypass(score) {
		fiberlog.Infof("[%s] Pipeline: Keyword gate rejected cached answer (score %.2f < %.2f)",
			requestID, score, p.deps.Gate.Threshold())
		metrics.IncKeywordVeto()
		metrics.IncCacheLookup("keyword_veto")
		d.Enter(models.StateMiss)
		return nil
	}

	d.Enter(models.StateJudgePending)
	judgeStart := time.Now()
	verdict := p.deps.Judge.Judge(ctx, query, match.Answer, match.Similarity, requestID)
	metrics.ObserveStage("judge", judgeStart)
	metrics.IncJudgeVerdict(string(verdict.Verdict))
	d.Judge = &verdict

	if verdict.Verdict.Accepts() {
		d.Enter(models.StateHit)
		metrics.IncCacheLookup("judge_accepted")
		return match
	}
	d.Enter(models.StateMiss)
	metrics.IncCacheLookup("judge_rejected")
	return nil
}

func (p *Pipeline) respondFromCache(query string, match *models.SimilarityMatch, d *models.Decision, start time.Time, requestID string) *models.AnswerResponse {
	meta := match.Entry.Metadata
	saved := p.costOf(meta.Provider, meta.Model, llm.Usage{
		InputTokens:  meta.PromptTokens,
		OutputTokens: meta.CompletionTokens,
	})

	d.Enter(models.StateRespond)
	d.LatencyMs = time.Since(start).Milliseconds()
	metrics.IncAnswer(models.CacheSourceChroma, string(d.Complexity))
	metrics.AddCostSaved(saved)
	fiberlog.Infof("[%s] Pipeline: Served from cache (similarity %.3f, saved $%.6f)", requestID, match.Similarity, saved)

	resp := &models.AnswerResponse{
		Answer:      match.Answer,
		CacheHit:    true,
		CacheSource: models.CacheSourceChroma,
		Confidence:  clamp01(match.Similarity),
		CostSaved:   saved,
		Decision:    d,
	}
	p.record(query, resp, nil, nil, requestID)
	return resp
}

func (p *Pipeline) respondFromGeneration(
	ctx context.Context,
	query string,
	route models.RouterVerdict,
	class complexity.Result,
	topK int,
	d *models.Decision,
	start time.Time,
	requestID string,
) (*models.AnswerResponse, error) {
	d.Enter(models.StateGenerate)
	genStart := time.Now()
	gen, err := p.generate(ctx, query, route, class, topK, requestID)
	metrics.ObserveStage("generate", genStart)
	if err != nil {
		d.LatencyMs = time.Since(start).Milliseconds()
		appErr := asAppError(err)
		metrics.IncAnswerError(string(appErr.Type))
		fiberlog.Errorf("[%s] Pipeline: Generation failed: %v", requestID, err)
		p.record(query, &models.AnswerResponse{CacheSource: models.CacheSourceLLM, Decision: d}, nil, appErr, requestID)
		return nil, appErr
	}
	d.Model = gen.Model
	metrics.AddGenerationCost(gen.Cost)

	d.Enter(models.StateRecache)
	meta := models.EntryMetadata{
		Model:            gen.Model,
		Provider:         gen.Provider,
		PromptTokens:     gen.Usage.InputTokens,
		CompletionTokens: gen.Usage.OutputTokens,
		Route:            string(route),
		Complexity:       string(class.Class),
	}
	meta.SetSourceIDs(gen.SourceIDs)
	if len(class.Reasons) > 0 {
		meta.SetExtra("complexity_reasons", class.Reasons)
	}
	d.Recached = p.deps.Cache.Insert(context.WithoutCancel(ctx), query, gen.Answer, meta, requestID)

	d.Enter(models.StateRespond)
	d.LatencyMs = time.Since(start).Milliseconds()
	metrics.IncAnswer(models.CacheSourceLLM, string(class.Class))

	resp := &models.AnswerResponse{
		Answer:      gen.Answer,
		CacheHit:    false,
		CacheSource: models.CacheSourceLLM,
		Confidence:  1.0,
		Decision:    d,
	}
	p.record(query, resp, gen, nil, requestID)
	return resp, nil
}

// generate collapses concurrent identical questions into one LLM call. The
// call is detached from the first caller's cancellation so other waiters
// still get an answer; each waiter stops waiting when its own ctx ends.
func (p *Pipeline) generate(
	ctx context.Context,
	query string,
	route models.RouterVerdict,
	class complexity.Result,
	topK int,
	requestID string,
) (*generation, error) {
	provider, model, err := p.modelFor(class)
	if err != nil {
		return nil, models.NewInternalError("invalid model configuration", err)
	}
	key := fmt.Sprintf("%s|%s|%s|%s", answer_cache.QueryHash(answer_cache.Normalize(query, 0)), route, provider, model)

	ch := p.flight.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.generationTimeout)
		defer cancel()
		return p.callLLM(genCtx, query, route, provider, model, topK, requestID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			fiberlog.Debugf("[%s] Pipeline: Shared generation result", requestID)
		}
		return res.Val.(*generation), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, models.NewTimeoutError("generation", ctx.Err())
		}
		return nil, models.NewInternalError("request cancelled", ctx.Err())
	}
}

func (p *Pipeline) callLLM(
	ctx context.Context,
	query string,
	route models.RouterVerdict,
	providerName, model string,
	topK int,
	requestID string,
) (*generation, error) {
	var (
		reference string
		sourceIDs []string
		live      string
	)
	if p.deps.Retriever != nil {
		reference, sourceIDs = p.retrieve(ctx, query, topK, requestID)
	}
	if route == models.RouteRealtime && p.deps.Live != nil {
		liveStart := time.Now()
		live = p.deps.Live.Context(ctx, query, requestID)
		metrics.ObserveStage("live_data", liveStart)
	}

	provider, err := p.deps.Providers.Provider(ctx, providerName)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		Model:     model,
		System:    p.systemPrompt,
		User:      buildUserPrompt(query, reference, live),
		MaxTokens: p.maxTokens(),
	}
	if p.opts.LLM.Temperature > 0 {
		t := p.opts.LLM.Temperature
		req.Temperature = &t
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, models.NewProviderError(providerName, "empty answer", nil)
	}

	gen := &generation{
		Answer:    strings.TrimSpace(resp.Text),
		Model:     firstNonEmpty(resp.Model, model),
		Provider:  firstNonEmpty(resp.Provider, providerName),
		Usage:     resp.Usage,
		SourceIDs: sourceIDs,
	}
	gen.Cost = p.costOf(gen.Provider, gen.Model, gen.Usage)
	fiberlog.Infof("[%s] Pipeline: Generated with %s/%s (%d in, %d out tokens, $%.6f)",
		requestID, gen.Provider, gen.Model, gen.Usage.InputTokens, gen.Usage.OutputTokens, gen.Cost)
	return gen, nil
}

func (p *Pipeline) retrieve(ctx context.Context, query string, topK int, requestID string) (string, []string) {
	ragStart := time.Now()
	defer metrics.ObserveStage("rag", ragStart)

	results, err := p.deps.Retriever.Search(ctx, query, topK)
	if err != nil {
		fiberlog.Warnf("[%s] Pipeline: Knowledge search failed, generating without context: %v", requestID, err)
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}
	return formatReference(results, p.opts.RAG.MaxContextChars), sourceIDs(results)
}

// modelFor picks the configured model for the complexity class. A model
// written as provider:model overrides the default provider.
func (p *Pipeline) modelFor(class complexity.Result) (string, string, error) {
	spec := p.opts.LLM.SimpleModel
	if class.IsComplex() && p.opts.LLM.ComplexModel != "" {
		spec = p.opts.LLM.ComplexModel
	}
	return splitModel(spec, p.opts.LLM.Provider)
}

func (p *Pipeline) resolveTopK(requested int, class complexity.Result) int {
	k := requested
	if k <= 0 {
		k = p.opts.RAG.DefaultTopK
	}
	if k <= 0 {
		k = defaultTopK
	}
	if class.IsComplex() {
		k *= 2
		if p.opts.Complexity.ComplexTopK > k {
			k = p.opts.Complexity.ComplexTopK
		}
	}
	maxK := p.opts.RAG.MaxTopK
	if maxK <= 0 {
		maxK = defaultMaxTopK
	}
	return min(k, maxK)
}

func (p *Pipeline) maxTokens() int {
	if p.opts.LLM.MaxTokens > 0 {
		return p.opts.LLM.MaxTokens
	}
	return defaultMaxTokens
}

func (p *Pipeline) costOf(provider, model string, u llm.Usage) float64 {
	if u.Total() == 0 {
		return 0
	}
	return llm.Cost(llm.PricingFor(provider, model, p.opts.LLM.Pricing), u)
}

func (p *Pipeline) record(query string, resp *models.AnswerResponse, gen *generation, appErr *models.AppError, requestID string) {
	if p.deps.Recorder == nil {
		return
	}
	d := resp.Decision
	norm := answer_cache.Normalize(query, 0)
	entry := &models.AnswerLog{
		RequestID:    requestID,
		QueryHash:    answer_cache.QueryHash(norm),
		QueryPreview: previewOf(query),
		Route:        string(d.Route),
		Complexity:   string(d.Complexity),
		Path:         joinPath(d.Path),
		CacheHit:     resp.CacheHit,
		CacheSource:  resp.CacheSource,
		Similarity:   d.Similarity,
		KeywordScore: d.KeywordScore,
		Model:        d.Model,
		CostSaved:    resp.CostSaved,
		LatencyMs:    d.LatencyMs,
	}
	if d.Judge != nil {
		entry.JudgeVerdict = string(d.Judge.Verdict)
		entry.JudgeReason = d.Judge.Reason
	}
	if gen != nil {
		entry.TokensInput = gen.Usage.InputTokens
		entry.TokensOutput = gen.Usage.OutputTokens
		entry.Cost = gen.Cost
	}
	if appErr != nil {
		entry.ErrorMessage = appErr.Error()
	}
	p.deps.Recorder.Submit(entry)
}

func asAppError(err error) *models.AppError {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewTimeoutError("generation", err)
	}
	return models.NewInternalError("answer generation failed", err)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
