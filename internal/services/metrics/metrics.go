package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pitchside"

var (
	once sync.Once

	routeVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_verdict_total",
		Help:      "Realtime router verdicts",
	}, []string{"verdict"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookup_total",
		Help:      "Answer cache lookups by outcome (high_confidence/verify/miss/skipped)",
	}, []string{"outcome"})

	cacheSimilarity = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_similarity",
		Help:      "Similarity of the best cache match",
		Buckets:   []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 0.99, 1.0},
	})

	keywordVetoes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keyword_veto_total",
		Help:      "Cache candidates rejected by the keyword gate",
	})

	judgeVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "judge_verdict_total",
		Help:      "Cache judge verdicts",
	}, []string{"verdict"})

	answers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answer_total",
		Help:      "Answers served by source",
	}, []string{"source", "complexity"})

	answerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answer_error_total",
		Help:      "Failed answers by error type",
	}, []string{"type"})

	stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_latency_ms",
		Help:      "Latency of pipeline stages in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"stage"})

	costSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cost_saved_usd_total",
		Help:      "Estimated generation cost avoided by cache hits",
	})

	generationCost = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generation_cost_usd_total",
		Help:      "Estimated cost of generated answers",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// Register adds the collectors to the default registry. Safe to call twice.
func Register() {
	ensureRegistered()
}

func IncRoute(verdict string) {
	ensureRegistered()
	routeVerdicts.WithLabelValues(verdict).Inc()
}

func IncCacheLookup(outcome string) {
	ensureRegistered()
	cacheLookups.WithLabelValues(outcome).Inc()
}

func ObserveSimilarity(similarity float64) {
	ensureRegistered()
	if similarity >= 0 {
		cacheSimilarity.Observe(similarity)
	}
}

func IncKeywordVeto() {
	ensureRegistered()
	keywordVetoes.Inc()
}

func IncJudgeVerdict(verdict string) {
	ensureRegistered()
	judgeVerdicts.WithLabelValues(verdict).Inc()
}

func IncAnswer(source, complexity string) {
	ensureRegistered()
	answers.WithLabelValues(source, complexity).Inc()
}

func IncAnswerError(errType string) {
	ensureRegistered()
	answerErrors.WithLabelValues(errType).Inc()
}

// ObserveStage records the time since start for a pipeline stage.
func ObserveStage(stage string, start time.Time) {
	ensureRegistered()
	stageLatency.WithLabelValues(stage).Observe(float64(time.Since(start).Milliseconds()))
}

func AddCostSaved(usd float64) {
	ensureRegistered()
	if usd > 0 {
		costSaved.Add(usd)
	}
}

func AddGenerationCost(usd float64) {
	ensureRegistered()
	if usd > 0 {
		generationCost.Add(usd)
	}
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		routeVerdicts, cacheLookups, cacheSimilarity, keywordVetoes, judgeVerdicts,
		answers, answerErrors, stageLatency, costSaved, generationCost,
	}
}
