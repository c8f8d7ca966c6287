package models

// CacheSource values are part of the public response contract.
const (
	CacheSourceChroma = "chromadb"
	CacheSourceLLM    = "llm"
)

// PipelineState names a step of the answer pipeline.
type PipelineState string

const (
	StateRouting        PipelineState = "ROUTING"
	StateRealtimeForced PipelineState = "REALTIME_FORCED"
	StateCacheLookup    PipelineState = "CACHE_LOOKUP"
	StateHighConfHit    PipelineState = "HIGH_CONF_HIT"
	StateLowConfHit     PipelineState = "LOW_CONF_HIT"
	StateJudgePending   PipelineState = "JUDGE_PENDING"
	StateHit            PipelineState = "HIT"
	StateMiss           PipelineState = "MISS"
	StateGenerate       PipelineState = "GENERATE"
	StateRecache        PipelineState = "RECACHE"
	StateRespond        PipelineState = "RESPOND"
)

type AnswerRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitzero"`
}

type AnswerResponse struct {
	Answer      string    `json:"answer"`
	CacheHit    bool      `json:"cache_hit"`
	CacheSource string    `json:"cache_source"`
	Confidence  float64   `json:"confidence"`
	CostSaved   float64   `json:"cost_saved"`
	Decision    *Decision `json:"decision,omitempty"`
}

// Decision records how the pipeline reached its answer.
type Decision struct {
	Route        RouterVerdict   `json:"route"`
	Complexity   Complexity      `json:"complexity"`
	Path         []PipelineState `json:"path"`
	Similarity   float64         `json:"similarity,omitzero"`
	KeywordScore float64         `json:"keyword_score,omitzero"`
	Judge        *JudgeResult    `json:"judge,omitempty"`
	Model        string          `json:"model,omitzero"`
	Recached     bool            `json:"recached"`
	LatencyMs    int64           `json:"latency_ms"`
}

func (d *Decision) Enter(s PipelineState) {
	d.Path = append(d.Path, s)
}
