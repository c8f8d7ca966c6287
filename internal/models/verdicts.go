package models

// RouterVerdict says whether a query can be served from the answer cache.
type RouterVerdict string

const (
	RouteRealtime RouterVerdict = "realtime"
	RouteCacheOK  RouterVerdict = "cache_ok"
	RouteUnknown  RouterVerdict = "unknown"
)

// JudgeVerdict is the cache judge's decision on reusing a cached answer.
type JudgeVerdict string

const (
	JudgeYes       JudgeVerdict = "YES"
	JudgeNo        JudgeVerdict = "NO"
	JudgeUncertain JudgeVerdict = "UNCERTAIN"
	// JudgeCallAPI asks for fresh data. The pipeline handles it like JudgeNo.
	JudgeCallAPI JudgeVerdict = "CALL_API"
)

// Accepts reports whether the verdict allows serving the cached answer.
func (v JudgeVerdict) Accepts() bool {
	return v == JudgeYes
}

// ParseJudgeVerdict maps a literal token to a verdict; anything else is UNCERTAIN.
func ParseJudgeVerdict(s string) (JudgeVerdict, bool) {
	switch JudgeVerdict(s) {
	case JudgeYes, JudgeNo, JudgeUncertain, JudgeCallAPI:
		return JudgeVerdict(s), true
	}
	return JudgeUncertain, false
}

type JudgeResult struct {
	Verdict JudgeVerdict `json:"verdict"`
	Reason  string       `json:"reason"`
}

// Complexity is the question complexity class.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityComplex Complexity = "complex"
)
