package complexity

import (
	"strings"
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/keywords"
)

const defaultLengthThreshold = 80

var comparisonMarkers = []string{
	"비교", "차이", "대결", "누가 더", "어느 팀", "어느 쪽", "보다 나은",
	"vs", "versus", "compare", "comparison", "better than", "head to head",
}

var multiPartMarkers = []string{
	"그리고", "또한", "그리고요", "아울러",
	"and also", "as well as", "in addition",
}

// Queries that want a tool rather than prose: weather, video, schedules.
var toolMarkers = []string{
	"날씨", "기온", "영상", "하이라이트", "동영상", "예매", "티켓",
	"weather", "forecast", "video", "highlight", "highlights", "ticket", "tickets",
}

// Result is the classification with the rules that fired.
type Result struct {
	Class   models.Complexity
	Reasons []string
}

func (r Result) IsComplex() bool {
	return r.Class == models.ComplexityComplex
}

// Classifier separates single-shot questions from ones that need more
// context or several data sources.
type Classifier struct {
	gazetteer       *keywords.Gazetteer
	lengthThreshold int
}

func NewClassifier(g *keywords.Gazetteer, cfg models.ComplexityConfig) *Classifier {
	if g == nil {
		g = keywords.NewGazetteer(nil)
	}
	threshold := cfg.LengthThreshold
	if threshold <= 0 {
		threshold = defaultLengthThreshold
	}
	return &Classifier{gazetteer: g, lengthThreshold: threshold}
}

// Classify labels a query simple or complex.
func (c *Classifier) Classify(query string) Result {
	lowered := strings.ToLower(strings.TrimSpace(query))
	res := Result{Class: models.ComplexitySimple}
	if lowered == "" {
		return res
	}

	if n := len(c.gazetteer.Entities(lowered)); n >= 2 {
		res.Reasons = append(res.Reasons, "multiple_entities")
	}
	if containsAny(lowered, comparisonMarkers) {
		res.Reasons = append(res.Reasons, "comparison")
	}
	if strings.Count(lowered, "?")+strings.Count(lowered, "？") >= 2 || containsAny(lowered, multiPartMarkers) {
		res.Reasons = append(res.Reasons, "multi_part")
	}
	if containsAny(lowered, toolMarkers) {
		res.Reasons = append(res.Reasons, "tool_intent")
	}
	if utf8.RuneCountInString(lowered) > c.lengthThreshold {
		res.Reasons = append(res.Reasons, "long_query")
	}

	if len(res.Reasons) > 0 {
		res.Class = models.ComplexityComplex
	}
	return res
}

func containsAny(lowered string, terms []string) bool {
	for _, t := range terms {
		if keywords.ContainsTerm(lowered, t) {
			return true
		}
	}
	return false
}
