package keywords

import "strings"

const neutralScore = 0.5

// GateConfig holds the keyword gate weights and bypass threshold.
type GateConfig struct {
	GeneralWeight float64
	CoreWeight    float64
	Threshold     float64
}

// DefaultGateConfig returns the 0.6 general / 0.4 core weighting with a 0.5
// bypass threshold.
func DefaultGateConfig() GateConfig {
	return GateConfig{GeneralWeight: 0.6, CoreWeight: 0.4, Threshold: 0.5}
}

// Gate scores how well a cached answer covers a query's keywords and vetoes
// candidates that do not even mention the query's entities.
type Gate struct {
	extractor *Extractor
	cfg       GateConfig
}

func NewGate(extractor *Extractor, cfg GateConfig) *Gate {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	if cfg.GeneralWeight+cfg.CoreWeight <= 0 {
		def := DefaultGateConfig()
		cfg.GeneralWeight, cfg.CoreWeight = def.GeneralWeight, def.CoreWeight
	}
	return &Gate{extractor: extractor, cfg: cfg}
}

func (g *Gate) Threshold() float64 {
	return g.cfg.Threshold
}

// Score returns the weighted overlap of query keywords found in answer, in [0,1].
func (g *Gate) Score(query, answer string) float64 {
	q := g.extractor.ExtractKeywords(query)
	a := g.extractor.Extract(answer)
	return g.ScoreKeywords(q, a, strings.ToLower(answer))
}

// ScoreKeywords scores pre-extracted keywords. A query keyword counts as
// covered when it is in the answer's set or appears verbatim in the lowered
// answer text. An empty query set scores neutral 0.5.
func (g *Gate) ScoreKeywords(query Keywords, answer Set, loweredAnswer string) float64 {
	if len(query.All) == 0 {
		return neutralScore
	}

	general := overlapRatio(query.All, answer, loweredAnswer)
	core := general
	if len(query.Core) > 0 {
		core = overlapRatio(query.Core, answer, loweredAnswer)
	}

	total := g.cfg.GeneralWeight + g.cfg.CoreWeight
	score := (g.cfg.GeneralWeight*general + g.cfg.CoreWeight*core) / total
	return clamp01(score)
}

// ShouldBypass reports whether the judge should be skipped because the
// score is under the configured threshold.
func (g *Gate) ShouldBypass(score float64) bool {
	return ShouldBypass(score, g.cfg.Threshold)
}

// ShouldBypass reports score < threshold.
func ShouldBypass(score, threshold float64) bool {
	return score < threshold
}

func overlapRatio(query, answer Set, loweredAnswer string) float64 {
	if len(query) == 0 {
		return 0
	}
	var hit int
	for k := range query {
		if answer.Has(k) || inText(loweredAnswer, k) {
			hit++
		}
	}
	return float64(hit) / float64(len(query))
}

// inText matches ASCII keywords on word boundaries ("son" is not in
// "season"). Hangul keywords match as substrings so particles still attach.
func inText(lowered, k string) bool {
	if lowered == "" {
		return false
	}
	if isASCII(k) {
		return containsWord(lowered, k)
	}
	return strings.Contains(lowered, k)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
