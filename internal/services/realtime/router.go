package realtime

import (
	"strings"
	"unicode/utf8"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/keywords"
)

// Keywords that mean the answer depends on live data: results, standings,
// news, transfers, injuries and anything anchored to "now".
var defaultRealtimeKeywords = []string{
	"오늘", "어제", "내일", "지금", "현재", "실시간", "라이브", "중계",
	"결과", "스코어", "순위", "랭킹", "뉴스", "속보", "소식",
	"이적", "영입", "부상", "라인업", "선발", "일정", "최신", "이번 주", "이번주", "다음 경기",
	"today", "tonight", "yesterday", "tomorrow", "now", "live", "latest", "current",
	"score", "scores", "result", "results", "standings", "ranking", "rankings", "table",
	"news", "transfer", "transfers", "injury", "injuries", "injured", "lineup", "lineups",
	"fixture", "fixtures", "schedule", "this week", "next match",
}

// Keywords of historical or explanatory questions whose answers do not go stale.
var defaultSafeKeywords = []string{
	"역사", "역대", "규칙", "룰", "설명", "의미", "유래", "전술", "포메이션",
	"통산", "커리어", "경력", "프로필", "출신", "차이", "원리", "뜻", "최다", "창단", "전설", "과거",
	"history", "historical", "rule", "rules", "explain", "meaning", "origin", "tactic", "tactics",
	"formation", "career", "all-time", "biography", "legend", "founded", "record", "records",
	"difference", "definition",
}

// Verdict is the router decision with the keywords that produced it.
type Verdict struct {
	Route   models.RouterVerdict
	Matched []string
}

// Router decides whether a query needs live data before the cache is consulted.
type Router struct {
	realtime       []string
	safe           []string
	safeMinMatches int
}

// NewRouter creates a router over the built-in keyword lists extended by cfg.
func NewRouter(cfg models.RouterConfig) *Router {
	minMatches := cfg.SafeMinMatches
	if minMatches <= 0 {
		minMatches = 2
	}
	return &Router{
		realtime:       mergeKeywords(defaultRealtimeKeywords, cfg.ExtraRealtimeKeywords),
		safe:           mergeKeywords(defaultSafeKeywords, cfg.ExtraSafeKeywords),
		safeMinMatches: minMatches,
	}
}

// Classify returns realtime, cache_ok or unknown for a query.
func (r *Router) Classify(query string) models.RouterVerdict {
	return r.Explain(query).Route
}

// Explain classifies a query and reports which keywords matched. The first
// realtime keyword short-circuits; safe keywords need safeMinMatches hits.
func (r *Router) Explain(query string) Verdict {
	if !utf8.ValidString(query) || strings.TrimSpace(query) == "" {
		return Verdict{Route: models.RouteUnknown}
	}
	lowered := strings.ToLower(query)

	for _, kw := range r.realtime {
		if keywords.ContainsTerm(lowered, kw) {
			return Verdict{Route: models.RouteRealtime, Matched: []string{kw}}
		}
	}

	var matched []string
	for _, kw := range r.safe {
		if keywords.ContainsTerm(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) >= r.safeMinMatches {
		return Verdict{Route: models.RouteCacheOK, Matched: matched}
	}
	return Verdict{Route: models.RouteUnknown, Matched: matched}
}

func mergeKeywords(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
