package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Known clubs, national sides and competitions. Each alias maps to a
// canonical id so "맨유" and "man utd" count as the same entity.
var defaultEntities = map[string][]string{
	"tottenham":         {"토트넘", "토트넘 홋스퍼", "tottenham", "tottenham hotspur", "spurs"},
	"manchester_united": {"맨유", "맨체스터 유나이티드", "manchester united", "man united", "man utd"},
	"manchester_city":   {"맨시티", "맨체스터 시티", "manchester city", "man city"},
	"liverpool":         {"리버풀", "liverpool"},
	"arsenal":           {"아스날", "아스널", "arsenal"},
	"chelsea":           {"첼시", "chelsea"},
	"newcastle":         {"뉴캐슬", "newcastle"},
	"aston_villa":       {"아스톤 빌라", "애스턴 빌라", "aston villa"},
	"real_madrid":       {"레알 마드리드", "레알", "real madrid"},
	"barcelona":         {"바르셀로나", "바르사", "barcelona", "barca"},
	"atletico_madrid":   {"아틀레티코", "atletico madrid", "atletico"},
	"bayern_munich":     {"바이에른 뮌헨", "바이에른", "뮌헨", "bayern munich", "bayern"},
	"dortmund":          {"도르트문트", "dortmund"},
	"psg":               {"파리 생제르맹", "psg", "paris saint-germain"},
	"juventus":          {"유벤투스", "juventus"},
	"inter_milan":       {"인터 밀란", "인테르", "inter milan", "inter"},
	"ac_milan":          {"ac 밀란", "ac milan"},
	"napoli":            {"나폴리", "napoli"},
	"ulsan":             {"울산", "울산 현대", "ulsan"},
	"jeonbuk":           {"전북", "전북 현대", "jeonbuk"},
	"pohang":            {"포항", "포항 스틸러스", "pohang"},
	"fc_seoul":          {"fc서울", "fc 서울", "fc seoul"},
	"suwon":             {"수원 삼성", "suwon"},
	"korea_national":    {"국가대표", "대표팀", "korea national team"},
	"premier_league":    {"프리미어리그", "epl", "premier league"},
	"la_liga":           {"라리가", "la liga"},
	"bundesliga":        {"분데스리가", "bundesliga"},
	"serie_a":           {"세리에a", "세리에 a", "serie a"},
	"ligue_1":           {"리그앙", "ligue 1"},
	"champions_league":  {"챔피언스리그", "챔스", "champions league", "ucl"},
	"europa_league":     {"유로파리그", "europa league"},
	"k_league":          {"k리그", "k league"},
	"world_cup":         {"월드컵", "world cup"},
	"asian_cup":         {"아시안컵", "asian cup"},
}

// Gazetteer matches known entity names inside free text.
type Gazetteer struct {
	aliases []gazetteerAlias
}

type gazetteerAlias struct {
	alias     string
	canonical string
}

// NewGazetteer builds a gazetteer from the default entity list plus extra
// entries keyed by canonical id.
func NewGazetteer(extra map[string][]string) *Gazetteer {
	g := &Gazetteer{}
	add := func(entities map[string][]string) {
		for canonical, aliases := range entities {
			for _, a := range aliases {
				a = strings.ToLower(strings.TrimSpace(a))
				if a == "" {
					continue
				}
				g.aliases = append(g.aliases, gazetteerAlias{alias: a, canonical: canonical})
			}
		}
	}
	add(defaultEntities)
	add(extra)

	// longest alias first so "맨체스터 유나이티드" wins over shorter overlaps
	sort.Slice(g.aliases, func(i, j int) bool {
		if len(g.aliases[i].alias) != len(g.aliases[j].alias) {
			return len(g.aliases[i].alias) > len(g.aliases[j].alias)
		}
		return g.aliases[i].alias < g.aliases[j].alias
	})
	return g
}

// Match returns the matched aliases (as written in the gazetteer) found in
// lowered text.
func (g *Gazetteer) Match(lowered string) []string {
	var out []string
	for _, a := range g.aliases {
		if ContainsTerm(lowered, a.alias) {
			out = append(out, a.alias)
		}
	}
	return out
}

// Entities returns the distinct canonical ids mentioned in lowered text.
func (g *Gazetteer) Entities(lowered string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range g.aliases {
		if !ContainsTerm(lowered, a.alias) {
			continue
		}
		if _, dup := seen[a.canonical]; dup {
			continue
		}
		seen[a.canonical] = struct{}{}
		out = append(out, a.canonical)
	}
	sort.Strings(out)
	return out
}

// ContainsTerm reports whether lowered text mentions term. ASCII terms must
// match whole words; Hangul terms match anywhere since particles attach to
// the word they follow.
func ContainsTerm(lowered, term string) bool {
	if isASCII(term) {
		return containsWord(lowered, term)
	}
	return strings.Contains(lowered, term)
}

// containsWord reports whether word occurs in s delimited by non-alphanumerics.
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; start <= len(s)-len(word); {
		idx := strings.Index(s[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		if boundaryBefore(s, idx) && boundaryAfter(s, end) {
			return true
		}
		start = idx + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	// Hangul after an ASCII word is a particle ("psg는"), not part of the word
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= unicode.MaxASCII {
			return false
		}
	}
	return true
}
