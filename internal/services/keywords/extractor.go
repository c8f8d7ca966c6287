package keywords

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Set is an unordered keyword set. Keywords are lowercased.
type Set map[string]struct{}

func (s Set) Add(k string) {
	if k != "" {
		s[k] = struct{}{}
	}
}

func (s Set) Has(k string) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the keywords in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Keywords splits an extraction into the full set and the core subset of
// named entities, dates and known clubs or competitions.
type Keywords struct {
	All  Set
	Core Set
}

var (
	// multi-word capitalized sequences, e.g. "Harry Kane", "Son Heung Min"
	properNamePattern = regexp.MustCompile(`\b[A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+)+\b`)

	isoDatePattern    = regexp.MustCompile(`\b(?:19|20)\d{2}[-/.](?:0?[1-9]|1[0-2])[-/.](?:0?[1-9]|[12]\d|3[01])\b`)
	seasonPattern     = regexp.MustCompile(`\b(?:19|20)?\d{2}\s*/\s*\d{2}\b`)
	koreanYearPattern = regexp.MustCompile(`((?:19|20)\d{2})\s*년`)
	monthPattern      = regexp.MustCompile(`(1[0-2]|0?[1-9])\s*월`)
	dayPattern        = regexp.MustCompile(`([12]\d|3[01]|0?[1-9])\s*일`)
	digitRunPattern   = regexp.MustCompile(`\d+`)
)

// particles are stripped from the end of Hangul tokens, longest first.
var particles = []string{
	"에서는", "으로는", "까지는", "에게서", "이라는", "이라고",
	"에서", "으로", "까지", "부터", "한테", "에게", "께서", "처럼", "보다", "라는", "이랑", "하고", "이나", "이야", "인가", "이란",
	"은", "는", "이", "가", "을", "를", "의", "에", "와", "과", "도", "로", "만", "랑", "나", "야", "요",
}

// Extractor pulls salient keywords out of free text. It is stateless after
// construction and safe for concurrent use.
type Extractor struct {
	gazetteer *Gazetteer
	stopwords map[string]struct{}
}

// NewExtractor creates an extractor over the given gazetteer. A nil
// gazetteer uses the built-in entity list.
func NewExtractor(g *Gazetteer) *Extractor {
	if g == nil {
		g = NewGazetteer(nil)
	}
	stop := make(map[string]struct{}, len(koreanStopwords)+len(englishStopwords))
	for _, w := range koreanStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range englishStopwords {
		stop[w] = struct{}{}
	}
	return &Extractor{gazetteer: g, stopwords: stop}
}

func (e *Extractor) Gazetteer() *Gazetteer {
	return e.gazetteer
}

// Extract returns the union of all keyword categories.
func (e *Extractor) Extract(text string) Set {
	return e.ExtractKeywords(text).All
}

// ExtractKeywords returns both the full keyword set and its core subset.
func (e *Extractor) ExtractKeywords(text string) Keywords {
	kw := Keywords{All: make(Set), Core: make(Set)}
	if strings.TrimSpace(text) == "" {
		return kw
	}
	lowered := strings.ToLower(text)

	core := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return
		}
		kw.All.Add(k)
		kw.Core.Add(k)
	}

	for _, m := range properNamePattern.FindAllString(text, -1) {
		if name := e.trimName(m); name != "" {
			core(name)
		}
	}

	for _, d := range extractDates(text) {
		core(d)
	}

	for _, alias := range e.gazetteer.Match(lowered) {
		core(alias)
	}

	for _, tok := range tokenize(lowered) {
		if isHangulWord(tok) {
			stem := stripParticle(tok)
			if e.isStopword(stem) {
				continue
			}
			n := utf8.RuneCountInString(stem)
			switch {
			case n == 1 && stem != tok:
				core(stem)
			case n >= 2 && n <= 4:
				core(stem)
			case n > 4:
				kw.All.Add(stem)
			}
			continue
		}
		if isASCIIWord(tok) && len(tok) >= 3 && !e.isStopword(tok) {
			kw.All.Add(tok)
		}
	}

	return kw
}

// trimName drops capitalized function words ("What", "Did") from the edges
// of a proper-name match.
func (e *Extractor) trimName(m string) string {
	words := strings.Fields(m)
	for len(words) > 0 && e.isStopword(strings.ToLower(words[0])) {
		words = words[1:]
	}
	for len(words) > 0 && e.isStopword(strings.ToLower(words[len(words)-1])) {
		words = words[:len(words)-1]
	}
	if len(words) == 1 && len(words[0]) < 3 {
		return ""
	}
	return strings.Join(words, " ")
}

func (e *Extractor) isStopword(w string) bool {
	_, ok := e.stopwords[w]
	return ok
}

// extractDates finds ISO dates, seasons, Korean year/month/day forms and
// bare years. Years are normalized to their four digits.
func extractDates(text string) []string {
	var out []string
	out = append(out, isoDatePattern.FindAllString(text, -1)...)
	rest := isoDatePattern.ReplaceAllString(text, " ")
	for _, m := range seasonPattern.FindAllString(rest, -1) {
		out = append(out, strings.ReplaceAll(m, " ", ""))
	}
	for _, m := range koreanYearPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	for _, m := range monthPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimLeft(m[1], "0")+"월")
	}
	for _, m := range dayPattern.FindAllStringSubmatchIndex(text, -1) {
		// "일" is also a common syllable; only count it right after digits
		if m[2] > 0 && isDigitByte(text[m[2]-1]) {
			continue
		}
		out = append(out, strings.TrimLeft(text[m[2]:m[3]], "0")+"일")
	}
	// digit runs of exactly four that look like a year
	for _, run := range digitRunPattern.FindAllString(text, -1) {
		if len(run) == 4 && (strings.HasPrefix(run, "19") || strings.HasPrefix(run, "20")) {
			out = append(out, run)
		}
	}
	return out
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

func tokenize(lowered string) []string {
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isHangulWord(tok string) bool {
	for _, r := range tok {
		if !unicode.Is(unicode.Hangul, r) {
			return false
		}
	}
	return tok != ""
}

func isASCIIWord(tok string) bool {
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return tok != ""
}

// markers may be stripped down to a one-syllable noun ("폼은" -> "폼").
var markers = []string{"은", "는", "을", "를"}

// stripParticle removes one trailing particle. The stem keeps at least two
// runes unless the particle is a topic or object marker.
func stripParticle(tok string) string {
	for _, p := range particles {
		if !strings.HasSuffix(tok, p) {
			continue
		}
		stem := strings.TrimSuffix(tok, p)
		n := utf8.RuneCountInString(stem)
		if n >= 2 || (n == 1 && slices.Contains(markers, p)) {
			return stem
		}
	}
	return tok
}

var koreanStopwords = []string{
	"그리고", "그런데", "하지만", "그래서", "또는", "그러나",
	"어떤", "어떻게", "무엇", "뭐야", "무슨", "누구", "언제", "어디", "얼마나", "어느", "왜",
	"정도", "대한", "대해", "관련", "관해", "알려줘", "알려주세요", "말해줘", "설명해줘", "궁금해", "궁금",
	"있어", "있나", "있는", "없는", "했어", "했나", "했던", "하는", "되는", "인지", "이번", "그때",
	"최근", "요즘", "정말", "진짜", "너무", "많이", "좀", "제일", "가장", "혹시",
	"축구", "질문", "이야기", "얘기",
	"것", "수", "때", "나", "너", "저", "그", "이", "가", "하", "되", "있", "없", "뭐", "누", "어", "더", "잘",
	"넣", "뛰", "받", "본", "한", "된", "온", "간",
}

var englishStopwords = []string{
	"the", "and", "for", "what", "who", "how", "when", "where", "which", "why", "with", "about",
	"does", "did", "was", "were", "are", "his", "her", "hers", "their", "this", "that", "these", "those",
	"tell", "please", "can", "could", "would", "should", "has", "have", "had", "from", "into",
	"than", "then", "there", "they", "them", "will", "just", "more", "most", "some", "any", "all",
	"you", "your", "our", "its", "been", "being", "not", "but", "out", "over", "also", "very",
	"recent", "recently", "football", "soccer", "explain", "know",
}
