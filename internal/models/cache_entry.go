package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CacheEntry is one previously generated answer held by the answer cache.
type CacheEntry struct {
	QueryHash       string        `json:"query_hash"`
	NormalizedQuery string        `json:"normalized_query"`
	QueryPreview    string        `json:"original_query_preview"`
	Answer          string        `json:"answer_text"`
	CreatedAt       time.Time     `json:"created_at"`
	Metadata        EntryMetadata `json:"metadata"`
}

// Age returns how long ago the entry was written, relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	if e.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(e.CreatedAt)
}

// EntryMetadata carries auxiliary generation details. Known fields are typed;
// anything else goes to Extra, which only accepts scalar values.
type EntryMetadata struct {
	Model            string               `json:"model,omitempty"`
	Provider         string               `json:"provider,omitempty"`
	PromptTokens     int64                `json:"prompt_tokens,omitempty"`
	CompletionTokens int64                `json:"completion_tokens,omitempty"`
	SourceIDs        string               `json:"source_ids,omitempty"`
	Route            string               `json:"route,omitempty"`
	Complexity       string               `json:"complexity,omitempty"`
	Extra            map[string]MetaValue `json:"extra,omitempty"`
}

// SetSourceIDs stores the ids as a comma-joined string.
func (m *EntryMetadata) SetSourceIDs(ids []string) {
	m.SourceIDs = strings.Join(ids, ",")
}

func (m EntryMetadata) SourceIDList() []string {
	if m.SourceIDs == "" {
		return nil
	}
	return strings.Split(m.SourceIDs, ",")
}

// SetExtra converts v to a MetaValue and stores it. Values that cannot be
// represented are dropped and false is returned.
func (m *EntryMetadata) SetExtra(key string, v any) bool {
	mv, ok := MetaValueOf(v)
	if !ok {
		return false
	}
	if m.Extra == nil {
		m.Extra = make(map[string]MetaValue)
	}
	m.Extra[key] = mv
	return true
}

// Sanitize drops empty keys and invalid values from Extra.
func (m EntryMetadata) Sanitize() EntryMetadata {
	if len(m.Extra) == 0 {
		m.Extra = nil
		return m
	}
	clean := make(map[string]MetaValue, len(m.Extra))
	for k, v := range m.Extra {
		if strings.TrimSpace(k) == "" || v.kind == metaInvalid {
			continue
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		clean = nil
	}
	m.Extra = clean
	return m
}

type metaKind uint8

const (
	metaInvalid metaKind = iota
	metaString
	metaInt
	metaFloat
	metaBool
)

// MetaValue holds exactly one of string, int64, float64 or bool.
type MetaValue struct {
	kind metaKind
	s    string
	i    int64
	f    float64
	b    bool
}

func StringValue(s string) MetaValue { return MetaValue{kind: metaString, s: s} }
func IntValue(i int64) MetaValue { return MetaValue{kind: metaInt, i: i} }
func FloatValue(f float64) MetaValue { return MetaValue{kind: metaFloat, f: f} }
func BoolValue(b bool) MetaValue { return MetaValue{kind: metaBool, b: b} }
func (v MetaValue) IsValid() bool { return v.kind != metaInvalid }
func (v MetaValue) String() string { return fmt.Sprint(v.Any()) }

// MetaValueOf accepts scalars and lists. Lists are stringified as a
// comma-joined string of their elements.
func MetaValueOf(v any) (MetaValue, bool) {
	switch x := v.(type) {
	case MetaValue:
		return x, x.IsValid()
	case string:
		return StringValue(x), true
	case bool:
		return BoolValue(x), true
	case int:
		return IntValue(int64(x)), true
	case int32:
		return IntValue(int64(x)), true
	case int64:
		return IntValue(x), true
	case uint:
		return IntValue(int64(x)), true
	case float32:
		return FloatValue(float64(x)), true
	case float64:
		return FloatValue(x), true
	case []string:
		return StringValue(strings.Join(x, ",")), true
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			mv, ok := MetaValueOf(item)
			if !ok {
				return MetaValue{}, false
			}
			parts = append(parts, mv.String())
		}
		return StringValue(strings.Join(parts, ",")), true
	default:
		return MetaValue{}, false
	}
}

// Any returns the underlying Go value.
func (v MetaValue) Any() any {
	switch v.kind {
	case metaString:
		return v.s
	case metaInt:
		return v.i
	case metaFloat:
		return v.f
	case metaBool:
		return v.b
	default:
		return nil
	}
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = StringValue(x)
	case bool:
		*v = BoolValue(x)
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := x.Float64()
		if err != nil {
			return err
		}
		*v = FloatValue(f)
	default:
		return fmt.Errorf("unsupported metadata value %T", raw)
	}
	return nil
}

// SimilarityMatch is the result of one nearest-neighbour lookup. It is built
// per request and never stored.
type SimilarityMatch struct {
	Entry        CacheEntry `json:"-"`
	Answer       string     `json:"answer"`
	Similarity   float64    `json:"similarity"`
	AgeInDays    float64    `json:"age_in_days"`
	KeywordScore float64    `json:"keyword_score"`
}
