package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/llm"
	"github.com/Egham-7/pitchside/internal/utils"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultTimeout        = 8 * time.Second
	defaultMaxAnswerChars = 500
	defaultMaxTokens      = 200
)

const systemPrompt = `You decide whether a cached answer from a football assistant can be reused for a new question.
Think step by step: compare the people, clubs, competitions, seasons and dates the question asks about with those the cached answer covers.
Answer YES only if the cached answer fully and correctly answers the new question.
Answer NO if it answers a different question or covers different entities or dates.
Answer UNCERTAIN if you cannot tell.`

var (
	verdictMarker = regexp.MustCompile(`(?i)verdict\s*[:：]\s*[*"'\x60]*\s*(YES|NO|UNCERTAIN|CALL_API)\b`)
	reasonMarker  = regexp.MustCompile(`(?i)reason\s*[:：]\s*(.+)`)
)

var verdictSchema = &llm.Schema{
	Name: "cache_verdict",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reasoning": map[string]any{"type": "string"},
			"verdict":   map[string]any{"type": "string", "enum": []string{"YES", "NO", "UNCERTAIN"}},
			"reason":    map[string]any{"type": "string"},
		},
		"required":             []string{"reasoning", "verdict", "reason"},
		"additionalProperties": false,
	},
}

// ProviderSource resolves a provider by name.
type ProviderSource interface {
	Provider(ctx context.Context, name string) (llm.Provider, error)
}

// CacheJudge asks a second, cheap model whether a cached answer may be
// reused. Every failure path yields UNCERTAIN, which callers must treat as a
// rejection.
type CacheJudge struct {
	providers      ProviderSource
	provider       string
	model          string
	enabled        bool
	timeout        time.Duration
	maxAnswerChars int
	maxTokens      int
}

func New(providers ProviderSource, cfg models.JudgeConfig) *CacheJudge {
	j := &CacheJudge{
		providers:      providers,
		provider:       cfg.Provider,
		model:          cfg.Model,
		enabled:        cfg.Enabled,
		timeout:        time.Duration(cfg.TimeoutMs) * time.Millisecond,
		maxAnswerChars: cfg.MaxAnswerChars,
		maxTokens:      cfg.MaxTokens,
	}
	if j.timeout <= 0 {
		j.timeout = defaultTimeout
	}
	if j.maxAnswerChars <= 0 {
		j.maxAnswerChars = defaultMaxAnswerChars
	}
	if j.maxTokens <= 0 {
		j.maxTokens = defaultMaxTokens
	}
	return j
}

// Judge returns the verdict for reusing cachedAnswer to answer query.
func (j *CacheJudge) Judge(ctx context.Context, query, cachedAnswer string, similarity float64, requestID string) models.JudgeResult {
	if j == nil || !j.enabled {
		return uncertain("judge disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	provider, err := j.providers.Provider(ctx, j.provider)
	if err != nil {
		fiberlog.Warnf("[%s] CacheJudge: Provider %s unavailable: %v", requestID, j.provider, err)
		return uncertain(err.Error())
	}

	start := time.Now()
	temperature := 0.0
	resp, err := provider.Complete(ctx, llm.Request{
		Model:       j.model,
		System:      systemPrompt,
		User:        j.buildPrompt(query, cachedAnswer, similarity),
		MaxTokens:   j.maxTokens,
		Temperature: &temperature,
		JSONSchema:  verdictSchema,
	})
	if err != nil {
		fiberlog.Warnf("[%s] CacheJudge: Call failed after %v, defaulting to %s: %v",
			requestID, time.Since(start), models.JudgeUncertain, err)
		return uncertain(err.Error())
	}

	result := ParseVerdict(resp.Text)
	fiberlog.Infof("[%s] CacheJudge: Verdict %s in %v (similarity %.3f)",
		requestID, result.Verdict, time.Since(start), similarity)
	return result
}

func (j *CacheJudge) buildPrompt(query, cachedAnswer string, similarity float64) string {
	buf := utils.Get()
	defer utils.Put(buf)

	fmt.Fprintf(buf, "New question: %s\n\n", strings.TrimSpace(query))
	fmt.Fprintf(buf, "Cached answer (similarity %.2f):\n%s\n\n", similarity, truncate(cachedAnswer, j.maxAnswerChars))
	buf.WriteString(`Reply as JSON: {"reasoning": "...", "verdict": "YES" | "NO" | "UNCERTAIN", "reason": "one sentence"}.` + "\n")
	buf.WriteString("If you cannot produce JSON, end with the lines VERDICT: <YES|NO|UNCERTAIN> and REASON: <one sentence>.")
	return buf.String()
}

type verdictPayload struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// ParseVerdict reads a structured verdict, falling back to a VERDICT: marker
// in free text. Anything else is UNCERTAIN.
func ParseVerdict(text string) models.JudgeResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return uncertain("empty judge response")
	}

	if payload, ok := decodeJSON(text); ok {
		verdict, valid := models.ParseJudgeVerdict(strings.ToUpper(strings.TrimSpace(payload.Verdict)))
		if !valid {
			return uncertain(fmt.Sprintf("unrecognized verdict %q", payload.Verdict))
		}
		return models.JudgeResult{Verdict: verdict, Reason: strings.TrimSpace(payload.Reason)}
	}

	m := verdictMarker.FindStringSubmatch(text)
	if m == nil {
		return uncertain("no verdict marker in judge response")
	}
	verdict, _ := models.ParseJudgeVerdict(strings.ToUpper(m[1]))

	reason := ""
	if r := reasonMarker.FindStringSubmatch(text); r != nil {
		reason = strings.TrimSpace(r[1])
	}
	return models.JudgeResult{Verdict: verdict, Reason: reason}
}

func decodeJSON(text string) (verdictPayload, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return verdictPayload{}, false
	}
	var p verdictPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil || p.Verdict == "" {
		return verdictPayload{}, false
	}
	return p, true
}

func uncertain(reason string) models.JudgeResult {
	return models.JudgeResult{Verdict: models.JudgeUncertain, Reason: reason}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
