package judge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLLMProvider struct {
	response string
	err      error
	delay    time.Duration
	lastReq  llm.Request
	calls    int
}

func (m *MockLLMProvider) Name() string { return "mock" }

func (m *MockLLMProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.calls++
	m.lastReq = req
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Text: m.response}, nil
}

type staticSource struct {
	provider llm.Provider
	err      error
}

func (s staticSource) Provider(context.Context, string) (llm.Provider, error) {
	return s.provider, s.err
}

func newJudge(p llm.Provider, cfg models.JudgeConfig) *CacheJudge {
	cfg.Enabled = true
	return New(staticSource{provider: p}, cfg)
}

func TestCacheJudge_Verdicts(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		err         error
		wantVerdict models.JudgeVerdict
		wantReason  string
	}{
		{
			name:        "structured yes",
			response:    `{"reasoning":"same player and period","verdict":"YES","reason":"covers recent form"}`,
			wantVerdict: models.JudgeYes,
			wantReason:  "covers recent form",
		},
		{
			name:        "structured no in code fence",
			response:    "```json\n{\"reasoning\":\"x\",\"verdict\":\"no\",\"reason\":\"different season\"}\n```",
			wantVerdict: models.JudgeNo,
			wantReason:  "different season",
		},
		{
			name:        "marker fallback",
			response:    "The cached answer is about 2023.\nVERDICT: NO\nREASON: the question asks about 2024",
			wantVerdict: models.JudgeNo,
			wantReason:  "the question asks about 2024",
		},
		{
			name:        "marker with markdown",
			response:    "verdict: **YES**",
			wantVerdict: models.JudgeYes,
		},
		{
			name:        "call api marker",
			response:    "VERDICT: CALL_API\nREASON: needs live scores",
			wantVerdict: models.JudgeCallAPI,
			wantReason:  "needs live scores",
		},
		{
			name:        "unknown json verdict",
			response:    `{"verdict":"MAYBE","reason":"?"}`,
			wantVerdict: models.JudgeUncertain,
		},
		{
			name:        "no marker",
			response:    "I think it is probably fine.",
			wantVerdict: models.JudgeUncertain,
			wantReason:  "no verdict marker in judge response",
		},
		{
			name:        "provider error",
			err:         errors.New("503 service unavailable"),
			wantVerdict: models.JudgeUncertain,
			wantReason:  "503 service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockLLMProvider{response: tt.response, err: tt.err}
			j := newJudge(mock, models.JudgeConfig{Model: "gpt-4o-mini"})

			got := j.Judge(context.Background(), "손흥민 최근 폼은?", "손흥민은 최근 5경기 3골", 0.82, "test")

			assert.Equal(t, tt.wantVerdict, got.Verdict)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
			assert.Equal(t, 1, mock.calls)
		})
	}
}

func TestCacheJudge_TimeoutIsUncertain(t *testing.T) {
	mock := &MockLLMProvider{response: `{"verdict":"YES","reason":"late"}`, delay: time.Second}
	j := newJudge(mock, models.JudgeConfig{TimeoutMs: 20})

	got := j.Judge(context.Background(), "q", "a", 0.8, "test")
	assert.Equal(t, models.JudgeUncertain, got.Verdict)
	assert.False(t, got.Verdict.Accepts())
}

func TestCacheJudge_ProviderUnavailable(t *testing.T) {
	j := New(staticSource{err: models.NewCircuitBreakerError("openai")}, models.JudgeConfig{Enabled: true})

	got := j.Judge(context.Background(), "q", "a", 0.8, "test")
	assert.Equal(t, models.JudgeUncertain, got.Verdict)
	assert.Contains(t, got.Reason, "circuit breaker")
}

func TestCacheJudge_Disabled(t *testing.T) {
	mock := &MockLLMProvider{response: "VERDICT: YES"}
	j := New(staticSource{provider: mock}, models.JudgeConfig{Enabled: false})

	got := j.Judge(context.Background(), "q", "a", 0.8, "test")
	assert.Equal(t, models.JudgeUncertain, got.Verdict)
	assert.Zero(t, mock.calls)
}

func TestCacheJudge_PromptIsBounded(t *testing.T) {
	mock := &MockLLMProvider{response: "VERDICT: NO"}
	j := newJudge(mock, models.JudgeConfig{MaxAnswerChars: 10, Model: "judge-model"})

	j.Judge(context.Background(), "arsenal news", strings.Repeat("가", 50), 0.8, "test")

	require.NotNil(t, mock.lastReq.JSONSchema)
	assert.Equal(t, "judge-model", mock.lastReq.Model)
	assert.Contains(t, mock.lastReq.User, strings.Repeat("가", 10)+"...")
	assert.NotContains(t, mock.lastReq.User, strings.Repeat("가", 11))
	assert.Contains(t, mock.lastReq.User, "similarity 0.80")
	require.NotNil(t, mock.lastReq.Temperature)
	assert.Zero(t, *mock.lastReq.Temperature)
}

func TestParseVerdict_Empty(t *testing.T) {
	got := ParseVerdict("   ")
	assert.Equal(t, models.JudgeUncertain, got.Verdict)
}
