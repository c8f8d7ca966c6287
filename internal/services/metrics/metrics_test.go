package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(judgeVerdicts.WithLabelValues("UNCERTAIN"))
	IncJudgeVerdict("UNCERTAIN")
	assert.Equal(t, before+1, testutil.ToFloat64(judgeVerdicts.WithLabelValues("UNCERTAIN")))

	vetoes := testutil.ToFloat64(keywordVetoes)
	IncKeywordVeto()
	assert.Equal(t, vetoes+1, testutil.ToFloat64(keywordVetoes))

	saved := testutil.ToFloat64(costSaved)
	AddCostSaved(0.25)
	AddCostSaved(-1)
	assert.InDelta(t, saved+0.25, testutil.ToFloat64(costSaved), 1e-9)
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
		ObserveStage("generate", time.Now())
		ObserveSimilarity(0.8)
	})
}
