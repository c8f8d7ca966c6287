package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	c := []float32{2, 0}

	assert.InDelta(t, 0, Cosine(a, Norm(a), b, Norm(b)), 1e-9)
	assert.InDelta(t, 1, Cosine(a, Norm(a), c, Norm(c)), 1e-9)
	assert.Zero(t, Cosine(a, Norm(a), []float32{1}, 1))
	assert.Zero(t, Cosine(a, 0, c, Norm(c)))
	assert.InDelta(t, 5, Norm([]float32{3, 4}), 1e-9)
}
