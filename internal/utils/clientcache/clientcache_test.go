package clientcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate_BuildsOnce(t *testing.T) {
	c := NewCache[*int]()
	var builds atomic.Int32

	var wg sync.WaitGroup
	results := make([]*int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCreate("openai", func() (*int, error) {
				builds.Add(1)
				n := 42
				return &n, nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCreate_ErrorsAreNotCached(t *testing.T) {
	c := NewCache[string]()

	_, err := c.GetOrCreate("k", func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrCreate("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestPutDeleteRange(t *testing.T) {
	c := NewCache[int]()
	c.Put("a", 1)
	c.Put("b", 2)
	c.Delete("a")

	seen := map[string]int{}
	c.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"b": 2}, seen)
}
