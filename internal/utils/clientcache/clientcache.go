package clientcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes expensive-to-build values by key. Concurrent misses on the
// same key share one factory call.
type Cache[T any] struct {
	values sync.Map
	group  singleflight.Group
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{}
}

// GetOrCreate returns the cached value for key, building it with factory on
// a miss. Factory errors are not cached.
func (c *Cache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	if v, ok := c.values.Load(key); ok {
		return v.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.values.Load(key); ok {
			return v, nil
		}
		built, err := factory()
		if err != nil {
			return nil, err
		}
		c.values.Store(key, built)
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Put stores a value directly, replacing any cached one.
func (c *Cache[T]) Put(key string, value T) {
	c.values.Store(key, value)
}

func (c *Cache[T]) Delete(key string) {
	c.values.Delete(key)
}

// Range calls fn for every cached value until fn returns false.
func (c *Cache[T]) Range(fn func(key string, value T) bool) {
	c.values.Range(func(k, v any) bool {
		return fn(k.(string), v.(T))
	})
}

func (c *Cache[T]) Len() int {
	n := 0
	c.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
