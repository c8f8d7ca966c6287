package apicache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultCapacity = 1000

type MemoryStore struct {
	lru *expirable.LRU[string, string]
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{lru: expirable.NewLRU[string, string](capacity, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
