package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memo is a simple typed TTL memo backed by go-cache. It has no size bound
// and no eviction policy beyond expiry, which suits small derived values
// such as query embeddings.
type Memo[T any] struct {
	cache *gocache.Cache
}

// NewMemo creates a memo with the given default TTL and cleanup interval.
func NewMemo[T any](defaultTTL, cleanupInterval time.Duration) *Memo[T] {
	return &Memo[T]{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the memo
func (m *Memo[T]) Get(key string) (T, bool) {
	if val, found := m.cache.Get(key); found {
		if v, ok := val.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Set stores a value with the default TTL
func (m *Memo[T]) Set(key string, value T) {
	m.cache.Set(key, value, gocache.DefaultExpiration)
}

// Delete removes a value
func (m *Memo[T]) Delete(key string) {
	m.cache.Delete(key)
}

// Clear removes all values
func (m *Memo[T]) Clear() {
	m.cache.Flush()
}

// Len returns the number of stored values, including expired ones not yet cleaned up.
func (m *Memo[T]) Len() int {
	return m.cache.ItemCount()
}
