// Package cache provides process-local caches for hot-path reads.
// Nothing here is a system of record: a miss always falls through to storage.
package cache

import (
	"container/list"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Defaults for a TTLCache.
const (
	DefaultTTL                  = 5 * time.Minute
	DefaultMaxSize              = 1000
	DefaultBatchEvictionPercent = 0.1
	DefaultFrequencyWeight      = 0.4
	DefaultRecencyWeight        = 0.6
)

// Options configures a TTLCache.
type Options struct {
	Name                 string        // Used in log records
	TTL                  time.Duration // Default entry lifetime
	MaxSize              int
	BatchEvictionPercent float64 // Share of MaxSize evicted when full
	FrequencyWeight      float64
	RecencyWeight        float64
	SweepInterval        time.Duration // 0 disables the background sweep
	Logger               *slog.Logger
	Now                  func() time.Time // Injectable clock
}

// Stats exposes cache counters for observability.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Evictions uint64  `json:"evictions"` // Removed by evictBatch to make room
	Expired   uint64  `json:"expired"`   // Removed because their TTL elapsed
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
}

// Item is a key/value pair for SetMany.
type Item[T any] struct {
	Key   string
	Value T
}

type entry[T any] struct {
	key         string
	value       T
	ttl         time.Duration
	expiresAt   time.Time
	accessCount int
	lastAccess  time.Time
}

// TTLCache is a keyed cache with lazy expiry on read, a periodic sweep, and
// batch eviction scored by access frequency and recency.
// Recency order is kept in an intrusive list; the front is most recently used.
type TTLCache[T any] struct {
	mu      sync.Mutex
	opts    Options
	items   map[string]*list.Element
	order   *list.List
	sweeper *Sweeper

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64
}

// New creates a TTLCache and starts its background sweep when configured.
func New[T any](opts Options) *TTLCache[T] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.BatchEvictionPercent <= 0 || opts.BatchEvictionPercent > 1 {
		opts.BatchEvictionPercent = DefaultBatchEvictionPercent
	}
	if opts.FrequencyWeight == 0 && opts.RecencyWeight == 0 {
		opts.FrequencyWeight = DefaultFrequencyWeight
		opts.RecencyWeight = DefaultRecencyWeight
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &TTLCache[T]{
		opts:  opts,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
	if opts.SweepInterval > 0 {
		c.sweeper = StartSweeper(opts.SweepInterval, func() {
			if n := c.PurgeExpired(); n > 0 {
				c.opts.Logger.Debug("cache sweep", "cache", c.opts.Name, "purged", n)
			}
		})
	}
	return c
}

// Get returns the value for key. Expired entries are deleted and count as a miss.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	e := el.Value.(*entry[T])
	now := c.opts.Now()
	if now.After(e.expiresAt) {
		c.removeElement(el)
		c.expired++
		c.misses++
		return zero, false
	}

	e.accessCount++
	e.lastAccess = now
	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Set stores value under key. A ttl of 0 uses the cache default.
// Existing keys are refreshed in place; a full cache evicts a batch first.
func (c *TTLCache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

// SetMany stores every item with the same ttl.
func (c *TTLCache[T]) SetMany(items []Item[T], ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.setLocked(it.Key, it.Value, ttl)
	}
}

// GetMany returns the live values for keys; misses are omitted.
func (c *TTLCache[T]) GetMany(keys []string) map[string]T {
	found := make(map[string]T, len(keys))
	for _, key := range keys {
		if v, ok := c.Get(key); ok {
			found[key] = v
		}
	}
	return found
}

// Has reports whether key holds a live entry. It does not touch access
// statistics or recency.
func (c *TTLCache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	if c.opts.Now().After(el.Value.(*entry[T]).expiresAt) {
		c.removeElement(el)
		c.expired++
		return false
	}
	return true
}

// Delete removes key and reports whether it was present.
func (c *TTLCache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// DeleteByPrefix removes every key starting with prefix and returns the count.
func (c *TTLCache[T]) DeleteByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// Clear removes all entries. Counters are kept.
func (c *TTLCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *TTLCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
		Size:      len(c.items),
		MaxSize:   c.opts.MaxSize,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *TTLCache[T]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.purgeExpiredLocked()
	c.expired += uint64(n)
	return n
}

// Stop cancels the background sweep and waits for it to exit. Safe to call
// more than once; the cache stays usable afterwards.
func (c *TTLCache[T]) Stop() {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
}

func (c *TTLCache[T]) setLocked(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.TTL
	}
	now := c.opts.Now()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[T])
		e.value = value
		e.ttl = ttl
		e.expiresAt = now.Add(ttl)
		e.lastAccess = now
		c.order.MoveToFront(el)
		return
	}

	if len(c.items) >= c.opts.MaxSize {
		c.evictBatch(now)
	}

	e := &entry[T]{
		key:        key,
		value:      value,
		ttl:        ttl,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
	c.items[key] = c.order.PushFront(e)
}

func (c *TTLCache[T]) purgeExpiredLocked() int {
	now := c.opts.Now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[T]).expiresAt) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *TTLCache[T]) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry[T])
	delete(c.items, e.key)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Load errors are returned and nothing is cached.
func GetOrLoad[T any](c *TTLCache[T], key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v, 0)
	return v, nil
}
