package cache

import (
	"container/heap"
	"math"
	"time"
)

// evictBatch frees room when the cache is full. Expired entries go first;
// if that frees less than the batch target, the lowest-scoring live entries
// are evicted until the target is met. Caller holds c.mu.
func (c *TTLCache[T]) evictBatch(now time.Time) {
	target := int(math.Ceil(float64(c.opts.MaxSize) * c.opts.BatchEvictionPercent))
	if target < 1 {
		target = 1
	}

	removed := c.purgeExpiredLocked()
	c.expired += uint64(removed)
	if removed >= target {
		return
	}

	victims := c.lowestScoring(target-removed, now)
	for _, v := range victims {
		c.removeElement(c.items[v.key])
	}
	c.evictions += uint64(len(victims))

	if len(victims) > 0 {
		c.opts.Logger.Debug("cache eviction",
			"cache", c.opts.Name,
			"expired", removed,
			"evicted", len(victims),
			"size", len(c.items),
		)
	}
}

// score combines access frequency and recency. Lower scores are evicted first.
//
//	freq    = log2(accessCount + 1)
//	recency = 1 - age/ttl, clamped to 0 once age >= ttl
func (c *TTLCache[T]) score(e *entry[T], now time.Time) float64 {
	freq := math.Log2(float64(e.accessCount) + 1)

	recency := 0.0
	if age := now.Sub(e.lastAccess); age < e.ttl {
		recency = 1 - float64(age)/float64(e.ttl)
	}
	return c.opts.FrequencyWeight*freq + c.opts.RecencyWeight*recency
}

// lowestScoring returns the k lowest-scoring entries using a bounded
// max-heap, so the cost is O(n log k) rather than a full sort.
func (c *TTLCache[T]) lowestScoring(k int, now time.Time) []scored {
	if k <= 0 {
		return nil
	}
	h := make(scoreHeap, 0, k)
	// Walk from least to most recently used so ties keep the older entry.
	for el := c.order.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry[T])
		s := scored{key: e.key, score: c.score(e, now)}
		if h.Len() < k {
			heap.Push(&h, s)
			continue
		}
		if s.score < h[0].score {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}
	return h
}

type scored struct {
	key   string
	score float64
}

// scoreHeap is a max-heap on score.
type scoreHeap []scored

func (h scoreHeap) Len() int           { return len(h) }
func (h scoreHeap) Less(i, j int) bool { return h[i].score > h[j].score }
func (h scoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scoreHeap) Push(x any) { *h = append(*h, x.(scored)) }

func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
