package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// Limiter hands out one token bucket per key. Keys name an upstream API
// ("openai", "embedding:openai") so every caller of that API shares a budget.
type Limiter struct {
	every rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter returns a limiter allowing perSecond calls per key. A
// non-positive perSecond means unlimited; a non-positive burst means 5.
func NewLimiter(perSecond float64, burst int) *Limiter {
	every := rate.Inf
	if perSecond > 0 {
		every = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Limiter{every: every, burst: burst, buckets: map[string]*rate.Limiter{}}
}

// Wait blocks until key has a token or ctx is done. A nil Limiter never blocks.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.bucket(key).Wait(ctx)
}

// Allow takes a token for key if one is available right now.
func (l *Limiter) Allow(key string) bool {
	return l == nil || l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	return b
}
