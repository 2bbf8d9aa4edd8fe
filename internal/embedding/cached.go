package embedding

import (
	"context"
	"time"

	"github.com/ppiankov/ragcore/internal/cache"
)

// CachedEmbedder memoizes embeddings by model and text. Query and claim
// texts repeat across samples of one turn, so most lookups hit.
type CachedEmbedder struct {
	next Embedder
	memo *cache.Memo[[]float32]
}

// NewCached wraps next with a TTL memo.
func NewCached(next Embedder, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		next: next,
		memo: cache.NewMemo[[]float32](ttl, 2*ttl),
	}
}

// ModelName returns the wrapped model name.
func (c *CachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

// Embed returns a memoized vector or computes it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(c.next.ModelName(), text)
	if v, ok := c.memo.Get(key); ok {
		return v, nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.memo.Set(key, v)
	return v, nil
}

// EmbedBatch only sends the texts that are not memoized.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		if v, ok := c.memo.Get(cache.EmbeddingKey(c.next.ModelName(), text)); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[missingIdx[j]] = v
		c.memo.Set(cache.EmbeddingKey(c.next.ModelName(), missing[j]), v)
	}
	return out, nil
}
