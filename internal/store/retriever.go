package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ppiankov/ragcore/internal/embedding"
	"github.com/ppiankov/ragcore/internal/extract"
	"github.com/ppiankov/ragcore/internal/model"
)

// Weights of the brute-force ranking when both signals are present.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// Retriever ranks a tenant's chunks against a query by scanning all of them.
// It suits note collections that fit comfortably in memory.
type Retriever struct {
	store    ChunkStore
	embedder embedding.Embedder
	logger   *slog.Logger
}

// NewRetriever creates a retriever. A nil embedder ranks by keywords only.
func NewRetriever(store ChunkStore, embedder embedding.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: store, embedder: embedder, logger: logger}
}

// Retrieve returns up to topK chunks with a positive score, best first.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, topK int) ([]model.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	chunks, err := r.store.AllChunks(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	var queryVec []float32
	if r.embedder != nil {
		queryVec, err = r.embedder.Embed(ctx, query)
		if err != nil {
			r.logger.Warn("query embedding failed, ranking by keywords only", "error", err)
			queryVec = nil
		}
	}

	results := make([]model.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		kw := extract.LexicalOverlap(query, c.Text)
		sc := model.ScoredChunk{
			ChunkID:      c.ChunkID,
			NoteID:       c.NoteID,
			Text:         c.Text,
			Score:        kw,
			KeywordScore: &kw,
			Embedding:    c.Embedding,
			CreatedAt:    c.CreatedAt,
		}
		if queryVec != nil && c.HasEmbedding() {
			vs := embedding.Clamp01(embedding.Cosine(queryVec, c.Embedding))
			sc.VectorScore = &vs
			sc.Score = vectorWeight*vs + keywordWeight*kw
		}
		if sc.Score > 0 {
			results = append(results, sc)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
