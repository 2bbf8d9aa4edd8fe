// Package embedding turns text into vectors and compares them.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/ragcore/internal/model"
)

// Embedder generates vector embeddings from text.
// A nil Embedder means semantic scoring is disabled.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// New creates an Embedder from config. It returns nil, nil when no provider
// is configured.
func New(cfg model.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		e, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai)", cfg.Provider)
	}
}
