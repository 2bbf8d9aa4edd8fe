// Package store persists chunk documents and serves brute-force retrieval
// over them.
package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/ragcore/internal/model"
)

// ChunkStore persists the chunks of every note. Implementations are safe
// for concurrent use.
type ChunkStore interface {
	// ListChunks returns the chunks of a note ordered by position.
	ListChunks(ctx context.Context, tenantID, noteID string) ([]model.Chunk, error)

	// SaveChunks upserts chunks. One call is one atomic write; callers
	// bound the batch size.
	SaveChunks(ctx context.Context, chunks []model.Chunk) error

	// DeleteChunks removes every chunk of a note and returns how many were removed.
	DeleteChunks(ctx context.Context, tenantID, noteID string) (int, error)

	// UpdateEmbeddings sets the embedding of existing chunks.
	UpdateEmbeddings(ctx context.Context, updates []EmbeddingUpdate) error

	// GetChunk returns one chunk or model.ErrNotFound.
	GetChunk(ctx context.Context, tenantID, chunkID string) (model.Chunk, error)

	// AllChunks returns every chunk of a tenant.
	AllChunks(ctx context.Context, tenantID string) ([]model.Chunk, error)

	// Close releases resources.
	Close() error
}

// EmbeddingUpdate backfills the embedding of one stored chunk.
type EmbeddingUpdate struct {
	TenantID  string
	ChunkID   string
	Embedding []float32
	Model     string
}

// Open creates the store selected by cfg.
func Open(cfg model.StoreConfig) (ChunkStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", model.ErrInvalidInput, cfg.Driver)
	}
}
