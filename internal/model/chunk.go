package model

import (
	"fmt"
	"time"
)

// ChunkDocVersion tags the persisted chunk document shape.
// Version 1 documents carried no text hash; they always compare unequal and are regenerated.
const (
	ChunkDocVersionLegacy  = 1
	ChunkDocVersionCurrent = 2
)

// chunkPositionWidth is the zero-padding width of the position in a chunk id.
const chunkPositionWidth = 4

// Chunk is a bounded-size slice of a note's text prepared for embedding and retrieval.
type Chunk struct {
	ChunkID        string    `json:"chunk_id" yaml:"chunk_id"`
	NoteID         string    `json:"note_id" yaml:"note_id"`
	TenantID       string    `json:"tenant_id" yaml:"tenant_id"`
	Text           string    `json:"text" yaml:"text"`
	TextHash       string    `json:"text_hash" yaml:"text_hash"`
	Position       int       `json:"position" yaml:"position"`
	TokenEstimate  int       `json:"token_estimate" yaml:"token_estimate"`
	Embedding      []float32 `json:"embedding,omitempty" yaml:"-"`
	EmbeddingModel string    `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	Version        int       `json:"version" yaml:"version"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// HasEmbedding reports whether the chunk already carries a vector.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ChunkID builds the deterministic id of the chunk at position within a note.
func ChunkID(noteID string, position int) string {
	return fmt.Sprintf("%s_chunk_%0*d", noteID, chunkPositionWidth, position)
}

// EstimateTokens approximates a token count (1 token ~ 4 characters).
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
