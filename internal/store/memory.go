package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/ragcore/internal/model"
)

// MemoryStore keeps chunks in maps. Data is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]model.Chunk // tenant + "/" + chunkID
	closed bool
}

var _ ChunkStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]model.Chunk)}
}

func memKey(tenantID, chunkID string) string {
	return tenantID + "/" + chunkID
}

// ListChunks returns the chunks of a note ordered by position.
func (s *MemoryStore) ListChunks(_ context.Context, tenantID, noteID string) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, model.ErrStoreClosed
	}

	var out []model.Chunk
	for _, c := range s.chunks {
		if c.TenantID == tenantID && c.NoteID == noteID {
			out = append(out, copyChunk(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// SaveChunks upserts chunks.
func (s *MemoryStore) SaveChunks(_ context.Context, chunks []model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrStoreClosed
	}

	for _, c := range chunks {
		s.chunks[memKey(c.TenantID, c.ChunkID)] = copyChunk(c)
	}
	return nil
}

// DeleteChunks removes every chunk of a note.
func (s *MemoryStore) DeleteChunks(_ context.Context, tenantID, noteID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, model.ErrStoreClosed
	}

	removed := 0
	for key, c := range s.chunks {
		if c.TenantID == tenantID && c.NoteID == noteID {
			delete(s.chunks, key)
			removed++
		}
	}
	return removed, nil
}

// UpdateEmbeddings sets embeddings of existing chunks; unknown chunks are skipped.
func (s *MemoryStore) UpdateEmbeddings(_ context.Context, updates []EmbeddingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrStoreClosed
	}

	for _, u := range updates {
		key := memKey(u.TenantID, u.ChunkID)
		c, ok := s.chunks[key]
		if !ok {
			continue
		}
		c.Embedding = append([]float32(nil), u.Embedding...)
		c.EmbeddingModel = u.Model
		s.chunks[key] = c
	}
	return nil
}

// GetChunk returns one chunk.
func (s *MemoryStore) GetChunk(_ context.Context, tenantID, chunkID string) (model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Chunk{}, model.ErrStoreClosed
	}

	c, ok := s.chunks[memKey(tenantID, chunkID)]
	if !ok {
		return model.Chunk{}, model.ErrNotFound
	}
	return copyChunk(c), nil
}

// AllChunks returns every chunk of a tenant ordered by chunk ID.
func (s *MemoryStore) AllChunks(_ context.Context, tenantID string) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, model.ErrStoreClosed
	}

	prefix := tenantID + "/"
	var out []model.Chunk
	for key, c := range s.chunks {
		if strings.HasPrefix(key, prefix) {
			out = append(out, copyChunk(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkID < out[j].ChunkID })
	return out, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyChunk(c model.Chunk) model.Chunk {
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	return c
}
