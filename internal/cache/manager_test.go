package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/ragcore/internal/model"
)

func TestKeys(t *testing.T) {
	assert.Equal(t,
		RetrievalKey("t1", "What is  RAG?", 5),
		RetrievalKey("t1", "what is rag?", 5),
		"query normalization should collapse case and whitespace")
	assert.NotEqual(t, RetrievalKey("t1", "q", 5), RetrievalKey("t2", "q", 5))
	assert.NotEqual(t, RetrievalKey("t1", "q", 5), RetrievalKey("t1", "q", 10))

	chunkID := model.ChunkID("note1", 2)
	assert.Contains(t, ChunkKey("t1", chunkID), NoteChunkPrefix("t1", "note1"))
	assert.NotContains(t, ChunkKey("t1", model.ChunkID("note10", 2)), NoteChunkPrefix("t1", "note1"))
}

func TestManager_InvalidateNote(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.SweepInterval = 0
	m := NewManager(cfg, nil)
	defer m.Stop()

	m.StoreChunks([]model.Chunk{
		{ChunkID: model.ChunkID("n1", 0), NoteID: "n1", TenantID: "t1"},
		{ChunkID: model.ChunkID("n2", 0), NoteID: "n2", TenantID: "t1"},
	})
	m.StoreRetrieval("t1", "query", 5, []model.ScoredChunk{{ChunkID: "x"}})
	m.StoreRetrieval("t2", "query", 5, []model.ScoredChunk{{ChunkID: "y"}})

	m.InvalidateNote("t1", "n1")

	assert.False(t, m.Chunks.Has(ChunkKey("t1", model.ChunkID("n1", 0))))
	assert.True(t, m.Chunks.Has(ChunkKey("t1", model.ChunkID("n2", 0))))
	_, ok := m.LookupRetrieval("t1", "query", 5)
	assert.False(t, ok)
	_, ok = m.LookupRetrieval("t2", "query", 5)
	assert.True(t, ok)
}

func TestManager_InvalidateTenantIsExact(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.SweepInterval = 0
	m := NewManager(cfg, nil)
	defer m.Stop()

	m.StoreRetrieval("a", "query", 5, []model.ScoredChunk{{ChunkID: "x"}})
	m.StoreRetrieval("a:b", "query", 5, []model.ScoredChunk{{ChunkID: "y"}})

	assert.Equal(t, 1, m.InvalidateTenant("a"))
	_, ok := m.LookupRetrieval("a", "query", 5)
	assert.False(t, ok)
	_, ok = m.LookupRetrieval("a:b", "query", 5)
	assert.True(t, ok)

	assert.NotEqual(t, ChunkKey("a:b", "c"), ChunkKey("a", "b:c"))
}

func TestManager_Disabled(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.Enabled = false
	m := NewManager(cfg, nil)
	defer m.Stop()

	m.StoreRetrieval("t1", "q", 5, []model.ScoredChunk{{ChunkID: "x"}})
	_, ok := m.LookupRetrieval("t1", "q", 5)
	assert.False(t, ok)
	assert.Nil(t, m.Chunks.sweeper)
}

func TestMemo(t *testing.T) {
	m := NewMemo[[]float32](time.Minute, 0)
	m.Set("k", []float32{1, 2})

	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2}, v)
	assert.Equal(t, 1, m.Len())

	m.Delete("k")
	_, ok = m.Get("k")
	assert.False(t, ok)
}
