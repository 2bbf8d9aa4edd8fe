package cache

import (
	"log/slog"

	"github.com/ppiankov/ragcore/internal/model"
)

// Manager owns the chunk-document and retrieval-result caches and knows
// how to invalidate them when a note changes.
type Manager struct {
	Chunks    *TTLCache[model.Chunk]
	Retrieval *TTLCache[[]model.ScoredChunk]

	enabled bool
	logger  *slog.Logger
}

// NewManager builds both caches from config. A disabled manager still
// returns usable caches, but Lookup/Store calls become no-ops.
func NewManager(cfg model.CacheConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	base := Options{
		BatchEvictionPercent: cfg.BatchEvictionPercent,
		FrequencyWeight:      cfg.FrequencyWeight,
		RecencyWeight:        cfg.RecencyWeight,
		Logger:               logger,
	}
	if cfg.Enabled {
		base.SweepInterval = cfg.SweepInterval
	}

	chunkOpts := base
	chunkOpts.Name = "chunks"
	chunkOpts.TTL = cfg.ChunkTTL
	chunkOpts.MaxSize = cfg.ChunkMaxSize

	retrievalOpts := base
	retrievalOpts.Name = "retrieval"
	retrievalOpts.TTL = cfg.RetrievalTTL
	retrievalOpts.MaxSize = cfg.RetrievalMaxSize

	return &Manager{
		Chunks:    New[model.Chunk](chunkOpts),
		Retrieval: New[[]model.ScoredChunk](retrievalOpts),
		enabled:   cfg.Enabled,
		logger:    logger,
	}
}

// Enabled reports whether lookups go through the caches.
func (m *Manager) Enabled() bool {
	return m != nil && m.enabled
}

// LookupRetrieval returns a cached retrieval result.
func (m *Manager) LookupRetrieval(tenantID, query string, topK int) ([]model.ScoredChunk, bool) {
	if !m.Enabled() {
		return nil, false
	}
	return m.Retrieval.Get(RetrievalKey(tenantID, query, topK))
}

// StoreRetrieval caches a retrieval result.
func (m *Manager) StoreRetrieval(tenantID, query string, topK int, results []model.ScoredChunk) {
	if !m.Enabled() {
		return
	}
	m.Retrieval.Set(RetrievalKey(tenantID, query, topK), results, 0)
}

// StoreChunks hydrates the chunk cache, typically right after a write.
func (m *Manager) StoreChunks(chunks []model.Chunk) {
	if !m.Enabled() || len(chunks) == 0 {
		return
	}
	items := make([]Item[model.Chunk], len(chunks))
	for i, c := range chunks {
		items[i] = Item[model.Chunk]{Key: ChunkKey(c.TenantID, c.ChunkID), Value: c}
	}
	m.Chunks.SetMany(items, 0)
}

// Chunk returns a chunk document, loading and caching it on a miss.
func (m *Manager) Chunk(tenantID, chunkID string, load func() (model.Chunk, error)) (model.Chunk, error) {
	if !m.Enabled() {
		return load()
	}
	return GetOrLoad(m.Chunks, ChunkKey(tenantID, chunkID), load)
}

// InvalidateNote drops a note's chunk documents and every retrieval result
// of its tenant, since any of them may reference the old chunks.
func (m *Manager) InvalidateNote(tenantID, noteID string) {
	if m == nil {
		return
	}
	chunks := m.Chunks.DeleteByPrefix(NoteChunkPrefix(tenantID, noteID))
	results := m.InvalidateTenant(tenantID)
	if chunks > 0 || results > 0 {
		m.logger.Debug("cache invalidated",
			"tenant", tenantID, "note", noteID,
			"chunks", chunks, "retrieval_results", results)
	}
}

// InvalidateTenant drops every retrieval result of a tenant.
func (m *Manager) InvalidateTenant(tenantID string) int {
	if m == nil {
		return 0
	}
	return m.Retrieval.DeleteByPrefix(TenantRetrievalPrefix(tenantID))
}

// Stats returns counters for both caches keyed by cache name.
func (m *Manager) Stats() map[string]Stats {
	return map[string]Stats{
		"chunks":    m.Chunks.Stats(),
		"retrieval": m.Retrieval.Stats(),
	}
}

// Stop stops both background sweeps.
func (m *Manager) Stop() {
	if m == nil {
		return
	}
	m.Chunks.Stop()
	m.Retrieval.Stop()
}
