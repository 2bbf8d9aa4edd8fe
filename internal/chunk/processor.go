package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/ragcore/internal/cache"
	"github.com/ppiankov/ragcore/internal/embedding"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/store"
	"github.com/ppiankov/ragcore/internal/worker"
)

// Action describes what ProcessNote did to a note's stored chunks.
type Action string

const (
	ActionUnchanged   Action = "unchanged"   // hashes equal, nothing missing
	ActionBackfilled  Action = "backfilled"  // hashes equal, missing embeddings added
	ActionRegenerated Action = "regenerated" // old chunks deleted, new set written
	ActionRemoved     Action = "removed"     // note removed or now too short to index
)

// Result summarizes one ProcessNote call.
type Result struct {
	NoteID   string
	Action   Action
	Chunks   int // chunks stored for the note afterwards
	Embedded int // embeddings computed by this call
	Deleted  int // previously stored chunks removed
}

// Processor keeps the stored chunks of a note in sync with its content.
// Work is skipped when the chunk hashes are unchanged, which bounds
// embedding cost to notes that actually changed.
type Processor struct {
	splitter   *Splitter
	store      store.ChunkStore
	embedder   embedding.Embedder
	caches     *cache.Manager
	limiter    *worker.Limiter
	embedBatch int
	writeBatch int
	logger     *slog.Logger
	now        func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithEmbedder enables embedding of new chunks. Without one, chunks are
// stored without vectors.
func WithEmbedder(e embedding.Embedder) ProcessorOption {
	return func(p *Processor) { p.embedder = e }
}

// WithCacheManager invalidates cached chunk documents and retrieval results
// when a note's chunks change.
func WithCacheManager(m *cache.Manager) ProcessorOption {
	return func(p *Processor) { p.caches = m }
}

// WithRateLimiter rate-limits embedding calls.
func WithRateLimiter(l *worker.Limiter) ProcessorOption {
	return func(p *Processor) { p.limiter = l }
}

// WithBatchSizes bounds texts per EmbedBatch call and chunks per SaveChunks call.
func WithBatchSizes(embed, write int) ProcessorOption {
	return func(p *Processor) {
		if embed > 0 {
			p.embedBatch = embed
		}
		if write > 0 {
			p.writeBatch = write
		}
	}
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a processor writing to st.
func NewProcessor(splitter *Splitter, st store.ChunkStore, opts ...ProcessorOption) *Processor {
	if splitter == nil {
		splitter = NewSplitter()
	}
	p := &Processor{
		splitter:   splitter,
		store:      st,
		embedBatch: 16,
		writeBatch: 100,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewProcessorFromConfig wires a processor from the chunking config.
func NewProcessorFromConfig(cfg model.ChunkingConfig, st store.ChunkStore, opts ...ProcessorOption) *Processor {
	opts = append([]ProcessorOption{WithBatchSizes(cfg.EmbedBatchSize, cfg.WriteBatchSize)}, opts...)
	return NewProcessor(NewSplitterFromConfig(cfg), st, opts...)
}

// NoteText returns the text of a note as it is chunked: the title, when
// present, followed by the normalized body.
func NoteText(note model.Note) string {
	body := NormalizeNoteBody(note.Body, note.Format)
	title := strings.TrimSpace(note.Title)
	if title == "" {
		return body
	}
	return title + "\n\n" + body
}

// ProcessNote splits the note and reconciles the result with the stored
// chunks. Equal hash sequences only backfill missing embeddings; anything
// else deletes the stored chunks and writes a fresh set. Embedding failures
// are logged and leave chunks stored without vectors.
func (p *Processor) ProcessNote(ctx context.Context, note model.Note) (Result, error) {
	if note.ID == "" || note.TenantID == "" {
		return Result{}, fmt.Errorf("%w: note id and tenant id are required", model.ErrInvalidInput)
	}

	texts := p.splitter.Split(NoteText(note))
	hashes := HashTexts(texts)

	existing, err := p.store.ListChunks(ctx, note.TenantID, note.ID)
	if err != nil {
		return Result{}, fmt.Errorf("listing chunks of note %s: %w", note.ID, err)
	}

	// A note with nothing to index always reports removed, whether or not
	// chunks were stored for it.
	if len(texts) == 0 {
		return p.regenerate(ctx, note, nil, nil, len(existing))
	}
	if seq, ok := storedSequence(existing); ok && seq == HashSequence(hashes) {
		return p.backfill(ctx, note, existing)
	}

	return p.regenerate(ctx, note, texts, hashes, len(existing))
}

// RemoveNote deletes every stored chunk of a note.
func (p *Processor) RemoveNote(ctx context.Context, tenantID, noteID string) (Result, error) {
	deleted, err := p.store.DeleteChunks(ctx, tenantID, noteID)
	if err != nil {
		return Result{}, fmt.Errorf("deleting chunks of note %s: %w", noteID, err)
	}
	p.caches.InvalidateNote(tenantID, noteID)
	p.logger.Info("note chunks removed", "tenant", tenantID, "note", noteID, "deleted", deleted)
	return Result{NoteID: noteID, Action: ActionRemoved, Deleted: deleted}, nil
}

func (p *Processor) backfill(ctx context.Context, note model.Note, existing []model.Chunk) (Result, error) {
	res := Result{NoteID: note.ID, Action: ActionUnchanged, Chunks: len(existing)}

	var missing []int
	for i, c := range existing {
		if !c.HasEmbedding() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 || p.embedder == nil {
		p.logger.Debug("note unchanged, skipping", "tenant", note.TenantID, "note", note.ID, "chunks", len(existing))
		return res, nil
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = existing[idx].Text
	}
	vecs, err := p.embed(ctx, texts)
	if err != nil {
		return res, err
	}

	var updates []store.EmbeddingUpdate
	for i, idx := range missing {
		if vecs[i] == nil {
			continue
		}
		updates = append(updates, store.EmbeddingUpdate{
			TenantID:  note.TenantID,
			ChunkID:   existing[idx].ChunkID,
			Embedding: vecs[i],
			Model:     p.embedder.ModelName(),
		})
	}
	for _, batch := range worker.Batches(updates, p.writeBatch) {
		if err := p.store.UpdateEmbeddings(ctx, batch); err != nil {
			return res, fmt.Errorf("updating embeddings of note %s: %w", note.ID, err)
		}
	}

	res.Embedded = len(updates)
	if res.Embedded > 0 {
		res.Action = ActionBackfilled
		p.caches.InvalidateNote(note.TenantID, note.ID)
	}
	p.logger.Debug("note unchanged, embeddings backfilled",
		"tenant", note.TenantID, "note", note.ID,
		"missing", len(missing), "embedded", res.Embedded)
	return res, nil
}

func (p *Processor) regenerate(ctx context.Context, note model.Note, texts, hashes []string, stored int) (Result, error) {
	res := Result{NoteID: note.ID, Action: ActionRegenerated}

	if stored > 0 {
		deleted, err := p.store.DeleteChunks(ctx, note.TenantID, note.ID)
		if err != nil {
			return res, fmt.Errorf("deleting chunks of note %s: %w", note.ID, err)
		}
		res.Deleted = deleted
	}

	if len(texts) == 0 {
		res.Action = ActionRemoved
		p.caches.InvalidateNote(note.TenantID, note.ID)
		p.logger.Info("note too short to index", "tenant", note.TenantID, "note", note.ID, "deleted", res.Deleted)
		return res, nil
	}

	created := p.now().UTC()
	chunks := make([]model.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = model.Chunk{
			ChunkID:       model.ChunkID(note.ID, i),
			NoteID:        note.ID,
			TenantID:      note.TenantID,
			Text:          text,
			TextHash:      hashes[i],
			Position:      i,
			TokenEstimate: model.EstimateTokens(text),
			Version:       model.ChunkDocVersionCurrent,
			CreatedAt:     created,
		}
	}

	if p.embedder != nil {
		vecs, err := p.embed(ctx, texts)
		if err != nil {
			return res, err
		}
		for i, v := range vecs {
			if v != nil {
				chunks[i].Embedding = v
				chunks[i].EmbeddingModel = p.embedder.ModelName()
				res.Embedded++
			}
		}
	}

	for _, batch := range worker.Batches(chunks, p.writeBatch) {
		if err := p.store.SaveChunks(ctx, batch); err != nil {
			return res, fmt.Errorf("saving chunks of note %s: %w", note.ID, err)
		}
	}
	res.Chunks = len(chunks)

	p.caches.InvalidateNote(note.TenantID, note.ID)
	p.caches.StoreChunks(chunks)

	p.logger.Info("note chunks regenerated",
		"tenant", note.TenantID, "note", note.ID,
		"chunks", res.Chunks, "embedded", res.Embedded, "deleted", res.Deleted)
	return res, nil
}

// embed returns one vector per text, nil where embedding failed. Only a
// cancelled context is an error.
func (p *Processor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	key := "embedding:" + p.embedder.ModelName()

	offset := 0
	for _, batch := range worker.Batches(texts, p.embedBatch) {
		start := offset
		offset += len(batch)

		if err := p.limiter.Wait(ctx, key); err != nil {
			return nil, fmt.Errorf("waiting for embedding rate limit: %w", err)
		}

		out, err := p.embedder.EmbedBatch(ctx, batch)
		if err == nil && len(out) != len(batch) {
			err = fmt.Errorf("got %d embeddings for %d texts", len(out), len(batch))
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("embedding failed, storing chunks without vectors",
				"model", p.embedder.ModelName(), "batch_start", start, "batch_size", len(batch), "error", err)
			continue
		}
		copy(vecs[start:], out)
	}
	return vecs, nil
}
