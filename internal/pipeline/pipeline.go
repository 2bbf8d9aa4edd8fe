// Package pipeline wires the ragcore components into note indexing and
// question answering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/ragcore/internal/cache"
	"github.com/ppiankov/ragcore/internal/chunk"
	"github.com/ppiankov/ragcore/internal/consistency"
	"github.com/ppiankov/ragcore/internal/embedding"
	"github.com/ppiankov/ragcore/internal/extract"
	"github.com/ppiankov/ragcore/internal/llm"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/store"
	"github.com/ppiankov/ragcore/internal/worker"
)

// Pipeline owns every long-lived component built from one configuration.
type Pipeline struct {
	Store     store.ChunkStore
	Caches    *cache.Manager
	Embedder  embedding.Embedder // nil when embeddings are disabled
	Provider  llm.Provider       // nil when the LLM is disabled
	Limiter   *worker.Limiter
	Processor *chunk.Processor
	Retriever *store.Retriever
	Verifier  *extract.Verifier
	Selector  *consistency.Selector
	Sampler   *consistency.Sampler
	Answerer  *Answerer

	config *model.Config
	logger *slog.Logger
}

// Option overrides a collaborator built by New.
type Option func(*options)

type options struct {
	store    store.ChunkStore
	embedder embedding.Embedder
	provider llm.Provider
}

// WithStore uses st instead of opening the configured store.
func WithStore(st store.ChunkStore) Option {
	return func(o *options) { o.store = st }
}

// WithEmbedder uses e instead of the configured embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithProvider uses p instead of the configured LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// New validates cfg and builds the pipeline.
func New(cfg *model.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		var err error
		if st, err = store.Open(cfg.Store); err != nil {
			return nil, fmt.Errorf("opening chunk store: %w", err)
		}
	}

	emb := o.embedder
	if emb == nil {
		base, err := embedding.New(cfg.Embedding)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		if base != nil {
			emb = embedding.NewCached(base, cfg.Cache.EmbeddingMemoTTL)
		}
	}

	provider := o.provider
	if provider == nil {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		provider = p
	}

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	caches := cache.NewManager(cfg.Cache, logger)

	processor := chunk.NewProcessorFromConfig(cfg.Chunking, st,
		chunk.WithEmbedder(emb),
		chunk.WithCacheManager(caches),
		chunk.WithRateLimiter(limiter),
		chunk.WithProcessorLogger(logger),
	)

	verifier := extract.NewVerifier(cfg.Matching, extract.NewSourceMatcher(cfg.Matching, emb, logger), logger)
	retriever := store.NewRetriever(st, emb, logger)
	selector := consistency.NewSelector(cfg.Consistency)
	sampler := consistency.NewSampler(provider, cfg.Consistency,
		consistency.WithLimiter(limiter),
		consistency.WithWorkers(cfg.Concurrency.Workers),
		consistency.WithLogger(logger),
	)

	p := &Pipeline{
		Store:     st,
		Caches:    caches,
		Embedder:  emb,
		Provider:  provider,
		Limiter:   limiter,
		Processor: processor,
		Retriever: retriever,
		Verifier:  verifier,
		Selector:  selector,
		Sampler:   sampler,
		config:    cfg,
		logger:    logger,
	}
	p.Answerer = NewAnswerer(AnswererConfig{
		Retriever: retriever,
		LoadChunk: p.Chunk,
		Caches:    caches,
		Sampler:   sampler,
		Selector:  selector,
		Verifier:  verifier,
		Logger:    logger,
	})
	return p, nil
}

// Chunk loads one chunk document through the chunk cache.
func (p *Pipeline) Chunk(ctx context.Context, tenantID, chunkID string) (model.Chunk, error) {
	return p.Caches.Chunk(tenantID, chunkID, func() (model.Chunk, error) {
		return p.Store.GetChunk(ctx, tenantID, chunkID)
	})
}

// IndexNote processes one note.
func (p *Pipeline) IndexNote(ctx context.Context, note model.Note) (chunk.Result, error) {
	return p.Processor.ProcessNote(ctx, note)
}

// NewIndexer creates a directory indexer for tenantID.
func (p *Pipeline) NewIndexer(tenantID, root, pattern string) (*Indexer, error) {
	loader := NewLoader(tenantID, root, int64(p.config.Chunking.MaxNoteChars)*4)
	return NewIndexer(p.Processor, loader, root, pattern, p.config.Concurrency.Workers, p.logger)
}

// Ask answers a question from the tenant's notes.
func (p *Pipeline) Ask(ctx context.Context, tenantID, question string) (*TurnResult, error) {
	return p.Answerer.Ask(ctx, tenantID, question)
}

// Close stops the cache sweeps and closes the store.
func (p *Pipeline) Close() error {
	p.Caches.Stop()
	if err := p.Store.Close(); err != nil && !errors.Is(err, model.ErrStoreClosed) {
		return err
	}
	return nil
}
