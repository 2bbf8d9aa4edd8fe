package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/ragcore/internal/cache"
	"github.com/ppiankov/ragcore/internal/consistency"
	"github.com/ppiankov/ragcore/internal/extract"
	"github.com/ppiankov/ragcore/internal/llm"
	"github.com/ppiankov/ragcore/internal/model"
)

// Retriever ranks a tenant's chunks against a query.
type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, topK int) ([]model.ScoredChunk, error)
}

// ChunkLoader loads one stored chunk document.
type ChunkLoader func(ctx context.Context, tenantID, chunkID string) (model.Chunk, error)

// TurnResult is the outcome of one question.
type TurnResult struct {
	TurnID          string                    `json:"turn_id"`
	Question        string                    `json:"question"`
	Answer          string                    `json:"answer"`
	Sources         []model.Citation          `json:"sources"`
	Consistency     model.ConsistencyResult   `json:"consistency"`
	Candidates      []model.ResponseCandidate `json:"candidates,omitempty"`
	Support         model.SupportReport       `json:"support"`
	Weak            model.WeakCitationReport  `json:"weak"`
	RetrievalCached bool                      `json:"retrieval_cached"`
	Duration        time.Duration             `json:"duration"`
}

// Answerer runs one chat turn: retrieve, sample, select, verify.
type Answerer struct {
	retriever Retriever
	loadChunk ChunkLoader
	caches    *cache.Manager
	sampler   *consistency.Sampler
	selector  *consistency.Selector
	verifier  *extract.Verifier
	topK      int
	logger    *slog.Logger
	now       func() time.Time
}

// AnswererConfig holds the collaborators of an Answerer. Caches and
// LoadChunk are optional.
type AnswererConfig struct {
	Retriever Retriever
	LoadChunk ChunkLoader
	Caches    *cache.Manager
	Sampler   *consistency.Sampler
	Selector  *consistency.Selector
	Verifier  *extract.Verifier
	TopK      int
	Logger    *slog.Logger
}

// NewAnswerer creates an answerer.
func NewAnswerer(cfg AnswererConfig) *Answerer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Answerer{
		retriever: cfg.Retriever,
		loadChunk: cfg.LoadChunk,
		caches:    cfg.Caches,
		sampler:   cfg.Sampler,
		selector:  cfg.Selector,
		verifier:  cfg.Verifier,
		topK:      topK,
		logger:    logger,
		now:       time.Now,
	}
}

// Ask answers question from the tenant's notes. Sampling failures only fail
// the turn when every sample fails.
func (a *Answerer) Ask(ctx context.Context, tenantID, question string) (*TurnResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", model.ErrInvalidInput)
	}
	start := a.now()

	chunks, cached, err := a.retrieve(ctx, tenantID, question)
	if err != nil {
		return nil, err
	}
	chunks = a.hydrate(ctx, tenantID, chunks)
	sources := BuildCitations(chunks)

	req := llm.GenerateRequest{
		Prompt:           llm.BuildAnswerPrompt(question, sources),
		AllowedCitations: llm.AllowedCitations(sources),
	}
	candidates, err := a.sampler.Sample(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sampling answers: %w", err)
	}

	selected := a.selector.SelectBestResponse(candidates)
	support := a.verifier.Verify(ctx, selected.SelectedAnswer, chunks, sources)
	if sig := consistency.InconsistencySignal(selected); sig != nil {
		support.Signals = append(support.Signals, *sig)
	}

	result := &TurnResult{
		TurnID:          uuid.NewString(),
		Question:        question,
		Answer:          selected.SelectedAnswer,
		Sources:         sources,
		Consistency:     selected,
		Candidates:      candidates,
		Support:         support,
		Weak:            a.verifier.IdentifyWeaklyCited(support.Matches),
		RetrievalCached: cached,
		Duration:        a.now().Sub(start),
	}

	a.logger.Info("turn answered",
		"turn", result.TurnID,
		"tenant", tenantID,
		"sources", len(sources),
		"candidates", selected.CandidateCount,
		"consensus_score", selected.ConsensusScore,
		"support_rate", support.OverallSupportRate,
	)
	return result, nil
}

func (a *Answerer) retrieve(ctx context.Context, tenantID, question string) ([]model.ScoredChunk, bool, error) {
	if chunks, ok := a.caches.LookupRetrieval(tenantID, question, a.topK); ok {
		return chunks, true, nil
	}
	chunks, err := a.retriever.Retrieve(ctx, tenantID, question, a.topK)
	if err != nil {
		return nil, false, fmt.Errorf("retrieving sources: %w", err)
	}
	a.caches.StoreRetrieval(tenantID, question, a.topK, chunks)
	return chunks, false, nil
}

// hydrate fills in embeddings the retrieval result left out from the stored
// chunk documents. Load failures keep the retrieved chunk as is.
func (a *Answerer) hydrate(ctx context.Context, tenantID string, chunks []model.ScoredChunk) []model.ScoredChunk {
	if a.loadChunk == nil {
		return chunks
	}
	out := make([]model.ScoredChunk, len(chunks))
	copy(out, chunks)
	for i, sc := range out {
		if len(sc.Embedding) > 0 {
			continue
		}
		doc, err := a.loadChunk(ctx, tenantID, sc.ChunkID)
		if err != nil {
			a.logger.Debug("chunk hydration failed", "chunk", sc.ChunkID, "error", err)
			continue
		}
		out[i].Embedding = doc.Embedding
		if out[i].Text == "" {
			out[i].Text = doc.Text
		}
	}
	return out
}

// BuildCitations numbers retrieved chunks N1..Nk in rank order.
func BuildCitations(chunks []model.ScoredChunk) []model.Citation {
	citations := make([]model.Citation, len(chunks))
	for i, c := range chunks {
		citations[i] = model.Citation{
			CID:     model.CitationID(i + 1),
			NoteID:  c.NoteID,
			ChunkID: c.ChunkID,
			Snippet: c.Text,
			Score:   c.Score,
		}
	}
	return citations
}
