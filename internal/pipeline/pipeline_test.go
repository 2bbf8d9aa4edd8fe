package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ragcore/internal/cache"
	"github.com/ppiankov/ragcore/internal/llm"
	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/store"
)

const borrowNote = `The borrow checker enforces ownership rules at compile time. Every value has exactly one owner and is dropped when the owner goes out of scope.

References may be shared or mutable but never both at once. This rule prevents data races in safe code without any runtime cost.

Lifetimes describe how long a reference stays valid. The compiler infers most of them, so explicit annotations are only needed at function boundaries.`

type scriptedProvider struct {
	mu     sync.Mutex
	calls  int
	answer string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return &llm.GenerateResponse{Text: p.answer, Model: "scripted-1"}, nil
}

func newTestPipeline(t *testing.T, provider llm.Provider) *Pipeline {
	t.Helper()
	p, err := New(model.DefaultConfig(), nil,
		WithStore(store.NewMemoryStore()),
		WithProvider(provider),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func writeNote(t *testing.T, dir, rel, body string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Chunking.MinSize = 900

	_, err := New(cfg, nil, WithStore(store.NewMemoryStore()))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "mystery"

	_, err := New(cfg, nil, WithStore(store.NewMemoryStore()))
	assert.Error(t, err)
}

func TestPipeline_IndexAndAsk(t *testing.T) {
	provider := &scriptedProvider{answer: "The borrow checker enforces ownership rules at compile time [N1]."}
	p := newTestPipeline(t, provider)
	ctx := context.Background()

	res, err := p.IndexNote(ctx, model.Note{
		ID:       "note-1",
		TenantID: "tenant-a",
		Title:    "Ownership",
		Body:     borrowNote,
		Format:   model.NoteFormatText,
	})
	require.NoError(t, err)
	require.Greater(t, res.Chunks, 0)

	turn, err := p.Ask(ctx, "tenant-a", "How does the borrow checker enforce ownership?")
	require.NoError(t, err)

	assert.NotEmpty(t, turn.TurnID)
	assert.NotEmpty(t, turn.Sources)
	assert.Equal(t, "N1", turn.Sources[0].CID)
	assert.Equal(t, "note-1", turn.Sources[0].NoteID)
	assert.Len(t, turn.Candidates, 3)
	assert.Equal(t, 3, turn.Consistency.CandidateCount)
	assert.Equal(t, model.SelectionHighestScore, turn.Consistency.SelectionReason)
	assert.Equal(t, []string{"N1"}, turn.Consistency.ConsensusCitations)
	assert.Contains(t, turn.Answer, "[N1]")
	assert.False(t, turn.RetrievalCached)
	require.NotEmpty(t, turn.Support.Matches)
	assert.Equal(t, 1, turn.Support.SupportedCount)

	again, err := p.Ask(ctx, "tenant-a", "How does the borrow checker enforce ownership?")
	require.NoError(t, err)
	assert.True(t, again.RetrievalCached)
	assert.NotEqual(t, turn.TurnID, again.TurnID)
	assert.Equal(t, 6, provider.calls)
}

func TestPipeline_AskIsTenantScoped(t *testing.T) {
	provider := &scriptedProvider{answer: "I could not find that in your notes."}
	p := newTestPipeline(t, provider)
	ctx := context.Background()

	_, err := p.IndexNote(ctx, model.Note{ID: "note-1", TenantID: "tenant-a", Body: borrowNote})
	require.NoError(t, err)

	turn, err := p.Ask(ctx, "tenant-b", "How does the borrow checker enforce ownership?")
	require.NoError(t, err)
	assert.Empty(t, turn.Sources)
	assert.Empty(t, turn.Consistency.ConsensusCitations)
}

func TestPipeline_AskWithoutProvider(t *testing.T) {
	p, err := New(model.DefaultConfig(), nil, WithStore(store.NewMemoryStore()))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	_, err = p.Ask(context.Background(), "tenant-a", "anything?")
	assert.ErrorIs(t, err, model.ErrLLMUnavailable)
}

func TestPipeline_AskEmptyQuestion(t *testing.T) {
	p := newTestPipeline(t, &scriptedProvider{answer: "x"})

	_, err := p.Ask(context.Background(), "tenant-a", "   ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPipeline_ChunkGoesThroughCache(t *testing.T) {
	p := newTestPipeline(t, &scriptedProvider{answer: "x"})
	ctx := context.Background()

	_, err := p.IndexNote(ctx, model.Note{ID: "note-1", TenantID: "tenant-a", Body: borrowNote})
	require.NoError(t, err)

	id := model.ChunkID("note-1", 0)
	c, err := p.Chunk(ctx, "tenant-a", id)
	require.NoError(t, err)
	assert.Equal(t, id, c.ChunkID)

	_, ok := p.Caches.Chunks.Get(cache.ChunkKey("tenant-a", id))
	assert.True(t, ok)

	_, err = p.Chunk(ctx, "tenant-a", model.ChunkID("missing", 0))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBuildCitations(t *testing.T) {
	cits := BuildCitations([]model.ScoredChunk{
		{ChunkID: "a_chunk_0000", NoteID: "a", Text: "alpha", Score: 0.9},
		{ChunkID: "b_chunk_0001", NoteID: "b", Text: "beta", Score: 0.4},
	})
	require.Len(t, cits, 2)
	assert.Equal(t, "N1", cits[0].CID)
	assert.Equal(t, "N2", cits[1].CID)
	assert.Equal(t, "beta", cits[1].Snippet)
	assert.Equal(t, 0.4, cits[1].Score)
}

func TestPipeline_NewIndexerIndexesDirectory(t *testing.T) {
	p := newTestPipeline(t, &scriptedProvider{answer: "x"})
	dir := t.TempDir()
	writeNote(t, dir, "rust/ownership.md", "# Ownership\n\n"+borrowNote)
	writeNote(t, dir, "notes.txt", strings.ReplaceAll(borrowNote, "borrow", "loan"))

	ix, err := p.NewIndexer("tenant-a", dir, "")
	require.NoError(t, err)

	summary, err := ix.IndexDir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 2, summary.Regenerated)

	all, err := p.Store.AllChunks(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, summary.Chunks, len(all))
}
