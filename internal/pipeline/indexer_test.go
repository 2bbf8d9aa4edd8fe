package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ragcore/internal/chunk"
	"github.com/ppiankov/ragcore/internal/store"
)

func newTestIndexer(t *testing.T, dir, pattern string) (*Indexer, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	processor := chunk.NewProcessor(chunk.NewSplitter(), st)
	ix, err := NewIndexer(processor, NewLoader("tenant-a", dir, 0), dir, pattern, 2, nil)
	require.NoError(t, err)
	return ix, st
}

func TestNewIndexer_InvalidPattern(t *testing.T) {
	_, err := NewIndexer(nil, NewLoader("t", ".", 0), ".", "[", 1, nil)
	assert.Error(t, err)
}

func TestIndexer_Matches(t *testing.T) {
	dir := t.TempDir()
	ix, _ := newTestIndexer(t, dir, "")

	assert.True(t, ix.Matches(dir+"/a.md"))
	assert.True(t, ix.Matches(dir+"/deep/nested/b.html"))
	assert.False(t, ix.Matches(dir+"/image.png"))
	assert.False(t, ix.Matches(dir+"/../outside.md"))
}

func TestIndexer_IndexDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "one.md", borrowNote)
	writeNote(t, dir, "sub/two.txt", borrowNote)
	writeNote(t, dir, "sub/tiny.txt", "too short")
	writeNote(t, dir, "skip.png", borrowNote)

	ix, st := newTestIndexer(t, dir, "")
	ctx := context.Background()

	first, err := ix.IndexDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Files)
	assert.Equal(t, 2, first.Regenerated)
	assert.Equal(t, 1, first.Removed)
	assert.Zero(t, first.Failed)

	second, err := ix.IndexDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Unchanged)
	assert.Equal(t, 1, second.Removed)
	assert.Zero(t, second.Regenerated)
	assert.Equal(t, first.Chunks, second.Chunks)

	all, err := st.AllChunks(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, all, first.Chunks)
}

func TestIndexer_SyncRemovesDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "one.md", borrowNote)
	ix, st := newTestIndexer(t, dir, "")
	ctx := context.Background()

	res, err := ix.Sync(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, chunk.ActionRegenerated, res.Action)

	require.NoError(t, os.Remove(path))
	res, err = ix.Sync(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, chunk.ActionRemoved, res.Action)
	assert.Greater(t, res.Deleted, 0)

	all, err := st.AllChunks(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Empty(t, all)
}
