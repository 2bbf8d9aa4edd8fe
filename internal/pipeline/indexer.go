package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ppiankov/ragcore/internal/chunk"
	"github.com/ppiankov/ragcore/internal/worker"
)

// DefaultNotePattern selects the note files indexed from a directory.
const DefaultNotePattern = "**/*.{md,markdown,txt,html,htm}"

// Indexer indexes the note files of one directory for one tenant.
type Indexer struct {
	loader    *Loader
	processor *chunk.Processor
	root      string
	pattern   string
	workers   int
	logger    *slog.Logger
}

// IndexSummary counts what IndexDir did.
type IndexSummary struct {
	Files       int `json:"files"`
	Regenerated int `json:"regenerated"`
	Backfilled  int `json:"backfilled"`
	Unchanged   int `json:"unchanged"`
	Removed     int `json:"removed"`
	Failed      int `json:"failed"`
	Chunks      int `json:"chunks"`
}

// NewIndexer creates an indexer for files under root matching pattern
// (doublestar syntax, relative to root).
func NewIndexer(processor *chunk.Processor, loader *Loader, root, pattern string, workers int, logger *slog.Logger) (*Indexer, error) {
	if pattern == "" {
		pattern = DefaultNotePattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid note pattern %q", pattern)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		loader:    loader,
		processor: processor,
		root:      root,
		pattern:   pattern,
		workers:   workers,
		logger:    logger,
	}, nil
}

// Matches reports whether path is a note file this indexer handles.
func (ix *Indexer) Matches(path string) bool {
	rel, err := filepath.Rel(ix.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	ok, err := doublestar.Match(ix.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// IndexFile loads and processes one note file.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (chunk.Result, error) {
	note, err := ix.loader.Load(path)
	if err != nil {
		return chunk.Result{}, err
	}
	return ix.processor.ProcessNote(ctx, note)
}

// RemoveFile deletes the chunks of the note that was stored at path.
func (ix *Indexer) RemoveFile(ctx context.Context, path string) (chunk.Result, error) {
	return ix.processor.RemoveNote(ctx, ix.loader.tenantID, ix.loader.NoteID(path))
}

// Sync indexes path if it exists and removes its chunks otherwise.
func (ix *Indexer) Sync(ctx context.Context, path string) (chunk.Result, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ix.RemoveFile(ctx, path)
	}
	return ix.IndexFile(ctx, path)
}

// IndexDir indexes every matching file under root concurrently. A file that
// fails is logged and counted; only a bad root or pattern is an error.
func (ix *Indexer) IndexDir(ctx context.Context) (IndexSummary, error) {
	paths, err := doublestar.Glob(os.DirFS(ix.root), ix.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return IndexSummary{}, fmt.Errorf("listing notes in %s: %w", ix.root, err)
	}

	tasks := make([]worker.Task[chunk.Result], len(paths))
	for i, rel := range paths {
		path := filepath.Join(ix.root, filepath.FromSlash(rel))
		tasks[i] = func(ctx context.Context) (chunk.Result, error) {
			return ix.IndexFile(ctx, path)
		}
	}

	summary := IndexSummary{Files: len(paths)}
	for _, out := range worker.RunAll(ctx, ix.workers, nil, "index", tasks) {
		if out.Err != nil {
			summary.Failed++
			ix.logger.Warn("indexing note failed", "path", paths[out.Index], "error", out.Err)
			continue
		}
		summary.Chunks += out.Value.Chunks
		switch out.Value.Action {
		case chunk.ActionRegenerated:
			summary.Regenerated++
		case chunk.ActionBackfilled:
			summary.Backfilled++
		case chunk.ActionUnchanged:
			summary.Unchanged++
		case chunk.ActionRemoved:
			summary.Removed++
		}
	}
	return summary, nil
}
