package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reindexes note files as they change on disk.
type Watcher struct {
	indexer *Indexer
	delay   time.Duration
	logger  *slog.Logger

	// onSync is called after every debounced sync; used by tests.
	onSync func(path string, err error)
}

// NewWatcher creates a watcher over the indexer's root. Events for one file
// are coalesced until it has been quiet for delay.
func NewWatcher(indexer *Indexer, delay time.Duration, logger *slog.Logger) *Watcher {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{indexer: indexer, delay: delay, logger: logger}
}

// Run watches until ctx is cancelled. Pending syncs are dropped on shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.addTree(watcher, w.indexer.root); err != nil {
		return err
	}

	deb := newDebouncer(w.delay)
	defer deb.stopAndWait(5 * time.Second)

	w.logger.Info("watching notes", "root", w.indexer.root, "pattern", w.indexer.pattern)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handle(ctx, watcher, deb, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, watcher *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(watcher, event.Name); err != nil {
			w.logger.Warn("watching new directory failed", "path", event.Name, "error", err)
		}
		return
	}
	if event.Op == fsnotify.Chmod || !w.indexer.Matches(event.Name) {
		return
	}

	path := event.Name
	deb.add(path, func() {
		if ctx.Err() != nil {
			return
		}
		res, err := w.indexer.Sync(ctx, path)
		if err != nil {
			w.logger.Warn("reindex failed", "path", path, "error", err)
		} else {
			w.logger.Debug("reindexed", "path", path, "action", res.Action, "chunks", res.Chunks)
		}
		if w.onSync != nil {
			w.onSync(path, err)
		}
	})
}

// addTree watches root and every directory below it, skipping hidden ones.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
