package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/ragcore/internal/model"
)

// noteNamespace scopes note IDs derived from file paths.
var noteNamespace = uuid.MustParse("6f1c9a52-3c4e-4f0b-9d6a-2a7e5b8c1d40")

// Loader reads note files from disk.
type Loader struct {
	tenantID string
	root     string
	maxBytes int64
}

// NewLoader creates a loader for notes under root owned by tenantID.
// Files larger than maxBytes are truncated.
func NewLoader(tenantID, root string, maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Loader{tenantID: tenantID, root: root, maxBytes: maxBytes}
}

// NoteID returns the stable ID of the note stored at path. Moving a file
// gives it a new ID.
func (l *Loader) NoteID(path string) string {
	return uuid.NewSHA1(noteNamespace, []byte(l.tenantID+"\x00"+l.relPath(path))).String()
}

// Load reads the note stored at path.
func (l *Loader) Load(path string) (model.Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Note{}, fmt.Errorf("open note: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return model.Note{}, fmt.Errorf("stat note: %w", err)
	}
	if info.IsDir() {
		return model.Note{}, fmt.Errorf("%w: %s is a directory", model.ErrInvalidInput, path)
	}

	body, err := io.ReadAll(io.LimitReader(f, l.maxBytes))
	if err != nil {
		return model.Note{}, fmt.Errorf("read note: %w", err)
	}

	return model.Note{
		ID:        l.NoteID(path),
		TenantID:  l.tenantID,
		Title:     titleFromPath(path),
		Body:      string(body),
		Format:    formatFromPath(path),
		Path:      l.relPath(path),
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

func (l *Loader) relPath(path string) string {
	if l.root != "" {
		if rel, err := filepath.Rel(l.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// formatFromPath picks the note format from the file extension.
func formatFromPath(path string) model.NoteFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return model.NoteFormatMarkdown
	case ".html", ".htm":
		return model.NoteFormatHTML
	default:
		return model.NoteFormatText
	}
}

// titleFromPath extracts a human-readable title from the file name
func titleFromPath(path string) string {
	name := filepath.Base(path)

	// Remove file extensions
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	// De-slugify: replace underscores and hyphens with spaces
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	return strings.TrimSpace(name)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
