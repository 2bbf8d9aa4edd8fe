package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ragcore/internal/model"
)

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "rust/borrow-checker_notes.md", "# Borrowing\n\nShared or mutable, never both.")

	l := NewLoader("tenant-a", dir, 0)
	note, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", note.TenantID)
	assert.Equal(t, "borrow checker notes", note.Title)
	assert.Equal(t, model.NoteFormatMarkdown, note.Format)
	assert.Equal(t, "rust/borrow-checker_notes.md", note.Path)
	assert.Equal(t, l.NoteID(path), note.ID)
	assert.Contains(t, note.Body, "never both")
	assert.False(t, note.UpdatedAt.IsZero())
}

func TestLoader_NoteIDIsStableAndTenantScoped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	a := NewLoader("tenant-a", dir, 0)
	b := NewLoader("tenant-b", dir, 0)

	assert.Equal(t, a.NoteID(path), NewLoader("tenant-a", dir, 0).NoteID(path))
	assert.NotEqual(t, a.NoteID(path), b.NoteID(path))
	assert.NotEqual(t, a.NoteID(path), a.NoteID(filepath.Join(dir, "b.txt")))
}

func TestLoader_Truncates(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "big.txt", "0123456789abcdef")

	note, err := NewLoader("t", dir, 10).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", note.Body)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader("t", dir, 0)

	_, err := l.Load(filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = l.Load(dir)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want model.NoteFormat
	}{
		{"a.md", model.NoteFormatMarkdown},
		{"a.MARKDOWN", model.NoteFormatMarkdown},
		{"a.html", model.NoteFormatHTML},
		{"a.htm", model.NoteFormatHTML},
		{"a.txt", model.NoteFormatText},
		{"README", model.NoteFormatText},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFromPath(tt.path))
		})
	}
}
