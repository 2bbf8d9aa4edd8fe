package model

import "time"

// NoteFormat describes how a note body is encoded.
type NoteFormat string

const (
	NoteFormatText     NoteFormat = "text"
	NoteFormatMarkdown NoteFormat = "markdown"
	NoteFormatHTML     NoteFormat = "html"
)

// Note is a user-authored document owned by a tenant. It is the unit of indexing.
type Note struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Title     string     `json:"title,omitempty"`
	Body      string     `json:"body"`
	Format    NoteFormat `json:"format"`
	Path      string     `json:"path,omitempty"` // Source file, when ingested from disk
	UpdatedAt time.Time  `json:"updated_at"`
}
