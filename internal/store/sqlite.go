package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ppiankov/ragcore/internal/model"
	"github.com/ppiankov/ragcore/internal/store/migrations"
)

// SQLiteStore persists chunks in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

var _ ChunkStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the store under dataDir.
// If dataDir is empty, defaults to ~/.ragcore/data.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragcore", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "chunks.db")

	// WAL lets readers proceed while a batch is being written
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// migrate runs all pending migrations.
func (s *SQLiteStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

const chunkColumns = `tenant_id, chunk_id, note_id, text, text_hash, position, token_estimate,
	embedding, embedding_model, version, created_at`

// ListChunks returns the chunks of a note ordered by position.
func (s *SQLiteStore) ListChunks(ctx context.Context, tenantID, noteID string) ([]model.Chunk, error) {
	if s.closed.Load() {
		return nil, model.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE tenant_id = ? AND note_id = ?
		ORDER BY position
	`, tenantID, noteID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return scanChunks(rows)
}

// SaveChunks upserts chunks in one transaction.
func (s *SQLiteStore) SaveChunks(ctx context.Context, chunks []model.Chunk) error {
	if s.closed.Load() {
		return model.ErrStoreClosed
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, chunk_id) DO UPDATE SET
			note_id = excluded.note_id,
			text = excluded.text,
			text_hash = excluded.text_hash,
			position = excluded.position,
			token_estimate = excluded.token_estimate,
			embedding = excluded.embedding,
			embedding_model = excluded.embedding_model,
			version = excluded.version,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.TenantID, c.ChunkID, c.NoteID, c.Text, c.TextHash,
			c.Position, c.TokenEstimate, float32SliceToBytes(c.Embedding),
			nullString(c.EmbeddingModel), c.Version, c.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteChunks removes every chunk of a note.
func (s *SQLiteStore) DeleteChunks(ctx context.Context, tenantID, noteID string) (int, error) {
	if s.closed.Load() {
		return 0, model.ErrStoreClosed
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE tenant_id = ? AND note_id = ?", tenantID, noteID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// UpdateEmbeddings sets embeddings of existing chunks in one transaction.
func (s *SQLiteStore) UpdateEmbeddings(ctx context.Context, updates []EmbeddingUpdate) error {
	if s.closed.Load() {
		return model.ErrStoreClosed
	}
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE chunks SET embedding = ?, embedding_model = ?
		WHERE tenant_id = ? AND chunk_id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, float32SliceToBytes(u.Embedding), nullString(u.Model), u.TenantID, u.ChunkID); err != nil {
			return fmt.Errorf("updating embedding for %s: %w", u.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk returns one chunk.
func (s *SQLiteStore) GetChunk(ctx context.Context, tenantID, chunkID string) (model.Chunk, error) {
	if s.closed.Load() {
		return model.Chunk{}, model.ErrStoreClosed
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE tenant_id = ? AND chunk_id = ?
	`, tenantID, chunkID)

	c, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chunk{}, model.ErrNotFound
	}
	return c, err
}

// AllChunks returns every chunk of a tenant ordered by chunk ID.
func (s *SQLiteStore) AllChunks(ctx context.Context, tenantID string) ([]model.Chunk, error) {
	if s.closed.Load() {
		return nil, model.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE tenant_id = ?
		ORDER BY chunk_id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return scanChunks(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (model.Chunk, error) {
	var (
		c             model.Chunk
		embeddingBlob []byte
		embeddingName sql.NullString
	)
	err := row.Scan(&c.TenantID, &c.ChunkID, &c.NoteID, &c.Text, &c.TextHash, &c.Position,
		&c.TokenEstimate, &embeddingBlob, &embeddingName, &c.Version, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Chunk{}, err
		}
		return model.Chunk{}, fmt.Errorf("scanning chunk: %w", err)
	}
	c.Embedding = bytesToFloat32Slice(embeddingBlob)
	c.EmbeddingModel = embeddingName.String
	return c, nil
}

func scanChunks(rows *sql.Rows) ([]model.Chunk, error) {
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
