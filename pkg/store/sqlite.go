package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/internal/types"
)

// SQLiteStore is the durable KV side of the pipeline: one table of parent
// chunks keyed by chunk ID, one table of per-file ingest digests. Both live
// in a single database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create docstore directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open docstore: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS parent_chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			page INTEGER NOT NULL,
			hash TEXT NOT NULL,
			content TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS file_digests (
			path TEXT PRIMARY KEY,
			digest TEXT NOT NULL
		);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create docstore tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// DocumentStore returns the parent-chunk store backed by this database.
func (s *SQLiteStore) DocumentStore() types.DocumentStore {
	return &parentStore{db: s.db}
}

// DigestStore returns the file-digest store backed by this database.
func (s *SQLiteStore) DigestStore() types.FileDigestStore {
	return &digestStore{db: s.db}
}

type parentStore struct {
	db *sql.DB
}

func (p *parentStore) SetMany(ctx context.Context, chunks []models.Chunk) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO parent_chunks (id, source, page, hash, content)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source = excluded.source,
			page = excluded.page,
			hash = excluded.hash,
			content = excluded.content`

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, stmt, chunk.ID, chunk.Source, chunk.Page, chunk.Hash, chunk.Text); err != nil {
			return fmt.Errorf("failed to store parent chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit parent chunks: %w", err)
	}
	return nil
}

func (p *parentStore) GetMany(ctx context.Context, ids []string) ([]models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(
		"SELECT id, source, page, hash, content FROM parent_chunks WHERE id IN (%s)",
		placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Chunk, len(ids))
	for rows.Next() {
		var chunk models.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Page, &chunk.Hash, &chunk.Text); err != nil {
			return nil, fmt.Errorf("failed to scan parent chunk: %w", err)
		}
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parent chunks: %w", err)
	}

	// Preserve the requested order, dropping ids that are not stored.
	chunks := make([]models.Chunk, 0, len(byID))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (p *parentStore) Reset(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM parent_chunks"); err != nil {
		return fmt.Errorf("failed to clear parent chunks: %w", err)
	}
	return nil
}

type digestStore struct {
	db *sql.DB
}

func (d *digestStore) Get(ctx context.Context, path string) (string, error) {
	var digest string
	err := d.db.QueryRowContext(ctx,
		"SELECT digest FROM file_digests WHERE path = ?", path).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file digest: %w", err)
	}
	return digest, nil
}

func (d *digestStore) Set(ctx context.Context, path, digest string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO file_digests (path, digest) VALUES (?, ?)
		ON CONFLICT (path) DO UPDATE SET digest = excluded.digest`,
		path, digest)
	if err != nil {
		return fmt.Errorf("failed to record file digest: %w", err)
	}
	return nil
}

func (d *digestStore) Reset(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM file_digests"); err != nil {
		return fmt.Errorf("failed to clear file digests: %w", err)
	}
	return nil
}
