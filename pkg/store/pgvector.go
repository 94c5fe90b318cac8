package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/internal/types"
)

type VectorIndexConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	SearchLimit int
}

// VectorIndex stores embedded chunks in Postgres with pgvector. Embedding
// happens inside UpsertBatch, so callers that diff away unchanged chunks
// never pay embedding cost for them.
type VectorIndex struct {
	config   VectorIndexConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

func NewWithConfig(config VectorIndexConfig, embedder types.Embedder) (*VectorIndex, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vi := &VectorIndex{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vi.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vi, nil
}

func (vi *VectorIndex) initialize() error {
	ctx := context.Background()

	_, err := vi.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			page INTEGER NOT NULL,
			parent_id TEXT,
			content TEXT NOT NULL,
			hash TEXT NOT NULL,
			embedding vector(%d)
		)`, vi.config.TableName, vi.config.VectorDim)

	_, err = vi.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vi.config.TableName, vi.config.TableName)

	_, err = vi.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// ExistingIDs returns the set of chunk IDs currently present in the index.
func (vi *VectorIndex) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := vi.pool.Query(ctx, fmt.Sprintf("SELECT id FROM %s", vi.config.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %v", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %v", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

// GetHashes returns the stored content hash for each of the given IDs that
// exists in the index.
func (vi *VectorIndex) GetHashes(ctx context.Context, ids []string) (map[string]string, error) {
	query := fmt.Sprintf("SELECT id, hash FROM %s WHERE id = ANY($1)", vi.config.TableName)

	rows, err := vi.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashes: %v", err)
	}
	defer rows.Close()

	hashes := make(map[string]string, len(ids))
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan hash: %v", err)
		}
		hashes[id] = hash
	}

	return hashes, rows.Err()
}

// UpsertBatch embeds the chunk texts in one call and writes the batch in a
// single transaction. Existing IDs are overwritten in place.
func (vi *VectorIndex) UpsertBatch(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = sanitizeUTF8(chunk.Text)
	}

	embeddings, err := vi.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to create embeddings: %v", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	tx, err := vi.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, page, parent_id, content, hash, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			page = EXCLUDED.page,
			parent_id = EXCLUDED.parent_id,
			content = EXCLUDED.content,
			hash = EXCLUDED.hash,
			embedding = EXCLUDED.embedding`,
		vi.config.TableName)

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, stmt,
			chunk.ID,
			chunk.Source,
			chunk.Page,
			nullable(chunk.ParentID),
			texts[i],
			chunk.Hash,
			pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %v", chunk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %v", err)
	}

	return nil
}

// Search embeds the query and returns the closest chunks by cosine distance.
func (vi *VectorIndex) Search(ctx context.Context, query string, limit int) ([]models.Chunk, error) {
	if limit == 0 {
		limit = vi.config.SearchLimit
	}

	embeddings, err := vi.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	sql := fmt.Sprintf(`
		SELECT id, source, page, COALESCE(parent_id, ''), content, hash
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vi.config.TableName)

	rows, err := vi.pool.Query(ctx, sql, pgvector.NewVector(embeddings[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Page, &chunk.ParentID, &chunk.Text, &chunk.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %v", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// Reset removes every chunk. Irreversible.
func (vi *VectorIndex) Reset(ctx context.Context) error {
	_, err := vi.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", vi.config.TableName))
	if err != nil {
		return fmt.Errorf("failed to truncate table: %v", err)
	}
	return nil
}

func (vi *VectorIndex) Close() {
	if vi.pool != nil {
		vi.pool.Close()
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
