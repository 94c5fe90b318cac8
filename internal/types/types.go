package types

import (
	"context"

	"github.com/madslundt/aws-rag/internal/models"
)

// DocumentLoader turns a file on disk into a paged Document.
type DocumentLoader interface {
	Load(path string) (models.Document, error)
}

// VectorIndex is the embedding-backed child index. UpsertBatch overwrites a
// chunk in place when its ID already exists, so retrying a batch is safe.
type VectorIndex interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	GetHashes(ctx context.Context, ids []string) (map[string]string, error)
	UpsertBatch(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]models.Chunk, error)
	Reset(ctx context.Context) error
}

// DocumentStore holds parent chunks keyed by ID for context retrieval.
type DocumentStore interface {
	SetMany(ctx context.Context, chunks []models.Chunk) error
	GetMany(ctx context.Context, ids []string) ([]models.Chunk, error)
	Reset(ctx context.Context) error
}

// FileDigestStore persists the last successfully ingested digest per file
// path. Get returns an empty string when the path has never been recorded.
type FileDigestStore interface {
	Get(ctx context.Context, path string) (string, error)
	Set(ctx context.Context, path, digest string) error
	Reset(ctx context.Context) error
}

// Embedder produces one embedding vector per input text.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel generates a completion for a single prompt.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
