package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/pkg/store"
)

// stubEmbedder returns fixed-size deterministic vectors so the pgvector
// integration test does not need a running Ollama server.
type stubEmbedder struct {
	dim int
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.dim)
		for j, r := range text {
			vec[j%s.dim] += float32(r) / 1000
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Requires a Postgres with the pgvector extension; skipped otherwise.
func TestVectorIndex(t *testing.T) {
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	index, err := store.NewWithConfig(store.VectorIndexConfig{
		ConnString: connString,
		TableName:  "test_chunks",
		VectorDim:  8,
	}, &stubEmbedder{dim: 8})
	require.NoError(t, err)
	defer index.Close()
	require.NoError(t, index.Reset(ctx))

	chunks := []models.Chunk{
		{ID: "a.pdf:0:0:0:0", Source: "a.pdf", Page: 0, ParentID: "a.pdf:0:0", Hash: "h0", Text: "alpha chunk"},
		{ID: "a.pdf:0:0:0:1", Source: "a.pdf", Page: 0, ParentID: "a.pdf:0:0", Hash: "h1", Text: "beta chunk"},
	}
	require.NoError(t, index.UpsertBatch(ctx, chunks))

	ids, err := index.ExistingIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "a.pdf:0:0:0:0")
	assert.Contains(t, ids, "a.pdf:0:0:0:1")

	hashes, err := index.GetHashes(ctx, []string{"a.pdf:0:0:0:0", "a.pdf:0:0:0:1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, "h0", hashes["a.pdf:0:0:0:0"])
	assert.Equal(t, "h1", hashes["a.pdf:0:0:0:1"])
	assert.NotContains(t, hashes, "missing")

	// Upserting the same ID overwrites in place.
	require.NoError(t, index.UpsertBatch(ctx, []models.Chunk{
		{ID: "a.pdf:0:0:0:0", Source: "a.pdf", Page: 0, ParentID: "a.pdf:0:0", Hash: "h0-edited", Text: "alpha chunk edited"},
	}))
	hashes, err = index.GetHashes(ctx, []string{"a.pdf:0:0:0:0"})
	require.NoError(t, err)
	assert.Equal(t, "h0-edited", hashes["a.pdf:0:0:0:0"])

	results, err := index.Search(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	require.NoError(t, index.Reset(ctx))
	ids, err = index.ExistingIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
