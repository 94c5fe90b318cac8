package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/pkg/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "docstore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParentStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	docs := newTestStore(t).DocumentStore()

	chunks := []models.Chunk{
		{ID: "a.pdf:0:0", Source: "a.pdf", Page: 0, Hash: "h0", Text: "first parent"},
		{ID: "a.pdf:0:1", Source: "a.pdf", Page: 0, Hash: "h1", Text: "second parent"},
		{ID: "a.pdf:1:0", Source: "a.pdf", Page: 1, Hash: "h2", Text: "third parent"},
	}
	require.NoError(t, docs.SetMany(ctx, chunks))

	got, err := docs.GetMany(ctx, []string{"a.pdf:1:0", "a.pdf:0:0"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Requested order is preserved.
	assert.Equal(t, "a.pdf:1:0", got[0].ID)
	assert.Equal(t, "third parent", got[0].Text)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, "a.pdf:0:0", got[1].ID)
}

func TestParentStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	docs := newTestStore(t).DocumentStore()

	require.NoError(t, docs.SetMany(ctx, []models.Chunk{
		{ID: "a.pdf:0:0", Source: "a.pdf", Hash: "old", Text: "old text"},
	}))
	require.NoError(t, docs.SetMany(ctx, []models.Chunk{
		{ID: "a.pdf:0:0", Source: "a.pdf", Hash: "new", Text: "new text"},
	}))

	got, err := docs.GetMany(ctx, []string{"a.pdf:0:0"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new text", got[0].Text)
	assert.Equal(t, "new", got[0].Hash)
}

func TestParentStoreGetManyMissingIDs(t *testing.T) {
	ctx := context.Background()
	docs := newTestStore(t).DocumentStore()

	got, err := docs.GetMany(ctx, []string{"nope:0:0"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = docs.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDigestStore(t *testing.T) {
	ctx := context.Background()
	digests := newTestStore(t).DigestStore()

	// Absent path reads as empty.
	got, err := digests.Get(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, digests.Set(ctx, "/docs/a.pdf", "digest-1"))
	got, err = digests.Get(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "digest-1", got)

	require.NoError(t, digests.Set(ctx, "/docs/a.pdf", "digest-2"))
	got, err = digests.Get(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "digest-2", got)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	docs := s.DocumentStore()
	digests := s.DigestStore()

	require.NoError(t, docs.SetMany(ctx, []models.Chunk{{ID: "a:0:0", Source: "a", Hash: "h", Text: "x"}}))
	require.NoError(t, digests.Set(ctx, "/docs/a.pdf", "digest"))

	require.NoError(t, docs.Reset(ctx))
	require.NoError(t, digests.Reset(ctx))

	got, err := docs.GetMany(ctx, []string{"a:0:0"})
	require.NoError(t, err)
	assert.Empty(t, got)

	digest, err := digests.Get(ctx, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Empty(t, digest)
}
