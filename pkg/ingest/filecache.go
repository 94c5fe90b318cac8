package ingest

import (
	"context"
	"fmt"

	"github.com/madslundt/aws-rag/internal/types"
	"github.com/madslundt/aws-rag/pkg/digest"
)

// FileChangeCache gates whether a file is reprocessed at all. It compares the
// file's current digest against the last successfully ingested one; Record is
// only called after every chunk derived from the file has been written.
type FileChangeCache struct {
	store types.FileDigestStore
}

func NewFileChangeCache(store types.FileDigestStore) *FileChangeCache {
	return &FileChangeCache{store: store}
}

// Check computes the file's current digest and reports whether it matches the
// cached value. An absent cache entry counts as changed.
func (c *FileChangeCache) Check(ctx context.Context, path string) (string, bool, error) {
	current, err := digest.HashFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to hash file: %w", err)
	}

	cached, err := c.store.Get(ctx, path)
	if err != nil {
		return "", false, &StoreReadError{Op: "digest lookup", Err: err}
	}

	return current, cached != "" && cached == current, nil
}

// Record marks the file as fully ingested at the given digest.
func (c *FileChangeCache) Record(ctx context.Context, path, fileDigest string) error {
	if err := c.store.Set(ctx, path, fileDigest); err != nil {
		return &StoreWriteError{Op: "digest record", Err: err}
	}
	return nil
}
