package ingest

import (
	"context"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/internal/types"
)

// IndexWriter applies a file's delta to the vector index in fixed-size
// batches and, when a document store is in use, persists the file's parent
// chunks. A failing batch abandons the rest of the file; applied batches are
// left in place since a wholesale retry of the file is always safe.
type IndexWriter struct {
	index     types.VectorIndex
	docs      types.DocumentStore // nil in parent-only mode
	batchSize int
	onBatch   func(written int)
}

type IndexWriterConfig struct {
	BatchSize int
	OnBatch   func(written int)
}

func NewIndexWriter(index types.VectorIndex, docs types.DocumentStore, config IndexWriterConfig) *IndexWriter {
	if config.BatchSize == 0 {
		config.BatchSize = 500
	}

	return &IndexWriter{
		index:     index,
		docs:      docs,
		batchSize: config.BatchSize,
		onBatch:   config.OnBatch,
	}
}

// Write persists the parent chunks and applies the delta. Parents are written
// unconditionally on every (re)ingested file: parent content is cheap to
// store and must stay in sync with any child that references it.
func (w *IndexWriter) Write(ctx context.Context, parents []models.Chunk, delta Delta) error {
	if w.docs != nil && len(parents) > 0 {
		if err := w.docs.SetMany(ctx, parents); err != nil {
			return &StoreWriteError{Op: "parent store", Err: err}
		}
	}

	if err := w.upsertBatched(ctx, delta.ToInsert); err != nil {
		return err
	}

	return w.upsertBatched(ctx, delta.ToUpdate)
}

func (w *IndexWriter) upsertBatched(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += w.batchSize {
		end := start + w.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[start:end]
		if err := w.index.UpsertBatch(ctx, batch); err != nil {
			return &StoreWriteError{Op: "batch upsert", Err: err}
		}

		if w.onBatch != nil {
			w.onBatch(len(batch))
		}
	}

	return nil
}
