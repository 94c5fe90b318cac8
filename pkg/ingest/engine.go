package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/internal/types"
	"github.com/madslundt/aws-rag/pkg/loader"
	"github.com/madslundt/aws-rag/pkg/splitter"
)

// FileStatus reports what happened to a single file during an ingest run.
type FileStatus string

const (
	FileSkipped  FileStatus = "skipped"
	FileIngested FileStatus = "ingested"
	FileFailed   FileStatus = "failed"
)

type EngineConfig struct {
	ParentChunkSize int
	ChildChunkSize  int // 0 means parent-only mode: parents are embedded directly
	ChunkOverlap    int
	BatchSize       int

	// OnFile and OnError let the caller render progress; the engine itself
	// never prints.
	OnFile  func(path string, status FileStatus)
	OnError func(path string, err error)
}

// Engine is the incremental content-addressed indexing pipeline for one
// corpus. It is single-threaded per file: chunk identity depends on same-page
// ordering, so a file's batches are never interleaved across workers.
// Separate engine instances may run over different files concurrently against
// the same backing stores.
type Engine struct {
	loader   types.DocumentLoader
	index    types.VectorIndex
	docs     types.DocumentStore
	digests  types.FileDigestStore
	cache    *FileChangeCache
	splitter splitter.Splitter
	writer   *IndexWriter
	config   EngineConfig
}

func NewWithConfig(
	docLoader types.DocumentLoader,
	index types.VectorIndex,
	docs types.DocumentStore,
	digests types.FileDigestStore,
	config EngineConfig,
) *Engine {
	if config.ParentChunkSize == 0 {
		config.ParentChunkSize = 400
	}
	if config.BatchSize == 0 {
		config.BatchSize = 500
	}

	// The document store only participates when child splitting is active;
	// in parent-only mode parents go straight into the vector index.
	var parentStore types.DocumentStore
	if config.ChildChunkSize > 0 {
		parentStore = docs
	}

	return &Engine{
		loader:  docLoader,
		index:   index,
		docs:    docs,
		digests: digests,
		cache:   NewFileChangeCache(digests),
		splitter: splitter.NewWithConfig(splitter.SplitterConfig{
			ParentChunkSize: config.ParentChunkSize,
			ChildChunkSize:  config.ChildChunkSize,
			ChunkOverlap:    config.ChunkOverlap,
		}),
		writer: NewIndexWriter(index, parentStore, IndexWriterConfig{
			BatchSize: config.BatchSize,
		}),
		config: config,
	}
}

// Ingest walks root for PDF files and applies each one incrementally.
// reset=true irreversibly clears the vector index, the document store, and
// the digest cache before ingesting.
func (e *Engine) Ingest(ctx context.Context, root string, reset bool) (models.IngestReport, error) {
	var report models.IngestReport

	if reset {
		if err := e.clearStores(ctx); err != nil {
			return report, err
		}
	}

	files, err := e.discoverFiles(root)
	if err != nil {
		return report, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	for _, path := range files {
		result, err := e.ingestFile(ctx, path)
		if err != nil {
			report.FilesFailed++
			e.notify(path, FileFailed)
			if e.config.OnError != nil {
				e.config.OnError(path, err)
			}
			continue
		}

		if result.skipped {
			report.FilesSkipped++
			e.notify(path, FileSkipped)
			continue
		}

		report.FilesUpdated++
		report.ChunksInserted += result.inserted
		report.ChunksUpdated += result.updated
		e.notify(path, FileIngested)
	}

	return report, nil
}

type fileResult struct {
	skipped  bool
	inserted int
	updated  int
}

// ingestFile runs the full per-file pipeline: digest gate, load, split,
// diff, batched write, and finally the digest-cache record. Recording the
// digest is strictly the last step so a failed or partial run is retried
// wholesale on the next invocation.
func (e *Engine) ingestFile(ctx context.Context, path string) (fileResult, error) {
	fileDigest, unchanged, err := e.cache.Check(ctx, path)
	if err != nil {
		return fileResult{}, err
	}
	if unchanged {
		return fileResult{skipped: true}, nil
	}

	doc, err := e.loader.Load(path)
	if err != nil {
		var loadErr *loader.LoadError
		if !errors.As(err, &loadErr) {
			err = &loader.LoadError{Path: path, Err: err}
		}
		return fileResult{}, err
	}

	parents, children, err := e.splitter.Split(doc)
	if err != nil {
		return fileResult{}, err
	}

	candidates := parents
	if e.config.ChildChunkSize > 0 {
		candidates = children
	}

	state, err := e.snapshotIndex(ctx, candidates)
	if err != nil {
		return fileResult{}, err
	}

	delta := Diff(candidates, state)

	if err := e.writer.Write(ctx, parents, delta); err != nil {
		return fileResult{}, err
	}

	if err := e.cache.Record(ctx, path, fileDigest); err != nil {
		return fileResult{}, err
	}

	return fileResult{
		inserted: len(delta.ToInsert),
		updated:  len(delta.ToUpdate),
	}, nil
}

// snapshotIndex reads the current IDs once, then fetches stored hashes only
// for the candidates that already exist.
func (e *Engine) snapshotIndex(ctx context.Context, candidates []models.Chunk) (IndexState, error) {
	ids, err := e.index.ExistingIDs(ctx)
	if err != nil {
		return IndexState{}, &StoreReadError{Op: "id snapshot", Err: err}
	}

	var present []string
	for _, chunk := range candidates {
		if _, exists := ids[chunk.ID]; exists {
			present = append(present, chunk.ID)
		}
	}

	hashes := map[string]string{}
	if len(present) > 0 {
		hashes, err = e.index.GetHashes(ctx, present)
		if err != nil {
			return IndexState{}, &StoreReadError{Op: "hash snapshot", Err: err}
		}
	}

	return IndexState{IDs: ids, Hashes: hashes}, nil
}

func (e *Engine) clearStores(ctx context.Context) error {
	if err := e.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector index: %w", err)
	}
	if e.docs != nil {
		if err := e.docs.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset document store: %w", err)
		}
	}
	if err := e.digests.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset digest cache: %w", err)
	}
	return nil
}

func (e *Engine) discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (e *Engine) notify(path string, status FileStatus) {
	if e.config.OnFile != nil {
		e.config.OnFile(path, status)
	}
}
