package ingest_test

import (
	"context"
	"fmt"
	"os"

	"github.com/madslundt/aws-rag/internal/models"
)

type fakeIndex struct {
	rows map[string]models.Chunk

	readCalls     int
	upsertBatches [][]models.Chunk
	failUpserts   bool
	failReads     bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{rows: make(map[string]models.Chunk)}
}

func (f *fakeIndex) calls() int {
	return f.readCalls + len(f.upsertBatches)
}

func (f *fakeIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	f.readCalls++
	if f.failReads {
		return nil, fmt.Errorf("index unreachable")
	}
	ids := make(map[string]struct{}, len(f.rows))
	for id := range f.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeIndex) GetHashes(_ context.Context, ids []string) (map[string]string, error) {
	f.readCalls++
	if f.failReads {
		return nil, fmt.Errorf("index unreachable")
	}
	hashes := make(map[string]string, len(ids))
	for _, id := range ids {
		if chunk, ok := f.rows[id]; ok {
			hashes[id] = chunk.Hash
		}
	}
	return hashes, nil
}

func (f *fakeIndex) UpsertBatch(_ context.Context, chunks []models.Chunk) error {
	if f.failUpserts {
		return fmt.Errorf("index write refused")
	}
	batch := make([]models.Chunk, len(chunks))
	copy(batch, chunks)
	f.upsertBatches = append(f.upsertBatches, batch)
	for _, chunk := range chunks {
		f.rows[chunk.ID] = chunk
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]models.Chunk, error) {
	return nil, nil
}

func (f *fakeIndex) Reset(_ context.Context) error {
	f.rows = make(map[string]models.Chunk)
	return nil
}

type fakeDocStore struct {
	rows      map[string]models.Chunk
	setCalls  int
	failWrite bool
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{rows: make(map[string]models.Chunk)}
}

func (f *fakeDocStore) SetMany(_ context.Context, chunks []models.Chunk) error {
	if f.failWrite {
		return fmt.Errorf("docstore write refused")
	}
	f.setCalls++
	for _, chunk := range chunks {
		f.rows[chunk.ID] = chunk
	}
	return nil
}

func (f *fakeDocStore) GetMany(_ context.Context, ids []string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, id := range ids {
		if chunk, ok := f.rows[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (f *fakeDocStore) Reset(_ context.Context) error {
	f.rows = make(map[string]models.Chunk)
	return nil
}

type fakeDigestStore struct {
	digests map[string]string
}

func newFakeDigestStore() *fakeDigestStore {
	return &fakeDigestStore{digests: make(map[string]string)}
}

func (f *fakeDigestStore) Get(_ context.Context, path string) (string, error) {
	return f.digests[path], nil
}

func (f *fakeDigestStore) Set(_ context.Context, path, digest string) error {
	f.digests[path] = digest
	return nil
}

func (f *fakeDigestStore) Reset(_ context.Context) error {
	f.digests = make(map[string]string)
	return nil
}

// textLoader reads the file verbatim as a one-page document, so tests can
// drive the pipeline with plain text files.
type textLoader struct {
	loadCalls int
	failPaths map[string]bool
}

func newTextLoader() *textLoader {
	return &textLoader{failPaths: make(map[string]bool)}
}

func (l *textLoader) Load(path string) (models.Document, error) {
	l.loadCalls++
	if l.failPaths[path] {
		return models.Document{}, fmt.Errorf("unreadable input")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{
		Source: path,
		Pages:  []models.Page{{Number: 0, Text: string(content)}},
	}, nil
}
