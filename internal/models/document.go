package models

// Document is a single loaded source file. The loader produces one Page per
// physical page; page numbers are zero-based.
type Document struct {
	Source string
	Pages  []Page
}

type Page struct {
	Number int
	Text   string
}

// Chunk is an immutable span of text with its identity and content digest.
// A "changed" chunk is a new Chunk value that reuses the same ID.
type Chunk struct {
	ID       string
	Hash     string
	Source   string
	Page     int
	ParentID string // set on child chunks only
	Text     string
}

// IngestReport summarizes a single ingest run.
type IngestReport struct {
	FilesSkipped   int
	FilesUpdated   int
	FilesFailed    int
	ChunksInserted int
	ChunksUpdated  int
}

// Answer is a generated response plus the source pages it was drawn from.
type Answer struct {
	Text    string
	Sources []string
}
