package loader

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/madslundt/aws-rag/internal/models"
)

// LoadError marks a source file as unreadable or corrupt. The ingest loop
// skips the file and moves on when it sees one.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PDFLoader extracts per-page plain text from PDF files. Page numbers in the
// produced document are zero-based.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(path string) (models.Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	var pages []models.Page
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return models.Document{}, &LoadError{Path: path, Err: fmt.Errorf("page %d: %w", pageNum, err)}
		}

		pages = append(pages, models.Page{Number: pageNum - 1, Text: text})
	}

	if len(pages) == 0 {
		return models.Document{}, &LoadError{Path: path, Err: fmt.Errorf("no extractable text")}
	}

	return models.Document{Source: path, Pages: pages}, nil
}
