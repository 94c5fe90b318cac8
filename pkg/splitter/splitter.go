package splitter

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/pkg/digest"
)

type SplitterConfig struct {
	ParentChunkSize int
	ChildChunkSize  int // 0 disables child splitting
	ChunkOverlap    int
}

// Splitter turns a loaded document into parent chunks and, when child
// splitting is enabled, child chunks linked to their parents. Splitting is a
// pure function of the input text and the size parameters.
type Splitter struct {
	config SplitterConfig
	parent textsplitter.RecursiveCharacter
	child  textsplitter.RecursiveCharacter
}

func NewWithConfig(config SplitterConfig) Splitter {
	if config.ParentChunkSize == 0 {
		config.ParentChunkSize = 400
	}

	s := Splitter{
		config: config,
		parent: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ParentChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
		),
	}

	if config.ChildChunkSize > 0 {
		s.child = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChildChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
		)
	}

	return s
}

// Split produces the ordered parent chunks covering the whole document, each
// with its ID and content hash assigned. With child splitting enabled it also
// returns the child chunks, each carrying its parent's ID.
func (s *Splitter) Split(doc models.Document) ([]models.Chunk, []models.Chunk, error) {
	var parents []models.Chunk

	for _, page := range doc.Pages {
		pieces, err := s.parent.SplitText(page.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to split page %d of %s: %w", page.Number, doc.Source, err)
		}

		for _, text := range pieces {
			parents = append(parents, models.Chunk{
				Source: doc.Source,
				Page:   page.Number,
				Text:   text,
			})
		}
	}

	parents = annotate(parents, parentPass)

	if s.config.ChildChunkSize <= 0 {
		return parents, nil, nil
	}

	var children []models.Chunk

	for idx, parent := range parents {
		pieces, err := s.child.SplitText(parent.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to split parent %s: %w", parent.ID, err)
		}

		batch := make([]models.Chunk, 0, len(pieces))
		for _, text := range pieces {
			batch = append(batch, models.Chunk{
				Source:   parent.Source,
				Page:     parent.Page,
				ParentID: parent.ID,
				Text:     text,
			})
		}

		children = append(children, annotate(batch, childPass(idx))...)
	}

	return parents, children, nil
}

func annotate(chunks []models.Chunk, pass splitPass) []models.Chunk {
	chunks = assignIdentity(chunks, pass)
	for i := range chunks {
		chunks[i].Hash = digest.HashText(chunks[i].Text)
	}
	return chunks
}
