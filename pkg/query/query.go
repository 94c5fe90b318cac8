package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/madslundt/aws-rag/internal/models"
	"github.com/madslundt/aws-rag/internal/types"
)

const expandPromptTemplate = `You are an AI language model assistant. Your task is to generate %d
different versions of the given user question to retrieve relevant documents from a vector
database. By generating multiple perspectives on the user question, your goal is to help
the user overcome some of the limitations of the distance-based similarity search.
Provide these and only these alternative questions separated by newlines.
Original question: %s`

const answerPromptTemplate = `Answer the question based only on the following context:

%s

---

Answer the question based on the above context: %s`

type RetrieverConfig struct {
	SearchLimit   int // chunks fetched per query variant
	QueryVariants int // alternative phrasings requested from the model
}

// Retriever answers questions over the two-tier index: it searches the child
// index with several phrasings of the question, swaps matched children for
// their fuller parent chunks, and asks the model to answer from that context.
type Retriever struct {
	index  types.VectorIndex
	docs   types.DocumentStore // nil when the corpus was ingested parent-only
	model  types.ChatModel
	config RetrieverConfig
}

func NewRetriever(index types.VectorIndex, docs types.DocumentStore, model types.ChatModel, config RetrieverConfig) *Retriever {
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.QueryVariants == 0 {
		config.QueryVariants = 5
	}

	return &Retriever{
		index:  index,
		docs:   docs,
		model:  model,
		config: config,
	}
}

// Answer runs the full retrieval chain for one question.
func (r *Retriever) Answer(ctx context.Context, question string) (models.Answer, error) {
	searches := r.expandQuery(ctx, question)

	matched, sources, err := r.retrieve(ctx, searches)
	if err != nil {
		return models.Answer{}, err
	}
	if len(matched) == 0 {
		return models.Answer{Text: "No relevant documents found."}, nil
	}

	contextText, err := r.resolveContext(ctx, matched)
	if err != nil {
		return models.Answer{}, err
	}

	response, err := r.model.Generate(ctx, fmt.Sprintf(answerPromptTemplate, contextText, question))
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	return models.Answer{Text: strings.TrimSpace(response), Sources: sources}, nil
}

// expandQuery asks the model for alternative phrasings. The original question
// always stays in the search set; on model failure it is the whole set.
func (r *Retriever) expandQuery(ctx context.Context, question string) []string {
	searches := []string{question}

	response, err := r.model.Generate(ctx,
		fmt.Sprintf(expandPromptTemplate, r.config.QueryVariants, question))
	if err != nil {
		return searches
	}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" || line == question {
			continue
		}
		searches = append(searches, line)
		if len(searches) > r.config.QueryVariants {
			break
		}
	}

	return searches
}

// retrieve searches the child index once per phrasing, deduplicating by
// chunk ID while preserving first-seen order.
func (r *Retriever) retrieve(ctx context.Context, searches []string) ([]models.Chunk, []string, error) {
	seen := make(map[string]bool)
	var matched []models.Chunk
	var sources []string

	for _, search := range searches {
		chunks, err := r.index.Search(ctx, search, r.config.SearchLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to search index: %w", err)
		}

		for _, chunk := range chunks {
			if seen[chunk.ID] {
				continue
			}
			seen[chunk.ID] = true
			matched = append(matched, chunk)
			sources = append(sources, fmt.Sprintf("%s page %d", chunk.Source, chunk.Page))
		}
	}

	return matched, sources, nil
}

// resolveContext swaps matched children for their parent chunks when a
// document store is in use, so the model sees fuller context than what was
// embedded. Each parent appears once no matter how many of its children hit.
func (r *Retriever) resolveContext(ctx context.Context, matched []models.Chunk) (string, error) {
	texts := make([]string, 0, len(matched))

	if r.docs == nil {
		for _, chunk := range matched {
			texts = append(texts, chunk.Text)
		}
		return strings.Join(texts, "\n\n---\n\n"), nil
	}

	seen := make(map[string]bool)
	var parentIDs []string
	for _, chunk := range matched {
		if chunk.ParentID == "" || seen[chunk.ParentID] {
			continue
		}
		seen[chunk.ParentID] = true
		parentIDs = append(parentIDs, chunk.ParentID)
	}

	parents, err := r.docs.GetMany(ctx, parentIDs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent chunks: %w", err)
	}

	for _, parent := range parents {
		texts = append(texts, parent.Text)
	}
	return strings.Join(texts, "\n\n---\n\n"), nil
}
