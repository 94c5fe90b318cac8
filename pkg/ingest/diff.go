package ingest

import "github.com/madslundt/aws-rag/internal/models"

// IndexState is the snapshot of the vector index the diff reconciles
// against: the IDs currently present and their stored content hashes. It is
// read once per file before writing.
type IndexState struct {
	IDs    map[string]struct{}
	Hashes map[string]string
}

// Delta is the result of diffing candidate chunks against the index:
// ToInsert holds chunks whose ID is absent, ToUpdate holds chunks whose
// stored hash differs. Input order is preserved within each sequence.
type Delta struct {
	ToInsert  []models.Chunk
	ToUpdate  []models.Chunk
	Unchanged int
}

func (d Delta) Empty() bool {
	return len(d.ToInsert) == 0 && len(d.ToUpdate) == 0
}

// Diff classifies each candidate as new, updated, or unchanged. Comparing
// hashes rather than bare existence is what makes re-running ingestion
// idempotent: only genuinely changed spans incur re-embedding cost.
func Diff(candidates []models.Chunk, state IndexState) Delta {
	var delta Delta

	for _, chunk := range candidates {
		if _, exists := state.IDs[chunk.ID]; !exists {
			delta.ToInsert = append(delta.ToInsert, chunk)
			continue
		}

		if state.Hashes[chunk.ID] != chunk.Hash {
			delta.ToUpdate = append(delta.ToUpdate, chunk)
			continue
		}

		delta.Unchanged++
	}

	return delta
}
