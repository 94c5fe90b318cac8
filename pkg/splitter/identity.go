package splitter

import (
	"strconv"

	"github.com/madslundt/aws-rag/internal/models"
)

// splitPass disambiguates the identity namespace between the parent split and
// each parent's child split, so IDs never collide across passes.
type splitPass struct {
	index   int
	present bool
}

var parentPass = splitPass{}

func childPass(parentIndex int) splitPass {
	return splitPass{index: parentIndex, present: true}
}

// cursor is the accumulator for the identity fold: the page key of the
// previous chunk and the sequence position within that key.
type cursor struct {
	lastPageKey string
	chunkIndex  int
}

// assignIdentity derives a stable ID for every chunk from its provenance.
// The sequence counter increments while consecutive chunks share the same
// (source, pass, page) key and resets to zero when the key changes, so IDs
// reproduce across runs no matter what happens elsewhere in the corpus.
func assignIdentity(chunks []models.Chunk, pass splitPass) []models.Chunk {
	cur := cursor{}

	for i := range chunks {
		key := chunks[i].Source
		if pass.present {
			key += ":" + strconv.Itoa(pass.index)
		}
		key += ":" + strconv.Itoa(chunks[i].Page)

		if key == cur.lastPageKey {
			cur.chunkIndex++
		} else {
			cur.chunkIndex = 0
		}

		chunks[i].ID = key + ":" + strconv.Itoa(cur.chunkIndex)
		cur.lastPageKey = key
	}

	return chunks
}
