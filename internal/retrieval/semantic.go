package retrieval

import (
	"context"
	"fmt"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/errors"
	"github.com/rankfuse/rankfuse/internal/store"
)

// SemanticScorer adapts a nearest-neighbor document store into a full,
// corpus-aligned score vector. It always requests count = corpus size so
// fusion sees a score for every passage, not just the store's top hits.
type SemanticScorer struct {
	corpus *corpus.Corpus
	store  store.DocumentStore
}

// NewSemanticScorer wires the scorer to a frozen corpus and its store.
func NewSemanticScorer(c *corpus.Corpus, s store.DocumentStore) (*SemanticScorer, error) {
	if c == nil || c.Len() == 0 {
		return nil, errors.CorpusEmpty()
	}
	return &SemanticScorer{corpus: c, store: s}, nil
}

// Score issues one nearest-neighbor request and aligns the results to the
// corpus by passage ID. Distances convert to similarity via 1/(1+d), and
// the vector is scaled so its maximum is 1. Passages the store omits keep
// score 0. Results are matched on passage identity rather than content, so
// duplicate passages cannot be confused with each other; an out-of-range
// or repeated ID means the store's view has drifted from ours and is
// reported as an alignment failure.
func (s *SemanticScorer) Score(ctx context.Context, query string) (ScoreVector, error) {
	neighbors, err := s.store.NearestNeighbors(ctx, query, s.corpus.Len())
	if err != nil {
		return nil, err
	}

	scores := make(ScoreVector, s.corpus.Len())
	seen := make(map[int]bool, len(neighbors))

	for _, nb := range neighbors {
		if err := s.corpus.Validate(nb.PassageID); err != nil {
			return nil, err
		}
		if seen[nb.PassageID] {
			return nil, errors.AlignmentFailure(
				fmt.Sprintf("store returned passage %d more than once", nb.PassageID))
		}
		seen[nb.PassageID] = true
		scores[nb.PassageID] = 1 / (1 + nb.Distance)
	}

	maxScore := 0.0
	for _, sc := range scores {
		if sc > maxScore {
			maxScore = sc
		}
	}
	if maxScore > 0 {
		for i := range scores {
			scores[i] /= maxScore
		}
	}

	return scores, nil
}
