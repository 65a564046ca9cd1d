package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankfuse/rankfuse/internal/errors"
	"github.com/rankfuse/rankfuse/internal/store"
)

// fakeStore returns a canned neighbor list regardless of the query.
type fakeStore struct {
	neighbors []store.Neighbor
	err       error
	calls     int
	lastCount int
}

func (f *fakeStore) NearestNeighbors(ctx context.Context, query string, count int) ([]store.Neighbor, error) {
	f.calls++
	f.lastCount = count
	if f.err != nil {
		return nil, f.err
	}
	return f.neighbors, nil
}

func TestSemanticScorer_AlignsByPassageID(t *testing.T) {
	c := testCorpus(t, "zero", "one", "two")
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 2, Content: "two", Distance: 0.0},
		{PassageID: 0, Content: "zero", Distance: 1.0},
	}}
	scorer, err := NewSemanticScorer(c, fs)
	require.NoError(t, err)

	scores, err := scorer.Score(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, scores, 3)

	// distance 0 → similarity 1; distance 1 → similarity 0.5; after
	// max-scaling the best passage holds exactly 1.
	assert.Equal(t, 1.0, scores[2])
	assert.InDelta(t, 0.5, scores[0], 1e-9)
	assert.Zero(t, scores[1], "omitted passages keep score 0")

	assert.Equal(t, 3, fs.lastCount, "scorer must request the full corpus")
}

func TestSemanticScorer_MaxScaling(t *testing.T) {
	c := testCorpus(t, "a", "b")
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 0, Content: "a", Distance: 3.0},
		{PassageID: 1, Content: "b", Distance: 7.0},
	}}
	scorer, err := NewSemanticScorer(c, fs)
	require.NoError(t, err)

	scores, err := scorer.Score(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, 1.0, scores[0])
	assert.InDelta(t, (1.0/8.0)/(1.0/4.0), scores[1], 1e-9)
}

func TestSemanticScorer_DuplicateIDIsAlignmentFailure(t *testing.T) {
	c := testCorpus(t, "same text", "same text")
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 0, Content: "same text", Distance: 0.1},
		{PassageID: 0, Content: "same text", Distance: 0.2},
	}}
	scorer, err := NewSemanticScorer(c, fs)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), "query")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlignmentFailure, errors.GetCode(err))
}

func TestSemanticScorer_OutOfRangeIDIsAlignmentFailure(t *testing.T) {
	c := testCorpus(t, "only passage")
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 9, Content: "ghost", Distance: 0.1},
	}}
	scorer, err := NewSemanticScorer(c, fs)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), "query")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlignmentFailure, errors.GetCode(err))
}

func TestSemanticScorer_StoreErrorPropagates(t *testing.T) {
	c := testCorpus(t, "passage")
	fs := &fakeStore{err: errors.ExternalService("store down", nil)}
	scorer, err := NewSemanticScorer(c, fs)
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), "query")
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestSemanticScorer_EmptyStoreResultIsZeroVector(t *testing.T) {
	c := testCorpus(t, "a", "b")
	scorer, err := NewSemanticScorer(c, &fakeStore{})
	require.NoError(t, err)

	scores, err := scorer.Score(context.Background(), "query")
	require.NoError(t, err)
	assert.True(t, scores.allZero())
}
