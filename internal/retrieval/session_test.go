package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/errors"
	"github.com/rankfuse/rankfuse/internal/store"
)

// neutralStore gives every passage the same distance so the semantic
// signal never disturbs lexical-driven assertions.
func neutralStore(c *corpus.Corpus) *fakeStore {
	neighbors := make([]store.Neighbor, c.Len())
	for i := 0; i < c.Len(); i++ {
		neighbors[i] = store.Neighbor{PassageID: i, Content: c.Passage(i).Content, Distance: 1.0}
	}
	return &fakeStore{neighbors: neighbors}
}

func newSession(t *testing.T, c *corpus.Corpus, docStore store.DocumentStore, cfg SessionConfig) *RetrievalSession {
	t.Helper()
	s, err := NewRetrievalSession(c, docStore, cfg)
	require.NoError(t, err)
	return s
}

func TestNewRetrievalSession_ValidatesConfigs(t *testing.T) {
	c := testCorpus(t, "passage")
	fs := neutralStore(c)

	_, err := NewRetrievalSession(c, fs, SessionConfig{
		Fusion: fusionCfg(2.0, 60, 5),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))

	_, err = NewRetrievalSession(c, fs, SessionConfig{
		Fusion: DefaultFusionConfig(),
		Rerank: RerankConfig{Enabled: true},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
}

func TestRetrieveAndRank_LexicalScenario(t *testing.T) {
	// Given 5 passages, 2 containing the exact query terms
	c := testCorpus(t,
		"gradient descent optimizer tutorial",
		"reciprocal rank fusion algorithm",
		"banana bread recipe with walnuts",
		"fusion of reciprocal rank lists",
		"tour de france stage results",
	)
	session := newSession(t, c, neutralStore(c), SessionConfig{
		Fusion: fusionCfg(0, 60, 10),
	})

	// When retrieving with alpha=0 (pure lexical) and k=60
	results, err := session.RetrieveAndRank(context.Background(), "reciprocal rank fusion", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Then exactly the two matching passages come back
	ids := []int{results[0].Passage.ID, results[1].Passage.ID}
	assert.ElementsMatch(t, []int{1, 3}, ids)
}

func TestRetrieveAndRank_EmptyQueryAlphaOneFollowsSemanticOrder(t *testing.T) {
	c := testCorpus(t, "a", "b", "c")
	// semantic ordering by distance: c best, then a, then b
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 2, Distance: 0.1},
		{PassageID: 0, Distance: 0.5},
		{PassageID: 1, Distance: 0.9},
	}}
	session := newSession(t, c, fs, SessionConfig{
		Fusion: fusionCfg(1, 60, 10),
	})

	results, err := session.RetrieveAndRank(context.Background(), "", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 2, results[0].Passage.ID)
	assert.Equal(t, 0, results[1].Passage.ID)
	assert.Equal(t, 1, results[2].Passage.ID)
}

func TestRetrieveAndRank_Determinism(t *testing.T) {
	c := testCorpus(t,
		"hybrid search pipelines",
		"lexical scoring with bm25",
		"semantic embeddings and vectors",
		"rank fusion for search",
	)
	session := newSession(t, c, neutralStore(c), SessionConfig{
		Fusion: fusionCfg(0.5, 60, 10),
	})

	first, err := session.RetrieveAndRank(context.Background(), "search ranking", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := session.RetrieveAndRank(context.Background(), "search ranking", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieveAndRank_TotalOrdering(t *testing.T) {
	c := testCorpus(t, "one", "two", "three")
	session := newSession(t, c, neutralStore(c), SessionConfig{
		Fusion: fusionCfg(0.5, 60, 10),
	})

	// finalTopK larger than the corpus still returns the whole corpus
	results, err := session.RetrieveAndRank(context.Background(), "two", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRetrieveAndRank_InvalidTopK(t *testing.T) {
	c := testCorpus(t, "passage")
	session := newSession(t, c, neutralStore(c), SessionConfig{
		Fusion: DefaultFusionConfig(),
	})

	_, err := session.RetrieveAndRank(context.Background(), "q", 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
}

func TestRetrieveAndRank_StoreFailureIsHardError(t *testing.T) {
	c := testCorpus(t, "passage")
	session := newSession(t, c, &fakeStore{err: errors.ExternalService("store down", nil)}, SessionConfig{
		Fusion: DefaultFusionConfig(),
	})

	_, err := session.RetrieveAndRank(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.GetCode(err))
}

func TestRetrieveAndRank_WithReranker(t *testing.T) {
	c := testCorpus(t,
		"rank fusion overview",
		"unrelated gardening tips",
		"rank fusion deep dive with details on the fusion constant",
	)
	session := newSession(t, c, neutralStore(c), SessionConfig{
		Fusion: fusionCfg(0, 60, 10),
		Rerank: RerankConfig{Enabled: true, OnError: OnRerankErrorFail},
		Model:  TermOverlapModel{},
	})

	results, err := session.RetrieveAndRank(context.Background(), "rank fusion", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both survivors contain the query terms and carry full overlap.
	for _, p := range results {
		assert.Contains(t, p.Passage.Content, "fusion")
		assert.Equal(t, 1.0, p.Score)
		assert.False(t, p.Degraded)
	}
}

func TestCompareSearchMethods_BitIdenticalRuns(t *testing.T) {
	c := testCorpus(t,
		"postgres index tuning",
		"vector similarity search",
		"bm25 scoring internals",
		"reciprocal rank fusion",
	)
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 1, Distance: 0.2},
		{PassageID: 3, Distance: 0.4},
		{PassageID: 0, Distance: 0.8},
		{PassageID: 2, Distance: 0.9},
	}}
	session := newSession(t, c, fs, SessionConfig{
		Fusion: fusionCfg(0.5, 60, 10),
		Rerank: RerankConfig{Enabled: true, OnError: OnRerankErrorFail},
		Model:  TermOverlapModel{},
	})

	first, err := session.CompareSearchMethods(context.Background(), "vector search", 3)
	require.NoError(t, err)
	second, err := session.CompareSearchMethods(context.Background(), "vector search", 3)
	require.NoError(t, err)

	assert.Equal(t, first.LexicalOnly, second.LexicalOnly)
	assert.Equal(t, first.SemanticOnly, second.SemanticOnly)
	assert.Equal(t, first.HybridReranked, second.HybridReranked)
}

func TestCompareSearchMethods_SemanticOnlyFollowsDistances(t *testing.T) {
	c := testCorpus(t, "a", "b", "c")
	fs := &fakeStore{neighbors: []store.Neighbor{
		{PassageID: 1, Distance: 0.1},
		{PassageID: 2, Distance: 0.5},
		{PassageID: 0, Distance: 0.9},
	}}
	session := newSession(t, c, fs, SessionConfig{
		Fusion: fusionCfg(0.5, 60, 10),
	})

	cmp, err := session.CompareSearchMethods(context.Background(), "anything", 3)
	require.NoError(t, err)

	require.Len(t, cmp.SemanticOnly, 3)
	assert.Equal(t, 1, cmp.SemanticOnly[0].Passage.ID)
	assert.Equal(t, 2, cmp.SemanticOnly[1].Passage.ID)
	assert.Equal(t, 0, cmp.SemanticOnly[2].Passage.ID)
}
