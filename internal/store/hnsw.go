package store

import (
	"context"
	"log/slog"
	"math"

	"github.com/coder/hnsw"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/embed"
	"github.com/rankfuse/rankfuse/internal/errors"
)

// HNSW graph parameters, tuned for small-to-medium corpora.
const (
	defaultM        = 16
	defaultEfSearch = 20
)

// HNSWStore implements DocumentStore using the coder/hnsw pure Go index.
// The store is built once from a frozen corpus and is read-only afterward;
// graph node keys are the corpus passage IDs.
type HNSWStore struct {
	graph    *hnsw.Graph[uint64]
	corpus   *corpus.Corpus
	embedder embed.Embedder
	logger   *slog.Logger
}

// NewHNSWStore embeds every passage in the corpus and indexes the vectors.
// Embedding failures surface as service errors since the embedder may be
// backed by a remote model.
func NewHNSWStore(ctx context.Context, c *corpus.Corpus, embedder embed.Embedder, logger *slog.Logger) (*HNSWStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vectors, err := embedder.EmbedBatch(ctx, c.Contents())
	if err != nil {
		return nil, errors.ExternalService("failed to embed corpus passages", err)
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = defaultM
	graph.EfSearch = defaultEfSearch
	graph.Ml = 0.25

	for i, vec := range vectors {
		normalized := make([]float32, len(vec))
		copy(normalized, vec)
		normalizeVectorInPlace(normalized)

		graph.Add(hnsw.MakeNode(uint64(c.Passage(i).ID), normalized))
	}

	logger.Debug("vector_store_built",
		slog.Int("passages", c.Len()),
		slog.Int("dimensions", embedder.Dimensions()),
		slog.String("model", embedder.ModelName()))

	return &HNSWStore{
		graph:    graph,
		corpus:   c,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// NearestNeighbors embeds the query and returns up to count neighbors
// ordered by ascending distance. Count is clamped to the corpus size.
func (s *HNSWStore) NearestNeighbors(ctx context.Context, query string, count int) ([]Neighbor, error) {
	if count <= 0 {
		return []Neighbor{}, nil
	}
	if count > s.corpus.Len() {
		count = s.corpus.Len()
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.ExternalService("failed to embed query", err)
	}

	normalized := make([]float32, len(queryVec))
	copy(normalized, queryVec)
	normalizeVectorInPlace(normalized)

	nodes := s.graph.Search(normalized, count)

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, node := range nodes {
		id := int(node.Key)
		if err := s.corpus.Validate(id); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{
			PassageID: id,
			Content:   s.corpus.Passage(id).Content,
			Distance:  float64(s.graph.Distance(normalized, node.Value)),
		})
	}

	s.logger.Debug("nearest_neighbors",
		slog.Int("requested", count),
		slog.Int("returned", len(neighbors)))

	return neighbors, nil
}

// normalizeVectorInPlace scales a vector to unit length for cosine distance.
// Zero vectors are left untouched.
func normalizeVectorInPlace(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

var _ DocumentStore = (*HNSWStore)(nil)
