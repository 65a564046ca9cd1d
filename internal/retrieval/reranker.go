package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/errors"
)

// RankedPassage is one entry in a retrieval result.
type RankedPassage struct {
	Passage corpus.Passage
	// FusedScore is the RRF score the passage carried into reranking.
	FusedScore float64
	// Score is the final ordering score: the relevance-model score, or
	// the fused score when reranking is disabled or fell back.
	Score float64
	// Degraded marks passages whose relevance-model call failed and
	// whose fused score was kept instead.
	Degraded bool
}

// RelevanceModel scores a single (query, passage) pair. Implementations
// must be stateless and safe for concurrent calls.
type RelevanceModel interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// OnRerankError selects how the reranker handles a relevance-model
// failure for an individual passage.
type OnRerankError string

const (
	// OnRerankErrorFail aborts the whole rerank call on the first
	// model failure.
	OnRerankErrorFail OnRerankError = "fail"
	// OnRerankErrorFallbackToFusedOrder keeps the failed passage's
	// fused score and marks it Degraded instead of failing the call.
	OnRerankErrorFallbackToFusedOrder OnRerankError = "fallback"
)

// RerankConfig controls the reranking stage.
type RerankConfig struct {
	Enabled bool
	// FinalTopK truncates the reranked list; 0 returns the full
	// shortlist.
	FinalTopK int
	OnError   OnRerankError
}

// Validate rejects malformed rerank parameters.
func (c RerankConfig) Validate() error {
	if c.FinalTopK < 0 {
		return errors.InvalidConfig(fmt.Sprintf("finalTopK must not be negative, got %d", c.FinalTopK))
	}
	switch c.OnError {
	case "", OnRerankErrorFail, OnRerankErrorFallbackToFusedOrder:
	default:
		return errors.InvalidConfig(fmt.Sprintf("unknown on_error policy %q", c.OnError))
	}
	return nil
}

// Reranker reorders a fused shortlist with a pairwise relevance model.
// One model call is issued per shortlisted passage; calls fan out
// concurrently and a context cancellation aborts the outstanding ones.
type Reranker struct {
	model  RelevanceModel
	policy OnRerankError
	logger *slog.Logger
}

// NewReranker builds a reranker around the given model. An empty policy
// defaults to failing the whole call on the first model error.
func NewReranker(model RelevanceModel, policy OnRerankError, logger *slog.Logger) *Reranker {
	if policy == "" {
		policy = OnRerankErrorFail
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{model: model, policy: policy, logger: logger}
}

// Rerank scores each shortlisted passage against the query and returns
// the shortlist sorted by descending model score. Exact score ties keep
// the shortlist (fused) order. The returned set is exactly the input
// shortlist, only reordered and optionally truncated to finalTopK.
func (r *Reranker) Rerank(ctx context.Context, query string, shortlist []RankedPassage, finalTopK int) ([]RankedPassage, error) {
	if len(shortlist) == 0 {
		return []RankedPassage{}, nil
	}

	started := time.Now()
	ranked := make([]RankedPassage, len(shortlist))
	copy(ranked, shortlist)

	g, gctx := errgroup.WithContext(ctx)
	for i := range ranked {
		i := i
		g.Go(func() error {
			score, err := r.model.Score(gctx, query, ranked[i].Passage.Content)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if r.policy == OnRerankErrorFallbackToFusedOrder {
					r.logger.Warn("rerank_pair_degraded",
						slog.Int("passage_id", ranked[i].Passage.ID),
						slog.String("error", err.Error()))
					ranked[i].Score = ranked[i].FusedScore
					ranked[i].Degraded = true
					return nil
				}
				return errors.ExternalService(
					fmt.Sprintf("relevance model failed for passage %d", ranked[i].Passage.ID), err)
			}
			ranked[i].Score = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	if finalTopK > 0 && finalTopK < len(ranked) {
		ranked = ranked[:finalTopK]
	}

	r.logger.Debug("rerank_complete",
		slog.Int("shortlist", len(shortlist)),
		slog.Int("returned", len(ranked)),
		slog.Duration("elapsed", time.Since(started)))

	return ranked, nil
}
