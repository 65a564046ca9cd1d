package retrieval

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/errors"
	"github.com/rankfuse/rankfuse/internal/store"
)

// RetrievalSession owns a frozen corpus, its lexical index, a semantic
// scorer, and the fusion/rerank configuration. A session is built once
// and is safe for concurrent queries: only per-query score vectors are
// mutable state, discarded when the call returns.
type RetrievalSession struct {
	corpus   *corpus.Corpus
	lexical  *LexicalScorer
	semantic *SemanticScorer
	reranker *Reranker

	fusion FusionConfig
	rerank RerankConfig
	logger *slog.Logger
}

// SessionConfig assembles a retrieval session. Model may be nil when
// Rerank.Enabled is false.
type SessionConfig struct {
	Fusion FusionConfig
	Rerank RerankConfig
	Model  RelevanceModel
	Logger *slog.Logger
}

// NewRetrievalSession validates the configuration, builds the lexical
// index over the corpus, and wires the semantic scorer to the store.
func NewRetrievalSession(c *corpus.Corpus, docStore store.DocumentStore, cfg SessionConfig) (*RetrievalSession, error) {
	if err := cfg.Fusion.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Rerank.Validate(); err != nil {
		return nil, err
	}
	if cfg.Rerank.Enabled && cfg.Model == nil {
		return nil, errors.InvalidConfig("reranking enabled but no relevance model configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	lexical, err := NewLexicalScorer(c)
	if err != nil {
		return nil, err
	}
	semantic, err := NewSemanticScorer(c, docStore)
	if err != nil {
		return nil, err
	}

	s := &RetrievalSession{
		corpus:   c,
		lexical:  lexical,
		semantic: semantic,
		fusion:   cfg.Fusion,
		rerank:   cfg.Rerank,
		logger:   cfg.Logger,
	}
	if cfg.Rerank.Enabled {
		s.reranker = NewReranker(cfg.Model, cfg.Rerank.OnError, cfg.Logger)
	}

	s.logger.Info("session_opened",
		slog.Int("passages", c.Len()),
		slog.Float64("alpha", cfg.Fusion.Alpha),
		slog.Int("rrf_constant", cfg.Fusion.K),
		slog.Bool("rerank_enabled", cfg.Rerank.Enabled))

	return s, nil
}

// scoreBoth runs the lexical and semantic scorers concurrently. The
// lexical pass is in-process CPU work while the semantic pass is a store
// round-trip, so fanning out hides the slower of the two.
func (s *RetrievalSession) scoreBoth(ctx context.Context, query string) (lexical, semantic ScoreVector, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexical = s.lexical.Score(query)
		return nil
	})
	g.Go(func() error {
		var serr error
		semantic, serr = s.semantic.Score(gctx, query)
		return serr
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lexical, semantic, nil
}

// shortlist fuses the two score vectors and materializes the top
// passages with their fused scores attached.
func (s *RetrievalSession) shortlist(lexical, semantic ScoreVector, cfg FusionConfig) ([]RankedPassage, error) {
	indices, err := Fuse(lexical, semantic, cfg)
	if err != nil {
		return nil, err
	}
	fused := FusedScores(lexical, semantic, cfg)

	passages := make([]RankedPassage, len(indices))
	for i, idx := range indices {
		passages[i] = RankedPassage{
			Passage:    s.corpus.Passage(idx),
			FusedScore: fused[idx],
			Score:      fused[idx],
		}
	}
	return passages, nil
}

// RetrieveAndRank is the production retrieval call: concurrent scoring,
// weighted RRF, then reranking when enabled. Fusion requests twice the
// final count so the reranker has head-room to reorder.
func (s *RetrievalSession) RetrieveAndRank(ctx context.Context, query string, finalTopK int) ([]RankedPassage, error) {
	if finalTopK <= 0 {
		return nil, errors.InvalidConfig("finalTopK must be positive")
	}

	started := time.Now()

	lexical, semantic, err := s.scoreBoth(ctx, query)
	if err != nil {
		return nil, err
	}

	fusionCfg := s.fusion
	fusionCfg.TopK = 2 * finalTopK

	candidates, err := s.shortlist(lexical, semantic, fusionCfg)
	if err != nil {
		return nil, err
	}

	var results []RankedPassage
	if s.rerank.Enabled {
		results, err = s.reranker.Rerank(ctx, query, candidates, finalTopK)
		if err != nil {
			return nil, err
		}
	} else {
		if finalTopK < len(candidates) {
			candidates = candidates[:finalTopK]
		}
		results = candidates
	}

	s.logger.Debug("retrieve_and_rank",
		slog.String("query", query),
		slog.Int("final_top_k", finalTopK),
		slog.Int("returned", len(results)),
		slog.Duration("elapsed", time.Since(started)))

	return results, nil
}

// Comparison holds the three orderings produced by CompareSearchMethods.
type Comparison struct {
	LexicalOnly    []RankedPassage
	SemanticOnly   []RankedPassage
	HybridReranked []RankedPassage
}

// CompareSearchMethods runs lexical-only, semantic-only, and the full
// hybrid pipeline independently against the same query. The three runs
// share no per-query state, so repeated calls with identical inputs
// return identical results.
func (s *RetrievalSession) CompareSearchMethods(ctx context.Context, query string, topK int) (*Comparison, error) {
	if topK <= 0 {
		return nil, errors.InvalidConfig("topK must be positive")
	}

	singleCfg := s.fusion
	singleCfg.TopK = topK

	lexicalCfg := singleCfg
	lexicalCfg.Alpha = 0
	lexical, err := s.shortlist(s.lexical.Score(query), make(ScoreVector, s.corpus.Len()), lexicalCfg)
	if err != nil {
		return nil, err
	}

	semanticScores, err := s.semantic.Score(ctx, query)
	if err != nil {
		return nil, err
	}
	semanticCfg := singleCfg
	semanticCfg.Alpha = 1
	semantic, err := s.shortlist(make(ScoreVector, s.corpus.Len()), semanticScores, semanticCfg)
	if err != nil {
		return nil, err
	}

	hybrid, err := s.RetrieveAndRank(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		LexicalOnly:    lexical,
		SemanticOnly:   semantic,
		HybridReranked: hybrid,
	}, nil
}
