package retrieval

import (
	"fmt"
	"sort"

	"github.com/rankfuse/rankfuse/internal/errors"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains (used by Azure AI Search,
// OpenSearch, etc.).
const DefaultRRFConstant = 60

// FusionConfig controls weighted Reciprocal Rank Fusion.
type FusionConfig struct {
	// Alpha is the semantic weight in [0,1]; 1-Alpha weights the
	// lexical signal.
	Alpha float64
	// K is the positive rank-damping constant.
	K int
	// TopK is the result count before reranking.
	TopK int
}

// DefaultFusionConfig balances the two signals evenly.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{Alpha: 0.5, K: DefaultRRFConstant, TopK: 10}
}

// Validate rejects out-of-range fusion parameters.
func (c FusionConfig) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return errors.InvalidConfig(fmt.Sprintf("alpha must be in [0,1], got %g", c.Alpha))
	}
	if c.K <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("rrf constant must be positive, got %d", c.K))
	}
	if c.TopK <= 0 {
		return errors.InvalidConfig(fmt.Sprintf("topK must be positive, got %d", c.TopK))
	}
	return nil
}

// ranksFromScores assigns each passage a 0-based rank by descending score.
// Ties break by ascending corpus index so ranking never depends on
// iteration order.
func ranksFromScores(scores ScoreVector) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	ranks := make([]int, len(scores))
	for rank, idx := range order {
		ranks[idx] = rank
	}
	return ranks
}

// Fuse combines the two score vectors with weighted RRF:
//
//	fused[i] = alpha/(k + semanticRank[i]) + (1-alpha)/(k + lexicalRank[i])
//
// It returns passage indices ordered by descending fused score, ties by
// ascending index, truncated to min(cfg.TopK, corpus size). Fusion is
// rank-based so BM25 magnitudes never need calibration against
// similarity magnitudes. If both vectors are entirely zero there is no
// evidence to rank on; the corpus order is returned truncated rather
// than failing.
func Fuse(lexical, semantic ScoreVector, cfg FusionConfig) ([]int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(lexical) != len(semantic) {
		return nil, errors.InvalidConfig(fmt.Sprintf(
			"score vector length mismatch: lexical=%d semantic=%d", len(lexical), len(semantic)))
	}
	if len(lexical) == 0 {
		return nil, errors.CorpusEmpty()
	}

	n := len(lexical)
	limit := cfg.TopK
	if limit > n {
		limit = n
	}

	if lexical.allZero() && semantic.allZero() {
		order := make([]int, limit)
		for i := range order {
			order[i] = i
		}
		return order, nil
	}

	lexRanks := ranksFromScores(lexical)
	semRanks := ranksFromScores(semantic)

	fused := make([]float64, n)
	for i := 0; i < n; i++ {
		fused[i] = cfg.Alpha/float64(cfg.K+semRanks[i]) +
			(1-cfg.Alpha)/float64(cfg.K+lexRanks[i])
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if fused[order[a]] != fused[order[b]] {
			return fused[order[a]] > fused[order[b]]
		}
		return order[a] < order[b]
	})

	return order[:limit], nil
}

// FusedScores exposes the raw fused score per passage for callers that
// need to carry the score forward (the reranker's fallback path).
func FusedScores(lexical, semantic ScoreVector, cfg FusionConfig) []float64 {
	lexRanks := ranksFromScores(lexical)
	semRanks := ranksFromScores(semantic)

	fused := make([]float64, len(lexical))
	for i := range fused {
		fused[i] = cfg.Alpha/float64(cfg.K+semRanks[i]) +
			(1-cfg.Alpha)/float64(cfg.K+lexRanks[i])
	}
	return fused
}
