package retrieval

import (
	"math"

	"github.com/rankfuse/rankfuse/internal/corpus"
	"github.com/rankfuse/rankfuse/internal/errors"
)

// BM25 parameters. K1 controls term-frequency saturation, B controls
// document-length normalization. Defaults follow the Okapi literature.
const (
	BM25K1 = 1.2
	BM25B  = 0.75
)

// ScoreVector holds one relevance score per corpus passage, aligned to
// the corpus's passage ordering. All vectors produced for a query share
// the same length and index alignment.
type ScoreVector []float64

// allZero reports whether every score in the vector is zero.
func (v ScoreVector) allZero() bool {
	for _, s := range v {
		if s != 0 {
			return false
		}
	}
	return true
}

// LexicalScorer scores queries against a frozen corpus with BM25.
// The term-frequency and document-frequency statistics are built once at
// construction and are read-only afterward, so a single scorer is safe
// for concurrent queries.
type LexicalScorer struct {
	corpus    *corpus.Corpus
	termFreq  []map[string]int // per-passage term counts
	docFreq   map[string]int   // number of passages containing each term
	docLen    []int            // token count per passage
	avgDocLen float64
}

// NewLexicalScorer tokenizes every passage and builds the BM25 index.
// An empty corpus is rejected since scoring against it is ill-defined.
func NewLexicalScorer(c *corpus.Corpus) (*LexicalScorer, error) {
	if c == nil || c.Len() == 0 {
		return nil, errors.CorpusEmpty()
	}

	n := c.Len()
	s := &LexicalScorer{
		corpus:   c,
		termFreq: make([]map[string]int, n),
		docFreq:  make(map[string]int),
		docLen:   make([]int, n),
	}

	totalTokens := 0
	for i := 0; i < n; i++ {
		tokens := Tokenize(c.Passage(i).Content)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for term := range freq {
			s.docFreq[term]++
		}
		s.termFreq[i] = freq
		s.docLen[i] = len(tokens)
		totalTokens += len(tokens)
	}
	s.avgDocLen = float64(totalTokens) / float64(n)

	return s, nil
}

// Score computes a BM25 score for every corpus passage. Queries that
// produce no tokens yield an all-zero vector rather than an error;
// downstream fusion treats a zero vector as absent lexical evidence.
func (s *LexicalScorer) Score(query string) ScoreVector {
	scores := make(ScoreVector, s.corpus.Len())

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return scores
	}

	n := float64(s.corpus.Len())
	for _, term := range queryTokens {
		df, ok := s.docFreq[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		for i := range scores {
			tf := float64(s.termFreq[i][term])
			if tf == 0 {
				continue
			}
			lenNorm := 1 - BM25B + BM25B*float64(s.docLen[i])/s.avgDocLen
			scores[i] += idf * tf * (BM25K1 + 1) / (tf + BM25K1*lenNorm)
		}
	}

	return scores
}
