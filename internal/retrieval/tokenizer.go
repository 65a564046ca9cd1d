// Package retrieval implements hybrid lexical/semantic retrieval with
// Reciprocal Rank Fusion (RRF) and optional cross-encoder reranking.
package retrieval

import (
	"regexp"
	"strings"
)

// tokenRegex matches alphanumeric runs; everything else is a separator.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Tokenize splits text into lowercased alphanumeric tokens.
// Untokenizable input (empty, punctuation-only) yields an empty slice.
func Tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, strings.ToLower(w))
	}
	return tokens
}
