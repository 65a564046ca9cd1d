// Package store provides nearest-neighbor retrieval over a frozen corpus.
package store

import "context"

// Neighbor is a single nearest-neighbor hit. PassageID identifies the
// passage in the source corpus; Distance is the raw metric distance
// reported by the underlying index (smaller is closer).
type Neighbor struct {
	PassageID int
	Content   string
	Distance  float64
}

// DocumentStore retrieves the passages most similar to a natural-language
// query. Implementations must return neighbors ordered by ascending
// distance and must carry stable passage IDs so callers can align results
// against the corpus they were built from.
type DocumentStore interface {
	NearestNeighbors(ctx context.Context, query string, count int) ([]Neighbor, error)
}
