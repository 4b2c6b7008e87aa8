// Package vector stores keyed embeddings and answers nearest-neighbor queries
// under cosine distance.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorIndex defines keyed vector storage and k-nearest-neighbor search.
// Add is a bulk insert; there is no removal.
type VectorIndex interface {
	Add(ctx context.Context, keys []uint64, vectors [][]float32) error
	// Search returns at most k matches ordered by ascending distance.
	Search(ctx context.Context, query []float32, k int) ([]Match, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Match is a single nearest-neighbor hit.
type Match struct {
	Key      uint64
	Distance float32 // cosine distance, 1 - cos(query, vector)
}
