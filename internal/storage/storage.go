// Package storage persists image embeddings so rebuilds can skip re-encoding
// unchanged content.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no embedding is cached for the key.
var ErrNotFound = errors.New("embedding not found")

// EmbeddingStore caches image embeddings by (model, content key).
// Only embeddings are stored; the vector index is always rebuilt in memory.
type EmbeddingStore interface {
	Get(ctx context.Context, model string, key uint64) ([]float32, error)
	Put(ctx context.Context, model string, key uint64, vector []float32) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
