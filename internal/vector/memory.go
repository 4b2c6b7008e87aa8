package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/vec/search"
)

// MemoryIndex is an exact nearest-neighbor index using brute-force cosine distance.
// Vector magnitudes are computed once on insert.
type MemoryIndex struct {
	dimensions int
	keys       []uint64
	vectors    []search.Float32s
	magnitudes []float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Dimensions returns the vector length accepted by the index.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add appends vectors with the given keys. Either all vectors are added or none.
func (m *MemoryIndex) Add(ctx context.Context, keys []uint64, vectors [][]float32) error {
	if len(keys) != len(vectors) {
		return fmt.Errorf("keys and vectors length mismatch")
	}
	for i, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, key := range keys {
		vec := make(search.Float32s, m.dimensions)
		copy(vec, vectors[i])
		m.keys = append(m.keys, key)
		m.vectors = append(m.vectors, vec)
		m.magnitudes = append(m.magnitudes, vec.Magnitude())
	}
	return nil
}

// Search returns the k nearest vectors by cosine distance. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.keys) == 0 {
		return nil, nil
	}
	q := search.Float32s(query)
	qm := q.Magnitude()
	matches := make([]Match, len(m.keys))
	for i, vec := range m.vectors {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		matches[i] = Match{Key: m.keys[i], Distance: cosineDistance(q, vec, qm, m.magnitudes[i])}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k:k], nil
}

// cosineDistance treats a zero vector as orthogonal to everything. The cached
// magnitudes only short-circuit zero vectors; CosineDistance is the variant
// viant/vec exports on every architecture.
func cosineDistance(a, b search.Float32s, ma, mb float32) float32 {
	if ma == 0 || mb == 0 {
		return 1
	}
	return a.CosineDistance(b)
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
