//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/hyperjump/gazo/pkg/utils"
)

// FAISSIndex is a vector index backed by a FAISS IndexFlatIP. Vectors are
// L2-normalized on the way in so inner product equals cosine similarity, and
// reported distances are 1 - inner product.
type FAISSIndex struct {
	index      *C.FaissIndexFlatIP
	dimensions int
	labels     []uint64 // FAISS sequential label -> content key
	mu         sync.RWMutex
}

// NewFAISSIndex creates a FAISS index with the given dimension using inner product.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	var index *C.FaissIndexFlatIP
	ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(dimensions))
	if ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}
	return &FAISSIndex{index: index, dimensions: dimensions}, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Add appends vectors with the given keys in one FAISS call.
func (f *FAISSIndex) Add(ctx context.Context, keys []uint64, vectors [][]float32) error {
	if len(keys) != len(vectors) {
		return fmt.Errorf("keys and vectors length mismatch")
	}
	if len(keys) == 0 {
		return nil
	}

	n := len(vectors)
	flat := make([]float32, n*f.dimensions)
	for i, vec := range vectors {
		if len(vec) != f.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(vec), f.dimensions)
		}
		row := flat[i*f.dimensions : (i+1)*f.dimensions]
		copy(row, vec)
		utils.NormalizeL2(row)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ret := C.faiss_Index_add(f.index, C.idx_t(n), (*C.float)(unsafe.Pointer(&flat[0])))
	if ret != 0 {
		return fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}
	f.labels = append(f.labels, keys...)
	return nil
}

// Search returns the k nearest vectors ordered by ascending cosine distance.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.labels) == 0 {
		return nil, nil
	}
	if k > len(f.labels) {
		k = len(f.labels)
	}

	q := make([]float32, f.dimensions)
	copy(q, query)
	utils.NormalizeL2(q)
	similarities := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&q[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&similarities[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	matches := make([]Match, 0, k)
	for i, label := range labels {
		if label < 0 || int(label) >= len(f.labels) {
			continue
		}
		matches = append(matches, Match{Key: f.labels[label], Distance: 1 - similarities[i]})
	}
	return matches, nil
}

// Size returns the number of vectors in the index.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.labels)
}

// Dimensions returns the vector length accepted by the index.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
