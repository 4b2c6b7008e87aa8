package indexer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/gazo/internal/keyword"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/vector"
)

// Snapshot is the immutable result of one build: the vector index, the
// key->path map, and the filename index, always populated from the same set
// of records. Index is nil when nothing was indexed.
type Snapshot struct {
	Roots     []string
	Index     vector.VectorIndex
	Filenames *keyword.FilenameIndex
	Report    *models.BuildReport

	paths   map[uint64]string
	records []models.ImageRecord

	refs      atomic.Int64
	retired   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Size returns the number of indexed images.
func (s *Snapshot) Size() int {
	if s == nil || s.Index == nil {
		return 0
	}
	return s.Index.Size()
}

// Path resolves a content key to the file it was indexed from.
func (s *Snapshot) Path(key uint64) (string, bool) {
	if s == nil {
		return "", false
	}
	p, ok := s.paths[key]
	return p, ok
}

// Records returns the indexed records in insertion order.
func (s *Snapshot) Records() []models.ImageRecord {
	if s == nil {
		return nil
	}
	out := make([]models.ImageRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Acquire pins the snapshot for the duration of a search. It returns false
// once the snapshot is retired; callers then load the current one again.
func (s *Snapshot) Acquire() bool {
	s.refs.Add(1)
	if s.retired.Load() {
		s.Release()
		return false
	}
	return true
}

// Release unpins a snapshot pinned by Acquire. The last release of a
// retired snapshot closes it.
func (s *Snapshot) Release() {
	if s == nil {
		return
	}
	if s.refs.Add(-1) == 0 && s.retired.Load() {
		_ = s.Close()
	}
}

// Retire marks the snapshot as replaced. It is closed now if no search holds
// it, otherwise by the last Release.
func (s *Snapshot) Retire() error {
	if s == nil {
		return nil
	}
	s.retired.Store(true)
	if s.refs.Load() == 0 {
		return s.Close()
	}
	return nil
}

// Close releases the vector and filename indices. Only the first call
// has an effect.
func (s *Snapshot) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() { s.closeErr = s.close() })
	return s.closeErr
}

func (s *Snapshot) close() error {
	var errs []error
	if s.Index != nil {
		errs = append(errs, s.Index.Close())
	}
	if s.Filenames != nil {
		errs = append(errs, s.Filenames.Close())
	}
	return errors.Join(errs...)
}
