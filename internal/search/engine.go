// Package search answers text, image, and filename queries against the
// current index snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/gazo/internal/embedding"
	"github.com/hyperjump/gazo/internal/imagefile"
	"github.com/hyperjump/gazo/internal/indexer"
	"github.com/hyperjump/gazo/internal/keyword"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/ranking"
	"github.com/hyperjump/gazo/pkg/utils"
	"go.uber.org/zap"
)

// DefaultCount is the number of nearest neighbors requested when count <= 0.
const DefaultCount = 24

// ErrImageNotFound is returned when a key does not resolve to a readable indexed file.
var ErrImageNotFound = errors.New("image not found")

// ErrRebuildUnsupported is returned by Rebuild on an engine created without a builder.
var ErrRebuildUnsupported = errors.New("engine has no builder")

// Engine runs nearest-neighbor search over an immutable snapshot. Rebuild
// replaces the snapshot atomically; searches already running keep the one
// they started with, and it is closed when the last of them returns.
type Engine struct {
	embedder     embedding.Embedder
	ranker       *ranking.Ranker
	builder      *indexer.Builder
	dirs         []string
	snapshot     atomic.Pointer[indexer.Snapshot]
	defaultCount int
	logger       *zap.Logger
	rebuildMu    sync.Mutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDefaultCount overrides DefaultCount.
func WithDefaultCount(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.defaultCount = n
		}
	}
}

// WithRankingConfig overrides the filename ranking weights.
func WithRankingConfig(cfg *ranking.Config) EngineOption {
	return func(e *Engine) {
		e.ranker = ranking.NewRanker(cfg)
	}
}

// NewEngine creates an engine over snap. Queries are embedded with embedder,
// which must be the model the snapshot was built with. snap may be nil.
func NewEngine(embedder embedding.Embedder, snap *indexer.Snapshot, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:     embedder,
		ranker:       ranking.NewRanker(nil),
		defaultCount: DefaultCount,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.snapshot.Store(snap)
	return e
}

// Open builds the initial snapshot from dirs and returns an engine that can
// later Rebuild from the same dirs. It fails with indexer.ErrNoValidRoot
// before any scanning when none of dirs is an existing directory.
func Open(ctx context.Context, builder *indexer.Builder, dirs []string, opts ...EngineOption) (*Engine, error) {
	snap, err := builder.Build(ctx, dirs)
	if err != nil {
		return nil, err
	}
	e := NewEngine(builder.Embedder(), snap, opts...)
	e.builder = builder
	e.dirs = append([]string(nil), dirs...)
	return e, nil
}

// Rebuild scans the directories again and swaps in the new snapshot. On error
// the current snapshot stays in place.
func (e *Engine) Rebuild(ctx context.Context) (*models.BuildReport, error) {
	if e.builder == nil {
		return nil, ErrRebuildUnsupported
	}
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	snap, err := e.builder.Build(ctx, e.dirs)
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	if err := e.snapshot.Swap(snap).Retire(); err != nil {
		e.logger.Debug("closing retired snapshot", zap.Error(err))
	}
	return snap.Report, nil
}

// acquire returns the current snapshot pinned against retirement, or nil.
// Callers must Release it.
func (e *Engine) acquire() *indexer.Snapshot {
	for {
		snap := e.snapshot.Load()
		if snap == nil || snap.Acquire() {
			return snap
		}
	}
}

// SearchByText returns images nearest to the text query. An empty or
// whitespace-only query returns no results.
func (e *Engine) SearchByText(ctx context.Context, query string, count int, threshold float64) ([]*models.SearchResult, error) {
	snap := e.acquire()
	defer snap.Release()
	if snap.Size() == 0 || strings.TrimSpace(query) == "" {
		return []*models.SearchResult{}, nil
	}
	vec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return e.nearest(ctx, snap, vec, count, threshold)
}

// SearchByImage returns images nearest to img.
func (e *Engine) SearchByImage(ctx context.Context, img image.Image, count int, threshold float64) ([]*models.SearchResult, error) {
	snap := e.acquire()
	defer snap.Release()
	if snap.Size() == 0 {
		return []*models.SearchResult{}, nil
	}
	vec, err := e.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	return e.nearest(ctx, snap, vec, count, threshold)
}

// SearchByKey uses the indexed file for key as the reference image. It returns
// ErrImageNotFound when the key is unknown or its file no longer exists.
func (e *Engine) SearchByKey(ctx context.Context, key uint64, count int, threshold float64) ([]*models.SearchResult, error) {
	path, ok := e.ResolvePath(key)
	if !ok {
		return nil, ErrImageNotFound
	}
	img, _, err := imagefile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return e.SearchByImage(ctx, img, count, threshold)
}

// SearchByFilename matches query words against file and folder names. Hits
// are re-ranked by how well the name and folder path match, and scores are
// relative to the best hit, so the top result always scores 1.
func (e *Engine) SearchByFilename(ctx context.Context, query string, count int, fuzzy bool) ([]*models.SearchResult, error) {
	snap := e.acquire()
	defer snap.Release()
	if snap.Size() == 0 || snap.Filenames == nil || strings.TrimSpace(query) == "" {
		return []*models.SearchResult{}, nil
	}
	limit := e.count(count)
	hits, err := snap.Filenames.Search(ctx, query, limit*candidateFactor, &keyword.SearchOptions{FuzzyEnabled: fuzzy})
	if err != nil {
		return nil, err
	}
	candidates := make([]ranking.Candidate, 0, len(hits))
	for _, h := range hits {
		path, ok := snap.Path(h.Key)
		if !ok {
			continue
		}
		candidates = append(candidates, ranking.Candidate{
			Key:       h.Key,
			Path:      path,
			Root:      rootOf(path, snap.Roots),
			BaseScore: h.Score,
		})
	}
	candidates = e.ranker.Rank(query, candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]*models.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score := 1.0
		if top := candidates[0].Score; top > 0 {
			score = c.Score / top
		}
		results = append(results, newResult(c.Key, c.Path, score))
	}
	return results, nil
}

// candidateFactor widens the filename retrieval so re-ranking can promote
// hits that the text index scored lower.
const candidateFactor = 4

// rootOf returns the longest root containing path, or "".
func rootOf(path string, roots []string) string {
	best := ""
	for _, r := range roots {
		rel, err := filepath.Rel(r, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(r) > len(best) {
			best = r
		}
	}
	return best
}

func (e *Engine) nearest(ctx context.Context, snap *indexer.Snapshot, vec []float32, count int, threshold float64) ([]*models.SearchResult, error) {
	start := time.Now()
	matches, err := snap.Index.Search(ctx, vec, e.count(count))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	results := make([]*models.SearchResult, 0, len(matches))
	for _, m := range matches {
		path, ok := snap.Path(m.Key)
		if !ok {
			continue
		}
		score := 1 - float64(m.Distance)
		if score < threshold {
			continue
		}
		results = append(results, newResult(m.Key, path, score))
	}
	e.logger.Debug("search completed",
		zap.Int("matches", len(matches)),
		zap.Int("results", len(results)),
		zap.Float64("threshold", threshold),
		zap.Duration("took", time.Since(start)))
	return results, nil
}

func newResult(key uint64, path string, score float64) *models.SearchResult {
	return &models.SearchResult{
		URL:      models.ImageURL(key),
		Filename: filepath.Base(path),
		Score:    utils.Clamp01(score),
		Key:      key,
	}
}

func (e *Engine) count(n int) int {
	if n <= 0 {
		return e.defaultCount
	}
	return n
}

// ResolvePath returns the file indexed under key.
func (e *Engine) ResolvePath(key uint64) (string, bool) {
	return e.snapshot.Load().Path(key)
}

// Roots returns the directories of the current snapshot.
func (e *Engine) Roots() []string {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil
	}
	return append([]string(nil), snap.Roots...)
}

// Size returns the number of indexed images.
func (e *Engine) Size() int {
	snap := e.acquire()
	defer snap.Release()
	return snap.Size()
}

// IndexType returns the vector index type, or "" when nothing is indexed.
func (e *Engine) IndexType() string {
	snap := e.acquire()
	defer snap.Release()
	if snap == nil || snap.Index == nil {
		return ""
	}
	return snap.Index.Type()
}

// Model names the embedding model used for queries.
func (e *Engine) Model() string {
	return e.embedder.Model()
}

// Report returns the build report of the current snapshot.
func (e *Engine) Report() *models.BuildReport {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.Report
}

// Close retires the current snapshot; searches still running finish first.
func (e *Engine) Close() error {
	return e.snapshot.Swap(nil).Retire()
}
