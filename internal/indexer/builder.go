// Package indexer builds searchable snapshots from image directories:
// discovery, content-key dedup, embedding, and one bulk insert per build.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/gazo/internal/contentid"
	"github.com/hyperjump/gazo/internal/discovery"
	"github.com/hyperjump/gazo/internal/embedding"
	"github.com/hyperjump/gazo/internal/imagefile"
	"github.com/hyperjump/gazo/internal/keyword"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/storage"
	"github.com/hyperjump/gazo/internal/vector"
	"github.com/hyperjump/gazo/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Builder turns root directories into Snapshots. A Builder holds no per-build
// state and may be reused for rebuilds.
type Builder struct {
	embedder  embedding.Embedder
	store     storage.EmbeddingStore
	patterns  []string
	workers   int
	indexType string
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger for build progress and per-file warnings.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPatterns sets the base-name patterns passed to discovery.
func WithPatterns(patterns []string) BuilderOption {
	return func(b *Builder) {
		if len(patterns) > 0 {
			b.patterns = patterns
		}
	}
}

// WithWorkers bounds the number of images decoded and embedded concurrently.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithEmbeddingStore enables the persistent embedding cache.
func WithEmbeddingStore(s storage.EmbeddingStore) BuilderOption {
	return func(b *Builder) { b.store = s }
}

// WithIndexType selects the vector index implementation ("memory" or "faiss").
func WithIndexType(t string) BuilderOption {
	return func(b *Builder) { b.indexType = t }
}

// NewBuilder creates a builder that embeds images with embedder.
func NewBuilder(embedder embedding.Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		embedder: embedder,
		patterns: discovery.DefaultPatterns,
		workers:  defaultWorkers,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Patterns returns the discovery patterns in use.
func (b *Builder) Patterns() []string {
	return b.patterns
}

// candidate groups every discovered path sharing one content key, in discovery order.
type candidate struct {
	key   uint64
	paths []string
}

type failure struct {
	path   string
	reason models.SkipReason
	err    error
}

// outcome is the per-key result of the embedding phase.
type outcome struct {
	path     string
	vector   []float32
	failures []failure
}

// Build scans roots and returns a new snapshot. Per-file problems are logged
// and counted in the report; only ErrNoValidRoot, context cancellation, and
// index construction failures are returned as errors.
func (b *Builder) Build(ctx context.Context, roots []string) (*Snapshot, error) {
	roots, err := ResolveRoots(roots)
	if err != nil {
		return nil, err
	}
	report := &models.BuildReport{
		BuildID:   uuid.NewString(),
		Roots:     roots,
		StartedAt: time.Now(),
	}
	log := b.logger.With(zap.String("build_id", report.BuildID))
	log.Info("indexing images", zap.Strings("roots", roots), zap.Strings("patterns", b.patterns))

	candidates, err := b.scan(ctx, roots, report, log)
	if err != nil {
		return nil, err
	}
	outcomes, err := b.embedAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	var (
		keys    []uint64
		vectors [][]float32
		records []models.ImageRecord
	)
	paths := make(map[uint64]string, len(candidates))
	for i, c := range candidates {
		out := outcomes[i]
		for _, f := range out.failures {
			report.Failed++
			log.Warn("failed to process image",
				zap.String("path", f.path), zap.String("reason", string(f.reason)), zap.Error(f.err))
		}
		attempted := len(out.failures)
		if out.vector != nil {
			attempted++
		}
		report.Duplicates += len(c.paths) - attempted
		if out.vector == nil {
			continue
		}
		if report.Dimensions == 0 {
			report.Dimensions = len(out.vector)
		}
		if len(out.vector) != report.Dimensions {
			report.Failed++
			log.Warn("failed to process image",
				zap.String("path", out.path), zap.String("reason", string(models.SkipDimension)),
				zap.Int("dimensions", len(out.vector)), zap.Int("expected", report.Dimensions))
			continue
		}
		keys = append(keys, c.key)
		vectors = append(vectors, out.vector)
		records = append(records, models.ImageRecord{Key: c.key, Path: out.path})
		paths[c.key] = out.path
	}

	snap := &Snapshot{Roots: roots, Report: report, paths: paths, records: records}
	if snap.Filenames, err = keyword.NewFilenameIndex(); err != nil {
		return nil, err
	}
	if err := snap.Filenames.IndexRecords(ctx, records); err != nil {
		_ = snap.Close()
		return nil, fmt.Errorf("index filenames: %w", err)
	}
	if len(keys) > 0 {
		idx, err := vector.NewVectorIndex(b.indexType, report.Dimensions)
		if err != nil {
			_ = snap.Close()
			return nil, fmt.Errorf("create vector index: %w", err)
		}
		snap.Index = idx
		if err := idx.Add(ctx, keys, vectors); err != nil {
			_ = snap.Close()
			return nil, fmt.Errorf("insert vectors: %w", err)
		}
	}

	report.Indexed = len(keys)
	report.Duration = time.Since(report.StartedAt)
	if report.Indexed == 0 {
		log.Warn("no images indexed; check image directories and patterns",
			zap.Int("discovered", report.Discovered))
	} else {
		log.Info("indexed images",
			zap.Int("indexed", report.Indexed),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
			zap.Int("dimensions", report.Dimensions),
			zap.Duration("duration", report.Duration))
	}
	return snap, nil
}

// scan walks the roots and groups paths by content key. Only the first path
// of a key is embedded unless it fails.
func (b *Builder) scan(ctx context.Context, roots []string, report *models.BuildReport, log *zap.Logger) ([]*candidate, error) {
	var candidates []*candidate
	byKey := make(map[uint64]*candidate)
	for path := range discovery.Walk(roots, b.patterns) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Discovered++

		if reason, err := checkFile(path); reason != models.SkipNone {
			if reason == models.SkipUnreadable {
				report.Failed++
				log.Warn("failed to stat image", zap.String("path", path), zap.Error(err))
			} else {
				report.Skipped++
				log.Debug("skipping file", zap.String("path", path), zap.String("reason", string(reason)))
			}
			continue
		}

		key, err := contentid.FromFile(path)
		if err != nil {
			report.Failed++
			log.Warn("failed to hash image", zap.String("path", path), zap.Error(err))
			continue
		}
		if c, ok := byKey[key]; ok {
			if !containsPath(c.paths, path) {
				log.Debug("duplicate content", zap.String("path", path), zap.String("first", c.paths[0]))
			}
			c.paths = append(c.paths, path)
			continue
		}
		c := &candidate{key: key, paths: []string{path}}
		byKey[key] = c
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// checkFile rejects zero-length and non-regular files. Broken symlinks count as non-regular.
func checkFile(path string) (models.SkipReason, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.SkipNotRegular, err
	}
	if err != nil {
		return models.SkipUnreadable, err
	}
	if !info.Mode().IsRegular() {
		return models.SkipNotRegular, nil
	}
	if info.Size() <= 0 {
		return models.SkipEmpty, nil
	}
	return models.SkipNone, nil
}

func containsPath(paths []string, p string) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}

// embedAll embeds each candidate on up to b.workers goroutines. Outcomes are
// indexed like candidates so assembly order does not depend on scheduling.
func (b *Builder) embedAll(ctx context.Context, candidates []*candidate) ([]outcome, error) {
	outcomes := make([]outcome, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, c := range candidates {
		g.Go(func() error {
			outcomes[i] = b.embedCandidate(gctx, c)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// embedCandidate tries the candidate's paths in discovery order until one succeeds.
func (b *Builder) embedCandidate(ctx context.Context, c *candidate) outcome {
	var out outcome
	tried := make(map[string]struct{}, len(c.paths))
	for _, path := range c.paths {
		if _, ok := tried[path]; ok {
			continue
		}
		tried[path] = struct{}{}
		vec, reason, err := b.embedPath(ctx, c.key, path)
		if err != nil {
			out.failures = append(out.failures, failure{path: path, reason: reason, err: err})
			if ctx.Err() != nil {
				return out
			}
			continue
		}
		out.path = path
		out.vector = vec
		return out
	}
	return out
}

func (b *Builder) embedPath(ctx context.Context, key uint64, path string) ([]float32, models.SkipReason, error) {
	model := b.embedder.Model()
	if b.store != nil {
		vec, err := b.store.Get(ctx, model, key)
		if err == nil && b.fitsModel(vec) {
			return vec, models.SkipNone, nil
		}
		if err == nil {
			b.logger.Debug("cached embedding has stale dimensions, re-embedding",
				zap.Uint64("key", key), zap.Int("cached", len(vec)), zap.Int("expected", b.embedder.Dimensions()))
		} else if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Debug("embedding cache read failed", zap.Uint64("key", key), zap.Error(err))
		}
	}

	img, _, err := imagefile.Load(path)
	if err != nil {
		return nil, models.SkipDecode, err
	}
	raw, err := b.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, models.SkipEmbed, err
	}
	if len(raw) == 0 {
		return nil, models.SkipEmbed, errors.New("embedder returned an empty vector")
	}
	vec := make([]float32, len(raw))
	copy(vec, raw)
	utils.NormalizeL2(vec)

	if b.store != nil {
		if err := b.store.Put(ctx, model, key, vec); err != nil {
			b.logger.Debug("embedding cache write failed", zap.Uint64("key", key), zap.Error(err))
		}
	}
	return vec, models.SkipNone, nil
}

// fitsModel reports whether a cached vector has the embedder's current size.
// Embedders that report no fixed size accept any cached vector.
func (b *Builder) fitsModel(vec []float32) bool {
	dims := b.embedder.Dimensions()
	return dims <= 0 || len(vec) == dims
}

// Embedder returns the embedder used for image vectors. Queries against a
// snapshot must be embedded with the same model.
func (b *Builder) Embedder() embedding.Embedder {
	return b.embedder
}
