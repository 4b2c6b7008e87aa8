package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/gazo/internal/config"
	"github.com/hyperjump/gazo/internal/embedding"
	"github.com/hyperjump/gazo/internal/indexer"
	"github.com/hyperjump/gazo/internal/search"
	"github.com/hyperjump/gazo/internal/storage"
	"github.com/hyperjump/gazo/internal/vector"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Store    *storage.SQLiteStore
	Embedder embedding.Embedder
	Builder  *indexer.Builder
	Engine   *search.Engine
}

// Close releases the engine, embedder, and embedding store.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory; when neither exists the built-in defaults
// are used. Environment overrides are applied last.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	cfg, resolved, err := readConfig(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func readConfig(path string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	candidates := []string{defaultConfigPath}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append([]string{filepath.Join(cwd, "config.yaml")}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			cfg, err := config.Load(p)
			return cfg, p, err
		}
	}
	return config.Default(), "", nil
}

// ensureDirectories creates missing image directories so a fresh install
// starts with an empty index instead of failing.
func ensureDirectories(dirs []string, logger *zap.Logger) {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			logger.Warn("could not create image directory", zap.String("path", d), zap.Error(err))
		}
	}
}

func newEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	var emb embedding.Embedder
	switch cfg.Provider {
	case "mock":
		emb = embedding.NewMockEmbedder(cfg.Dimensions)
	case "onnx":
		onnx, err := embedding.NewONNXEmbedder(embedding.ONNXConfig{
			ImageModelPath: cfg.ImageModelPath,
			TextModelPath:  cfg.TextModelPath,
			Dimensions:     cfg.Dimensions,
			MaxTokens:      cfg.MaxTokens,
		})
		if err != nil {
			logger.Warn("ONNX embedder unavailable, falling back to mock embeddings",
				zap.String("image_model", cfg.ImageModelPath), zap.Error(err))
			emb = embedding.NewMockEmbedder(cfg.Dimensions)
		} else {
			emb = onnx
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	cached, err := embedding.NewCachedEmbedder(emb, cfg.CacheSize)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return cached, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	ensureDirectories(cfg.Images.Directories, logger)

	c := &Components{}
	emb, err := newEmbedder(&cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	c.Embedder = emb

	opts := []indexer.BuilderOption{
		indexer.WithLogger(logger),
		indexer.WithPatterns(cfg.Images.Patterns),
		indexer.WithWorkers(cfg.Images.Workers),
	}
	if cfg.Storage.EmbeddingCachePath != "" {
		store, err := storage.NewSQLiteStore(cfg.Storage.EmbeddingCachePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize embedding store: %w", err)
		}
		c.Store = store
		opts = append(opts, indexer.WithEmbeddingStore(store))
	}

	indexType := cfg.Vector.IndexType
	if indexType == "faiss" && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS not available in this build, falling back to memory index")
		indexType = "memory"
	}
	opts = append(opts, indexer.WithIndexType(indexType))
	logger.Info("vector index configured",
		zap.String("type", indexType),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()))

	c.Builder = indexer.NewBuilder(emb, opts...)
	c.Engine, err = search.Open(ctx, c.Builder, cfg.Images.Directories,
		search.WithLogger(logger),
		search.WithDefaultCount(cfg.Search.DefaultCount))
	if err != nil {
		c.Close()
		if errors.Is(err, indexer.ErrNoValidRoot) {
			return nil, fmt.Errorf("%w: %v", err, cfg.Images.Directories)
		}
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return c, nil
}
