package config

import "github.com/hyperjump/gazo/internal/discovery"

// ApplyDefaults sets default values for any zero values in cfg.
// Thresholds are only defaulted when zero, so an explicit 0 in YAML behaves like unset;
// set a negative threshold to disable filtering.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SearchRateLimit > 0 && cfg.Server.SearchBurst == 0 {
		cfg.Server.SearchBurst = int(cfg.Server.SearchRateLimit) + 1
	}
	if len(cfg.Images.Directories) == 0 {
		cfg.Images.Directories = []string{"./data"}
	}
	if len(cfg.Images.Patterns) == 0 {
		cfg.Images.Patterns = append([]string(nil), discovery.DefaultPatterns...)
	}
	if cfg.Images.Workers == 0 {
		cfg.Images.Workers = 4
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ImageModelPath == "" {
		cfg.Embedding.ImageModelPath = "/usr/local/var/gazo/models/clip-image.onnx"
	}
	if cfg.Embedding.TextModelPath == "" {
		cfg.Embedding.TextModelPath = "/usr/local/var/gazo/models/clip-text.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Search.DefaultCount == 0 {
		cfg.Search.DefaultCount = 24
	}
	if cfg.Search.TextThreshold == 0 {
		cfg.Search.TextThreshold = 0.15
	}
	if cfg.Search.ImageThreshold == 0 {
		cfg.Search.ImageThreshold = 0.85
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 2000
	}
}
