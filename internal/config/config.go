// Package config provides configuration loading and structs for the Gazo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvImageDir       = "IMAGE_DIR"
	EnvTextThreshold  = "TEXT_SIMILARITY_THRESHOLD"
	EnvImageThreshold = "IMAGE_SIMILARITY_THRESHOLD"
	imageDirSeparator = ","
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Images    ImagesConfig    `yaml:"images"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Storage   StorageConfig   `yaml:"storage"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// SearchRateLimit is requests per second across the search routes; 0 disables limiting.
	SearchRateLimit float64 `yaml:"search_rate_limit"`
	SearchBurst     int     `yaml:"search_burst"`
}

// ImagesConfig selects which files are indexed.
type ImagesConfig struct {
	Directories []string `yaml:"directories"`
	Patterns    []string `yaml:"patterns"`
	Workers     int      `yaml:"workers"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "onnx" or "mock"
	ImageModelPath string `yaml:"image_model_path"`
	TextModelPath  string `yaml:"text_model_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
}

// VectorConfig selects the vector index implementation.
type VectorConfig struct {
	IndexType string `yaml:"index_type"` // "memory" or "faiss"
}

// StorageConfig holds on-disk paths. An empty EmbeddingCachePath disables the embedding cache.
type StorageConfig struct {
	EmbeddingCachePath string `yaml:"embedding_cache_path"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	DefaultCount   int     `yaml:"default_count"`
	TextThreshold  float64 `yaml:"text_threshold"`
	ImageThreshold float64 `yaml:"image_threshold"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Default returns a config with every default applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	for i := range cfg.Images.Directories {
		cfg.Images.Directories[i] = expandPath(cfg.Images.Directories[i], configDir)
	}
	cfg.Embedding.ImageModelPath = expandPath(cfg.Embedding.ImageModelPath, configDir)
	cfg.Embedding.TextModelPath = expandPath(cfg.Embedding.TextModelPath, configDir)
	cfg.Storage.EmbeddingCachePath = expandPath(cfg.Storage.EmbeddingCachePath, configDir)

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyEnv overrides cfg from environment variables. IMAGE_DIR is a comma
// separated list; blank entries are dropped and a value with no entries is
// ignored. Threshold variables must parse as floats.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvImageDir); v != "" {
		if dirs := SplitDirs(v); len(dirs) > 0 {
			cfg.Images.Directories = dirs
		}
	}
	if v := getenv(EnvTextThreshold); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTextThreshold, v, err)
		}
		cfg.Search.TextThreshold = f
	}
	if v := getenv(EnvImageThreshold); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvImageThreshold, v, err)
		}
		cfg.Search.ImageThreshold = f
	}
	return nil
}

// SplitDirs splits a comma separated directory list, trimming blanks.
func SplitDirs(s string) []string {
	var dirs []string
	for _, d := range strings.Split(s, imageDirSeparator) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		path = path[2:]
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
