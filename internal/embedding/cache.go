package embedding

import (
	"context"
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder and memoizes text query embeddings.
// Image embeddings are not cached here; the index builder persists those by content key.
type CachedEmbedder struct {
	Embedder
	text *lru.Cache[string, []float32]
}

// NewCachedEmbedder caches up to size text embeddings. A size <= 0 disables caching
// and returns inner unchanged.
func NewCachedEmbedder(inner Embedder, size int) (Embedder, error) {
	if size <= 0 {
		return inner, nil
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{Embedder: inner, text: c}, nil
}

// EmbedText returns the cached embedding for text, computing it on a miss.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.text.Get(text); ok {
		return v, nil
	}
	v, err := c.Embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.text.Add(text, v)
	return v, nil
}

// EmbedImage delegates to the wrapped embedder.
func (c *CachedEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	return c.Embedder.EmbedImage(ctx, img)
}

// Len returns the number of cached text embeddings.
func (c *CachedEmbedder) Len() int {
	return c.text.Len()
}
