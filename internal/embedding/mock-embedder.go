package embedding

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/hyperjump/gazo/pkg/utils"
)

const mockThumbSize = 8

// MockEmbedder is a deterministic embedder for tests and for builds without ONNX.
// Image vectors are projected from an 8x8 RGB thumbnail, so images with identical
// pixels always get identical vectors. Text vectors are derived from a string hash.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &MockEmbedder{dimensions: dimensions}
}

// EmbedImage returns a deterministic embedding based on the image's pixels.
func (e *MockEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	thumb := Thumbnail(img, mockThumbSize, mockThumbSize)
	features := make([]float64, 0, mockThumbSize*mockThumbSize*3)
	for y := 0; y < mockThumbSize; y++ {
		for x := 0; x < mockThumbSize; x++ {
			off := thumb.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				features = append(features, float64(thumb.Pix[off+c])/255-0.5)
			}
		}
	}
	// fixed pseudo-random projection down to the embedding size
	emb := make([]float32, e.dimensions)
	for j := range emb {
		sum := 0.01
		for i, f := range features {
			sum += f * math.Sin(float64((i+1)*(j+7)))
		}
		emb[j] = float32(sum)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedText returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns "mock-<dimensions>", so vectors of different sizes never
// share an embedding cache entry.
func (e *MockEmbedder) Model() string {
	return fmt.Sprintf("mock-%d", e.dimensions)
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
