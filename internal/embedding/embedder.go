// Package embedding turns images and text into vectors in a shared space.
package embedding

import (
	"context"
	"image"
)

// Modality selects the encoder used for an input.
type Modality string

const (
	ModalityImage Modality = "image"
	ModalityText  Modality = "text"
)

// Embedder produces vector embeddings for images and text queries.
// Vectors from both modalities are comparable with cosine distance.
type Embedder interface {
	EmbedImage(ctx context.Context, img image.Image) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	// Model identifies the weights; embeddings from different models are never mixed.
	Model() string
	Close() error
}
