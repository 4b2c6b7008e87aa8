package embedding

import (
	"context"
	"image"
	"testing"
)

func BenchmarkMockEmbedder_EmbedText(b *testing.B) {
	e := NewMockEmbedder(512)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EmbedText(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkMockEmbedder_EmbedImage(b *testing.B) {
	e := NewMockEmbedder(512)
	img := image.NewRGBA(image.Rect(0, 0, 224, 224))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.EmbedImage(ctx, img)
	}
}
