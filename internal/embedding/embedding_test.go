package embedding

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestMockEmbedder_imageDeterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	red := color.RGBA{R: 255, A: 255}

	a, err := e.EmbedImage(ctx, solid(red, 32, 32))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.EmbedImage(ctx, solid(red, 32, 32))
	if len(a) != 16 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("identical pixels produced different vectors at %d", i)
		}
	}
	if math.Abs(norm(a)-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", norm(a))
	}

	blue, _ := e.EmbedImage(ctx, solid(color.RGBA{B: 255, A: 255}, 32, 32))
	same := true
	for i := range a {
		if a[i] != blue[i] {
			same = false
		}
	}
	if same {
		t.Error("different images should give different vectors")
	}
}

func TestMockEmbedder_text(t *testing.T) {
	e := NewMockEmbedder(0)
	if e.Dimensions() != 512 {
		t.Errorf("default dims = %d", e.Dimensions())
	}
	a, _ := e.EmbedText(context.Background(), "a red fox")
	b, _ := e.EmbedText(context.Background(), "a red fox")
	if a[0] != b[0] || a[511] != b[511] {
		t.Error("text embedding should be deterministic")
	}
	if e.Model() != "mock-512" {
		t.Errorf("Model = %q", e.Model())
	}
}

func TestMockEmbedder_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(4).EmbedText(ctx, "x"); err == nil {
		t.Error("expected context error")
	}
}

type countingEmbedder struct {
	*MockEmbedder
	textCalls int
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.textCalls++
	return c.MockEmbedder.EmbedText(ctx, text)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(4)}
	emb, err := NewCachedEmbedder(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_, _ = emb.EmbedText(ctx, "a")
	_, _ = emb.EmbedText(ctx, "a")
	if inner.textCalls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.textCalls)
	}
	_, _ = emb.EmbedText(ctx, "b")
	_, _ = emb.EmbedText(ctx, "c") // evicts a
	_, _ = emb.EmbedText(ctx, "a")
	if inner.textCalls != 4 {
		t.Errorf("expected 4 inner calls after eviction, got %d", inner.textCalls)
	}
	if emb.(*CachedEmbedder).Len() != 2 {
		t.Errorf("Len = %d", emb.(*CachedEmbedder).Len())
	}
	if emb.Model() != "mock-4" {
		t.Error("Model should be promoted from the wrapped embedder")
	}
}

func TestNewCachedEmbedder_disabled(t *testing.T) {
	inner := NewMockEmbedder(4)
	emb, err := NewCachedEmbedder(inner, 0)
	if err != nil {
		t.Fatal(err)
	}
	if emb != Embedder(inner) {
		t.Error("size 0 should return the inner embedder")
	}
}

func TestPixelValues_shapeAndNormalization(t *testing.T) {
	img := solid(color.RGBA{R: 255, G: 255, B: 255, A: 255}, 40, 20)
	px := PixelValues(img, 8)
	if len(px) != 3*8*8 {
		t.Fatalf("len = %d", len(px))
	}
	wantR := (1 - clipMean[0]) / clipStd[0]
	if math.Abs(float64(px[0]-wantR)) > 0.02 {
		t.Errorf("px[0] = %f, want %f", px[0], wantR)
	}
	wantB := (1 - clipMean[2]) / clipStd[2]
	if math.Abs(float64(px[2*64]-wantB)) > 0.02 {
		t.Errorf("blue plane = %f, want %f", px[2*64], wantB)
	}
}

func TestCenterCrop_square(t *testing.T) {
	out := CenterCrop(solid(color.Black, 30, 60), 10)
	if out.Bounds().Dx() != 10 || out.Bounds().Dy() != 10 {
		t.Errorf("bounds = %v", out.Bounds())
	}
}
