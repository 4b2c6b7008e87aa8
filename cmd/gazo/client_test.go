package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/gazo/internal/config"
	"github.com/hyperjump/gazo/internal/embedding"
	"github.com/hyperjump/gazo/internal/indexer"
	"github.com/hyperjump/gazo/internal/search"
	"github.com/hyperjump/gazo/internal/server"
	"go.uber.org/zap"
)

func writeSolidPNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	writeSolidPNG(t, filepath.Join(root, "red_kite.png"), color.RGBA{R: 255, A: 255})
	writeSolidPNG(t, filepath.Join(root, "green_field.png"), color.RGBA{G: 255, A: 255})

	cfg := config.Default()
	cfg.Images.Directories = []string{root}
	cfg.Storage.EmbeddingCachePath = ""
	engine, err := search.Open(context.Background(), indexer.NewBuilder(embedding.NewMockEmbedder(16)), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	ts := httptest.NewServer(server.NewServer(engine, nil, cfg, zap.NewNop()).Router())
	t.Cleanup(ts.Close)
	return ts, root
}

func TestClient_searchModes(t *testing.T) {
	ts, root := newTestServer(t)
	c := newClient(ts.URL + "/")
	ctx := context.Background()

	noFilter := -1.0
	resp, err := c.search(ctx, searchArgs{query: "kite", threshold: &noFilter})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || resp.Query != "kite" {
		t.Errorf("text search: total=%d query=%q", resp.Total, resp.Query)
	}

	resp, err = c.search(ctx, searchArgs{mode: modeFilename, query: "kite"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Filename != "red_kite.png" {
		t.Errorf("filename search: %+v", resp.Results)
	}

	resp, err = c.search(ctx, searchArgs{mode: modeImage, imagePath: filepath.Join(root, "green_field.png"), count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Filename != "green_field.png" {
		t.Errorf("image search: %+v", resp.Results)
	}
}

func TestClient_status(t *testing.T) {
	ts, _ := newTestServer(t)
	status, err := newClient(ts.URL).status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.Images != 2 || status.EmbeddingModel != "mock-16" {
		t.Errorf("status = %+v", status)
	}
	if status.CachedEmbeddings != nil {
		t.Error("no embedding store configured")
	}
}

func TestClient_errorStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	_, err := newClient(ts.URL).search(context.Background(), searchArgs{mode: modeImage, imagePath: filepath.Join(t.TempDir(), "missing.png")})
	if err == nil || !strings.Contains(err.Error(), "open query image") {
		t.Errorf("err = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = newClient(ts.URL).search(context.Background(), searchArgs{mode: modeImage, imagePath: bad})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want 400", err)
	}
}
