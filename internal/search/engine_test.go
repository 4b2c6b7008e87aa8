package search

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/gazo/internal/contentid"
	"github.com/hyperjump/gazo/internal/embedding"
	"github.com/hyperjump/gazo/internal/indexer"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func setupEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "red_apple.png"), solid(red))
	writePNG(t, filepath.Join(root, "fruit", "green_pear.png"), solid(green))
	writePNG(t, filepath.Join(root, "blue_sky.png"), solid(blue))

	builder := indexer.NewBuilder(embedding.NewMockEmbedder(32))
	e, err := Open(context.Background(), builder, []string{root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, root
}

func TestEngine_SearchByText_emptyQuery(t *testing.T) {
	e, _ := setupEngine(t)
	for _, q := range []string{"", "   \t"} {
		results, err := e.SearchByText(context.Background(), q, 10, 0)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestEngine_SearchByText_resultShape(t *testing.T) {
	e, _ := setupEngine(t)
	results, err := e.SearchByText(context.Background(), "apple", 10, -1)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.ImageURL(r.Key), r.URL)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		_, ok := e.ResolvePath(r.Key)
		assert.True(t, ok)
	}
}

func TestEngine_SearchByImage_selfSimilarity(t *testing.T) {
	e, root := setupEngine(t)
	results, err := e.SearchByImage(context.Background(), solid(green), 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	key, err := contentid.FromFile(filepath.Join(root, "fruit", "green_pear.png"))
	require.NoError(t, err)
	assert.Equal(t, key, results[0].Key)
	assert.Equal(t, "green_pear.png", results[0].Filename)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
}

func TestEngine_thresholdIsMonotonic(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	var prev []*models.SearchResult
	for i, threshold := range []float64{-1, 0, 0.5, 0.9, 0.999} {
		results, err := e.SearchByImage(ctx, solid(red), 10, threshold)
		require.NoError(t, err)
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, threshold)
		}
		if i > 0 {
			assert.LessOrEqual(t, len(results), len(prev))
		}
		prev = results
	}
}

func TestEngine_countLimitsResults(t *testing.T) {
	e, _ := setupEngine(t)
	results, err := e.SearchByImage(context.Background(), solid(red), 2, -1)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = e.SearchByImage(context.Background(), solid(red), 0, -1)
	require.NoError(t, err)
	assert.Len(t, results, 3, "count <= 0 uses the default")
}

func TestEngine_SearchByKey(t *testing.T) {
	e, root := setupEngine(t)
	path := filepath.Join(root, "blue_sky.png")
	key, err := contentid.FromFile(path)
	require.NoError(t, err)

	results, err := e.SearchByKey(context.Background(), key, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, key, results[0].Key)

	_, err = e.SearchByKey(context.Background(), 42, 1, 0)
	assert.ErrorIs(t, err, ErrImageNotFound)

	require.NoError(t, os.Remove(path))
	_, err = e.SearchByKey(context.Background(), key, 1, 0)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestEngine_SearchByFilename(t *testing.T) {
	e, _ := setupEngine(t)
	results, err := e.SearchByFilename(context.Background(), "pear", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "green_pear.png", results[0].Filename)
	assert.Equal(t, 1.0, results[0].Score)

	results, err = e.SearchByFilename(context.Background(), "fruit", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "green_pear.png", results[0].Filename)

	results, err = e.SearchByFilename(context.Background(), " ", 5, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_emptyIndex(t *testing.T) {
	root := t.TempDir()
	e, err := Open(context.Background(), indexer.NewBuilder(embedding.NewMockEmbedder(8)), []string{root})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 0, e.Size())
	assert.Equal(t, "", e.IndexType())
	results, err := e.SearchByText(context.Background(), "anything", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	results, err = e.SearchByImage(context.Background(), solid(red), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Rebuild(t *testing.T) {
	e, root := setupEngine(t)
	before := e.Report().BuildID
	require.Equal(t, 3, e.Size())

	writePNG(t, filepath.Join(root, "white.png"), solid(color.White))
	report, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Indexed)
	assert.Equal(t, 4, e.Size())
	assert.NotEqual(t, before, e.Report().BuildID)
	assert.Equal(t, "memory", e.IndexType())
}

func TestEngine_RebuildFailureKeepsSnapshot(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), solid(red))
	e, err := Open(context.Background(), indexer.NewBuilder(embedding.NewMockEmbedder(8)), []string{root})
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, os.RemoveAll(root))
	_, err = e.Rebuild(context.Background())
	assert.ErrorIs(t, err, indexer.ErrNoValidRoot)
	assert.Equal(t, 1, e.Size())
}

func TestEngine_RebuildWithoutBuilder(t *testing.T) {
	e := NewEngine(embedding.NewMockEmbedder(8), nil)
	_, err := e.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrRebuildUnsupported)
	assert.Nil(t, e.Report())
	assert.Nil(t, e.Roots())
	assert.NoError(t, e.Close())
}

func TestOpen_noValidRoot(t *testing.T) {
	_, err := Open(context.Background(), indexer.NewBuilder(embedding.NewMockEmbedder(8)), []string{"/nope/nope"})
	assert.ErrorIs(t, err, indexer.ErrNoValidRoot)
}

func TestEngine_SearchByFilename_ranksNameOverFolder(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "beach", "img_001.png"), solid(red))
	writePNG(t, filepath.Join(root, "beach", "img_002.png"), solid(green))
	writePNG(t, filepath.Join(root, "beach.png"), solid(blue))
	e, err := Open(context.Background(), indexer.NewBuilder(embedding.NewMockEmbedder(8)), []string{root})
	require.NoError(t, err)
	defer e.Close()

	results, err := e.SearchByFilename(context.Background(), "beach", 2, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "beach.png", results[0].Filename)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Less(t, results[1].Score, 1.0)
}

func TestEngine_RebuildKeepsPinnedSnapshotOpen(t *testing.T) {
	e, root := setupEngine(t)
	pinned := e.acquire()
	require.NotNil(t, pinned)

	writePNG(t, filepath.Join(root, "white.png"), solid(color.White))
	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)

	// A search that started before the swap can still use its snapshot.
	hits, err := pinned.Filenames.Search(context.Background(), "apple", 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	pinned.Release()
	_, err = pinned.Filenames.Search(context.Background(), "apple", 5, nil)
	assert.Error(t, err, "the last release closes the retired snapshot")
	assert.Equal(t, 4, e.Size())
}
