package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/gazo/internal/models"
)

func newTestIndex(t *testing.T, records ...models.ImageRecord) *FilenameIndex {
	t.Helper()
	idx, err := NewFilenameIndex()
	if err != nil {
		t.Fatalf("NewFilenameIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.IndexRecords(context.Background(), records); err != nil {
		t.Fatalf("IndexRecords: %v", err)
	}
	return idx
}

func TestFilenameIndex_SearchByName(t *testing.T) {
	idx := newTestIndex(t,
		models.ImageRecord{Key: 1, Path: "/photos/trips/red_fox_2021.jpg"},
		models.ImageRecord{Key: 2, Path: "/photos/trips/blue-whale.png"},
		models.ImageRecord{Key: 3, Path: "/photos/pets/cat.webp"},
	)
	ctx := context.Background()

	hits, err := idx.Search(ctx, "red fox", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Key != 1 {
		t.Fatalf("expected key 1, got %+v", hits)
	}

	hits, _ = idx.Search(ctx, "WHALE", 10, nil)
	if len(hits) != 1 || hits[0].Key != 2 {
		t.Errorf("case-insensitive match failed: %+v", hits)
	}

	hits, _ = idx.Search(ctx, "jpg", 10, nil)
	if len(hits) != 0 {
		t.Errorf("extension should not be indexed: %+v", hits)
	}
}

func TestFilenameIndex_SearchByFolder(t *testing.T) {
	idx := newTestIndex(t,
		models.ImageRecord{Key: 1, Path: "/photos/trips/a.jpg"},
		models.ImageRecord{Key: 3, Path: "/photos/pets/cat.webp"},
	)
	hits, err := idx.Search(context.Background(), "pets", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Key != 3 {
		t.Errorf("expected folder match on key 3, got %+v", hits)
	}
}

func TestFilenameIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t, models.ImageRecord{Key: 9, Path: "/x/sunset.jpg"})
	ctx := context.Background()

	hits, _ := idx.Search(ctx, "sunest", 10, nil)
	if len(hits) != 0 {
		t.Errorf("exact search should not match a typo: %+v", hits)
	}
	hits, err := idx.Search(ctx, "sunst", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Key != 9 {
		t.Errorf("fuzzy search should match: %+v", hits)
	}
}

func TestFilenameIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t, models.ImageRecord{Key: 1, Path: "/x/a.jpg"})
	hits, err := idx.Search(context.Background(), "  ", 10, nil)
	if err != nil || hits != nil {
		t.Errorf("empty query: hits=%v err=%v", hits, err)
	}
}

func TestFilenameIndex_DocCount(t *testing.T) {
	var records []models.ImageRecord
	for i := 0; i < batchSize+3; i++ {
		records = append(records, models.ImageRecord{Key: uint64(i + 1), Path: "/x/img.jpg"})
	}
	idx := newTestIndex(t, records...)
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != uint64(batchSize+3) {
		t.Errorf("DocCount = %d", n)
	}
}

func TestFilenameIndex_namesSplitLikeRanking(t *testing.T) {
	idx := newTestIndex(t,
		models.ImageRecord{Key: 1, Path: "/photos/Holiday-Beach.v2.PNG"},
		models.ImageRecord{Key: 2, Path: "/photos/noext"},
	)
	tests := []struct {
		query string
		want  uint64
	}{
		{"holiday beach v2", 1},
		{"Beach", 1},
		{"noext", 2},
	}
	for _, tt := range tests {
		hits, err := idx.Search(context.Background(), tt.query, 10, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 1 || hits[0].Key != tt.want {
			t.Errorf("Search(%q) = %v, want key %d", tt.query, hits, tt.want)
		}
	}
}
