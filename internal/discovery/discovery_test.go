package discovery

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func collect(roots, patterns []string) []string {
	var out []string
	for p := range Walk(roots, patterns) {
		out = append(out, p)
	}
	return out
}

func TestWalk_recursiveByPattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "sub/b.png", "sub/deep/c.webp", "notes.txt", "d.JPG")

	got := collect([]string{root}, nil)
	slices.Sort(got)
	want := []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "sub", "b.png"),
		filepath.Join(root, "sub", "deep", "c.webp"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Walk = %v, want %v", got, want)
	}
}

func TestWalk_caseAsGiven(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "upper.JPG", "lower.jpg")
	got := collect([]string{root}, []string{"*.JPG"})
	if len(got) != 1 || filepath.Base(got[0]) != "upper.JPG" {
		t.Errorf("got %v", got)
	}
}

func TestWalk_overlapYieldsDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "sub/x.jpg")

	got := collect([]string{root, filepath.Join(root, "sub")}, []string{"*.jpg", "x.*"})
	// two roots x two patterns, every pass sees the file
	if len(got) != 4 {
		t.Errorf("expected 4 yields, got %d: %v", len(got), got)
	}
}

func TestWalk_skipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, ".hidden.jpg", ".cache/thumb.jpg", "visible.jpg")
	got := collect([]string{root}, []string{"*.jpg"})
	if len(got) != 1 || filepath.Base(got[0]) != "visible.jpg" {
		t.Errorf("got %v", got)
	}
}

func TestWalk_missingRoot(t *testing.T) {
	got := collect([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	if len(got) != 0 {
		t.Errorf("expected nothing, got %v", got)
	}
}

func TestWalk_earlyStop(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "1.jpg", "2.jpg", "3.jpg")
	n := 0
	for range Walk([]string{root, root}, []string{"*.jpg"}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
}

func TestMatchAny(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.jpeg", true},
		{"a.webp", true},
		{"a.gif", false},
		{"a.PNG", false},
	}
	for _, tt := range tests {
		if got := MatchAny(nil, tt.name); got != tt.want {
			t.Errorf("MatchAny(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if Match("[", "x") {
		t.Error("malformed pattern should not match")
	}
}
