package ranking

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestAnalyzeQuery(t *testing.T) {
	q := AnalyzeQuery(`Beach "summer trip" sunset!`)
	if !reflect.DeepEqual(q.Terms, []string{"beach", "sunset"}) {
		t.Errorf("Terms = %v", q.Terms)
	}
	if !reflect.DeepEqual(q.Phrases, []string{"summer trip"}) {
		t.Errorf("Phrases = %v", q.Phrases)
	}
	if got := q.Tokens(); !reflect.DeepEqual(got, []string{"beach", "sunset", "summer", "trip"}) {
		t.Errorf("Tokens = %v", got)
	}
}

func TestNormalizeFilename(t *testing.T) {
	tests := map[string]string{
		"Red_Fox-2.JPG":  "red fox 2",
		"holiday.v2.png": "holiday v2",
		".hidden":        "hidden",
		"plain":          "plain",
		"a-b.c.png":      "a b c",
	}
	for in, want := range tests {
		if got := NormalizeFilename(in); got != want {
			t.Errorf("NormalizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScoreFilename(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		query     string
		filename  string
		wantMin   float64
		wantMax   float64
		wantMatch MatchType
	}{
		{"exact", "sunset", "sunset.jpg", cfg.ExactFilenameScore, cfg.ExactFilenameScore * 1.1, MatchTypeExact},
		{"exact ignoring separators", "red fox", "red_fox.png", cfg.ExactFilenameScore, cfg.ExactFilenameScore * 1.1, MatchTypeExact},
		{"all words in order", "red fox", "big_red_fox_run.png", cfg.AllWordsInOrderScore, cfg.AllWordsInOrderScore * 1.1, MatchTypePhrase},
		{"all words any order", "fox red", "big_red_fox_run.png", cfg.AllWordsAnyOrderScore, cfg.AllWordsAnyOrderScore * 1.1, MatchTypeAllWords},
		{"partial", "fox wolf", "red_fox.png", cfg.SubstringMatchScore * 0.5, cfg.SubstringMatchScore * 1.2, MatchTypePartial},
		{"prefix", "holi", "holiday_2024.jpg", cfg.PrefixMatchScore, cfg.AllWordsInOrderScore * 1.1, MatchTypePhrase},
		{"extension", "webp", "cat.webp", cfg.ExtensionMatchScore, cfg.ExtensionMatchScore * 1.1, MatchTypePartial},
		{"no match", "xyz", "cat.png", 0, 0, MatchTypeNone},
		{"case insensitive", "SUNSET", "Sunset.JPG", cfg.ExactFilenameScore, cfg.ExactFilenameScore * 1.1, MatchTypeExact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, match := ScoreFilename(cfg, AnalyzeQuery(tt.query), tt.filename)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("ScoreFilename(%q, %q) = %v, want [%v, %v]", tt.query, tt.filename, got, tt.wantMin, tt.wantMax)
			}
			if match != tt.wantMatch {
				t.Errorf("match = %v, want %v", match, tt.wantMatch)
			}
		})
	}
}

func TestScoreFilename_repeatedTermBonus(t *testing.T) {
	cfg := DefaultConfig()
	once, _ := ScoreFilename(cfg, AnalyzeQuery("cat"), "cat_on_sofa.png")
	twice, _ := ScoreFilename(cfg, AnalyzeQuery("cat"), "cat_and_cat.png")
	if twice <= once {
		t.Errorf("repeated term should score higher: once=%v twice=%v", once, twice)
	}
}

func TestPathComponents(t *testing.T) {
	root := filepath.FromSlash("/photos")
	tests := []struct {
		path string
		root string
		want []string
	}{
		{"/photos/2024/beach/a.jpg", root, []string{"2024", "beach"}},
		{"/photos/a.jpg", root, nil},
		{"/elsewhere/x/a.jpg", root, []string{"elsewhere", "x"}},
		{"/a/b/c.jpg", "", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := PathComponents(filepath.FromSlash(tt.path), tt.root)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PathComponents(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
		}
	}
}

func TestScorePath(t *testing.T) {
	cfg := DefaultConfig()
	path := filepath.FromSlash("/photos/holiday/beach/a.jpg")
	root := filepath.FromSlash("/photos")

	if got := ScorePath(cfg, AnalyzeQuery("beach"), path, root); got != cfg.PathExactMatchScore {
		t.Errorf("exact component = %v, want %v", got, cfg.PathExactMatchScore)
	}
	both := ScorePath(cfg, AnalyzeQuery("holiday beach"), path, root)
	if want := 2*cfg.PathExactMatchScore + cfg.PathComponentBonus; both != want {
		t.Errorf("two components = %v, want %v", both, want)
	}
	if got := ScorePath(cfg, AnalyzeQuery("photos"), path, root); got != 0 {
		t.Errorf("root itself should not score, got %v", got)
	}
}

func TestRanker_Rank(t *testing.T) {
	root := filepath.FromSlash("/photos")
	candidates := []Candidate{
		{Key: 1, Path: filepath.FromSlash("/photos/beach/img_001.jpg"), Root: root, BaseScore: 0.9},
		{Key: 2, Path: filepath.FromSlash("/photos/beach.jpg"), Root: root, BaseScore: 0.5},
		{Key: 3, Path: filepath.FromSlash("/photos/misc/beech.jpg"), Root: root, BaseScore: 0.2},
	}
	ranked := NewRanker(nil).Rank("beach", candidates)

	var keys []uint64
	for _, c := range ranked {
		keys = append(keys, c.Key)
	}
	if !reflect.DeepEqual(keys, []uint64{2, 1, 3}) {
		t.Errorf("order = %v, want [2 1 3]", keys)
	}
	if ranked[0].Match != MatchTypeExact {
		t.Errorf("top match = %v", ranked[0].Match)
	}
	// A fuzzy-only hit keeps its retrieval score.
	if ranked[2].Score != 0.2 {
		t.Errorf("fuzzy-only score = %v, want 0.2", ranked[2].Score)
	}
}

func TestNewRanker_customConfig(t *testing.T) {
	cfg := &Config{FilenameWeight: 2}
	if r := NewRanker(cfg); r.config.FilenameWeight != 2 {
		t.Errorf("FilenameWeight = %v", r.config.FilenameWeight)
	}
	if r := NewRanker(nil); r.config == nil {
		t.Error("nil config should use defaults")
	}
}

func TestMatchType_String(t *testing.T) {
	if MatchTypeAllWords.String() != "all_words" || MatchType(99).String() != "unknown" {
		t.Error("unexpected MatchType names")
	}
}
