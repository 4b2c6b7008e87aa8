package ranking

import (
	"path/filepath"
	"sort"
)

// Ranker scores filename search candidates.
type Ranker struct {
	config *Config
}

// NewRanker creates a Ranker. A nil config uses DefaultConfig.
func NewRanker(config *Config) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	return &Ranker{config: config}
}

// Rank scores every candidate against query and returns them best first.
// The input slice is sorted in place.
func (r *Ranker) Rank(query string, candidates []Candidate) []Candidate {
	q := AnalyzeQuery(query)
	for i := range candidates {
		c := &candidates[i]
		nameScore, match := ScoreFilename(r.config, q, filepath.Base(c.Path))
		pathScore := ScorePath(r.config, q, c.Path, c.Root)
		c.Score = r.config.FilenameWeight*nameScore + r.config.PathWeight*pathScore + c.BaseScore
		c.Match = match
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
