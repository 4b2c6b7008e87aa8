package ranking

import (
	"path/filepath"
	"strings"
)

// ScorePath scores the folder names between root and path against q.
// Each matching folder contributes its best term score, and every folder
// past the first adds PathComponentBonus.
func ScorePath(cfg *Config, q *Query, path, root string) float64 {
	if q == nil {
		return 0
	}
	components := PathComponents(path, root)
	tokens := q.Tokens()
	if len(components) == 0 || len(tokens) == 0 {
		return 0
	}

	total, matched := 0.0, 0
	for _, c := range components {
		c = strings.ToLower(c)
		best := 0.0
		for _, t := range tokens {
			switch {
			case c == t:
				best = max(best, cfg.PathExactMatchScore)
			case strings.HasPrefix(c, t):
				best = max(best, cfg.PathPartialMatchScore*1.2)
			case strings.Contains(c, t):
				ratio := float64(len(t)) / float64(len(c))
				best = max(best, cfg.PathPartialMatchScore+(cfg.PathExactMatchScore-cfg.PathPartialMatchScore)*ratio)
			}
		}
		if best > 0 {
			total += best
			matched++
		}
	}
	if matched > 1 {
		total += cfg.PathComponentBonus * float64(matched-1)
	}
	return total
}

// PathComponents returns the directory names of path below root, outermost
// first. With an empty root, or a path outside root, every directory of path
// is returned.
func PathComponents(path, root string) []string {
	dir := filepath.Dir(filepath.Clean(path))
	if root != "" {
		if rel, err := filepath.Rel(filepath.Clean(root), dir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			dir = rel
		}
	}
	var components []string
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part != "" && part != "." {
			components = append(components, part)
		}
	}
	return components
}
