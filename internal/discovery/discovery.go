// Package discovery enumerates candidate image files under root directories.
package discovery

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// DefaultPatterns are the base-name patterns searched when none are configured.
var DefaultPatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.webp"}

// Walk returns a lazy sequence of files found recursively under each root whose
// base name matches a pattern. Each (root, pattern) pair is a separate pass, so a
// file matching two patterns, or living under two overlapping roots, is yielded
// more than once. Hidden entries (leading ".") are neither yielded nor descended.
// Symlinked directories are not followed.
func Walk(roots, patterns []string) iter.Seq[string] {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return func(yield func(string) bool) {
		for _, root := range roots {
			for _, pattern := range patterns {
				if !walkPattern(root, pattern, yield) {
					return
				}
			}
		}
	}
}

// walkPattern reports false once the consumer stops iterating.
func walkPattern(root, pattern string, yield func(string) bool) bool {
	stopped := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !Match(pattern, d.Name()) {
			return nil
		}
		if !yield(path) {
			stopped = true
			return fs.SkipAll
		}
		return nil
	})
	return !stopped
}

// Match reports whether name matches pattern. Malformed patterns match nothing.
func Match(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// MatchAny reports whether name matches any of patterns (DefaultPatterns when empty).
func MatchAny(patterns []string, name string) bool {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
