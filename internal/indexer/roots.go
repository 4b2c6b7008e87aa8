package indexer

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoValidRoot is returned when none of the configured directories exist.
var ErrNoValidRoot = errors.New("at least one valid image directory is required")

// ResolveRoots keeps the entries of dirs that are existing directories, as
// cleaned absolute paths in their original order without repeats.
func ResolveRoots(dirs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(dirs))
	roots := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, ErrNoValidRoot
	}
	return roots, nil
}
