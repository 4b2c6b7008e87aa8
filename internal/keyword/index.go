// Package keyword provides filename search over indexed images.
package keyword

import (
	"strings"

	"github.com/hyperjump/gazo/internal/ranking"
)

// Hit is a single filename search match.
type Hit struct {
	Key   uint64
	Score float64
}

// SearchOptions optional parameters for filename search. Nil means exact term matching.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits (typo tolerance).
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). Default 1.
	Fuzziness int
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(ranking.SplitWords(query)))
}
