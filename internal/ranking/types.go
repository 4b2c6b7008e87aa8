// Package ranking orders filename search candidates by how well their file
// name and folder path match the query.
package ranking

// MatchType represents the type of query match found in a file name.
type MatchType int

const (
	// MatchTypeNone indicates no match was found.
	MatchTypeNone MatchType = iota
	// MatchTypePartial indicates some query terms matched.
	MatchTypePartial
	// MatchTypeAllWords indicates all query words matched but not in order.
	MatchTypeAllWords
	// MatchTypePhrase indicates all query words matched in order.
	MatchTypePhrase
	// MatchTypeExact indicates the name without extension equals the query.
	MatchTypeExact
)

// String returns a string representation of the match type.
func (m MatchType) String() string {
	switch m {
	case MatchTypeNone:
		return "none"
	case MatchTypePartial:
		return "partial"
	case MatchTypeAllWords:
		return "all_words"
	case MatchTypePhrase:
		return "phrase"
	case MatchTypeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Candidate is one filename search hit to be ranked.
type Candidate struct {
	Key uint64
	// Path is the indexed file; Root is the directory it was discovered under.
	Path string
	Root string
	// BaseScore is the retrieval score, used to break ties between
	// candidates with equal lexical scores (for example fuzzy-only hits).
	BaseScore float64

	// Score is set by Rank.
	Score float64
	Match MatchType
}
