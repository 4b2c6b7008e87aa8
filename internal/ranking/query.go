package ranking

import (
	"regexp"
	"strings"
	"unicode"
)

// Query is a parsed filename query.
type Query struct {
	Original string
	// Terms are lowercase words outside quotes.
	Terms []string
	// Phrases are lowercase quoted strings.
	Phrases []string
}

var phraseRegex = regexp.MustCompile(`["']([^"']+)["']`)

// AnalyzeQuery splits query into phrases and terms.
func AnalyzeQuery(query string) *Query {
	q := &Query{Original: query}
	for _, m := range phraseRegex.FindAllStringSubmatch(query, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			q.Phrases = append(q.Phrases, strings.ToLower(p))
		}
	}
	for _, word := range strings.Fields(phraseRegex.ReplaceAllString(query, " ")) {
		if t := normalizeToken(word); t != "" {
			q.Terms = append(q.Terms, t)
		}
	}
	return q
}

// Tokens returns the terms plus the words of every phrase, deduplicated.
func (q *Query) Tokens() []string {
	seen := make(map[string]bool)
	tokens := make([]string, 0, len(q.Terms))
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}
	for _, t := range q.Terms {
		add(t)
	}
	for _, p := range q.Phrases {
		for _, w := range strings.Fields(p) {
			add(normalizeToken(w))
		}
	}
	return tokens
}

// normalizeToken lowercases token and trims punctuation from its edges,
// keeping '-' and '_'.
func normalizeToken(token string) string {
	return strings.TrimFunc(strings.ToLower(token), func(r rune) bool {
		return unicode.IsPunct(r) && r != '-' && r != '_'
	})
}

var separators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// SplitWords turns the separators used in file names ('_', '-', '.') into spaces.
func SplitWords(s string) string {
	return separators.Replace(s)
}

// NormalizeFilename drops the extension, splits words, and lowercases, so
// "Red_Fox-2.JPG" reads "red fox 2". The filename index stores names in this
// form too.
func NormalizeFilename(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	return strings.ToLower(strings.TrimSpace(SplitWords(filename)))
}

// ExtractExtension returns the lowercase extension without the dot.
func ExtractExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return strings.ToLower(filename[idx+1:])
	}
	return ""
}

// CountMatchingTerms counts how many terms occur in text.
func CountMatchingTerms(terms []string, text string) int {
	count := 0
	text = strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(text, term) {
			count++
		}
	}
	return count
}

// TermsInOrder reports whether terms appear in text in the given order.
func TermsInOrder(terms []string, text string) bool {
	if len(terms) == 0 {
		return false
	}
	text = strings.ToLower(text)
	last := -1
	for _, term := range terms {
		pos := strings.Index(text[last+1:], term)
		if pos == -1 {
			return false
		}
		last += 1 + pos
	}
	return true
}

// IsPrefixMatch reports whether term is a prefix of any word in text.
func IsPrefixMatch(term, text string) bool {
	term = strings.ToLower(term)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if strings.HasPrefix(word, term) {
			return true
		}
	}
	return false
}

// CountOccurrences counts non-overlapping occurrences of term in text.
func CountOccurrences(term, text string) int {
	return strings.Count(strings.ToLower(text), strings.ToLower(term))
}
