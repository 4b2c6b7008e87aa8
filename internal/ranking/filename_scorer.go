package ranking

import "strings"

// ScoreFilename scores filename (a base name with extension) against q.
// The result is the best single match kind plus a bonus for repeated terms.
func ScoreFilename(cfg *Config, q *Query, filename string) (float64, MatchType) {
	if q == nil || filename == "" {
		return 0, MatchTypeNone
	}
	tokens := q.Tokens()
	if len(tokens) == 0 {
		return 0, MatchTypeNone
	}
	normalized := NormalizeFilename(filename)

	score, match := 0.0, MatchTypeNone
	consider := func(s float64, m MatchType) {
		if s > score {
			score = s
		}
		if m > match {
			match = m
		}
	}

	queryNorm := strings.ToLower(strings.TrimSpace(q.Original))
	switch {
	case normalized == queryNorm:
		consider(cfg.ExactFilenameScore, MatchTypeExact)
	case strings.ReplaceAll(normalized, " ", "") == strings.ReplaceAll(queryNorm, " ", ""):
		consider(cfg.ExactFilenameScore*0.95, MatchTypeExact)
	}

	for _, phrase := range q.Phrases {
		if strings.Contains(normalized, phrase) {
			consider(cfg.AllWordsInOrderScore, MatchTypePhrase)
		}
	}

	if n := CountMatchingTerms(tokens, normalized); n > 0 {
		switch {
		case n < len(tokens):
			consider(cfg.SubstringMatchScore*float64(n)/float64(len(tokens)), MatchTypePartial)
		case TermsInOrder(tokens, normalized):
			consider(cfg.AllWordsInOrderScore, MatchTypePhrase)
		default:
			consider(cfg.AllWordsAnyOrderScore, MatchTypeAllWords)
		}
	}

	if ext := ExtractExtension(filename); ext != "" {
		for _, t := range tokens {
			if strings.TrimPrefix(t, ".") == ext {
				consider(cfg.ExtensionMatchScore, MatchTypePartial)
				break
			}
		}
	}

	for _, t := range tokens {
		// Longer terms score higher.
		lengthBoost := float64(max(len(t)-3, 0))
		if IsPrefixMatch(t, normalized) {
			consider(cfg.PrefixMatchScore*(1+lengthBoost*0.05), MatchTypePartial)
		}
		if strings.Contains(normalized, t) {
			consider(cfg.SubstringMatchScore*(1+lengthBoost*0.03), MatchTypePartial)
		}
		if n := CountOccurrences(t, normalized); n > 1 {
			score += cfg.MultipleOccurrenceBonus * (1 - 1/float64(n))
		}
	}
	return score, match
}
