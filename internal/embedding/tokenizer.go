package embedding

import "strings"

// CLIP text model special tokens and vocabulary size.
const (
	clipStartToken = 49406
	clipEndToken   = 49407
	clipVocabSize  = 49408
)

// Tokenizer produces token IDs and the attention mask for the text encoder.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs in the CLIP
// vocabulary range. It does not reproduce BPE; real deployments export a model
// whose text encoder tolerates it or swap in a proper tokenizer.
type SimpleTokenizer struct{}

// Tokenize lowercases and splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens <= 2 {
		maxTokens = 77
	}
	words := SplitWords(strings.ToLower(text))
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)

	inputIDs[0] = clipStartToken
	attentionMask[0] = 1

	pos := 1
	for _, word := range words {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(word) % (clipStartToken - 1))
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = clipEndToken
	attentionMask[pos] = 1
	return inputIDs, attentionMask
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -(h + 1)
	}
	return h
}
