package answers

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the Jaccard similarity above which two answers are
// considered duplicates of each other.
const DefaultThreshold = 0.6

// tokenize splits a string into its set of lowercase word tokens. A word is a
// maximal run of letters or digits, so punctuation and emoji act as
// separators.
func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		tokens[w] = struct{}{}
	}
	return tokens
}

// Jaccard computes word-level Jaccard similarity between two strings.
// Empty token sets yield 0 so blank strings never match anything.
func Jaccard(a, b string) float64 {
	wa := tokenize(a)
	wb := tokenize(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// Similar reports whether two answers are too close to coexist in the pool.
func Similar(a, b string, threshold float64) bool {
	return Jaccard(a, b) >= threshold
}

// Deduplicate filters candidates whose similarity to any existing answer, or
// to an earlier accepted candidate in the same batch, reaches the threshold.
// The comparison pool grows as candidates are accepted, so near-duplicates
// inside a single provider batch are rejected too.
func Deduplicate(candidates, existing []string, threshold float64) []string {
	pool := make([]string, len(existing))
	copy(pool, existing)
	var unique []string
	for _, candidate := range candidates {
		tooClose := false
		for _, p := range pool {
			if Similar(candidate, p, threshold) {
				tooClose = true
				break
			}
		}
		if !tooClose {
			unique = append(unique, candidate)
			pool = append(pool, candidate)
		}
	}
	return unique
}
