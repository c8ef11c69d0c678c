// Package normalize implements identifier-aware tokenization and term
// normalization shared by the route extractor, chunk builder, and hybrid
// scorer.
package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches an identifier, an integer, or a single non-space
// character, in that preference order.
var tokenPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|[0-9]+|[^\s]`)

// identifierPattern matches identifier-style tokens: must start with a
// letter or underscore, followed by letters, digits, or underscores.
var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// EstimateTokens counts matches of "identifier | integer | single non-space
// character" in text. It is a rough proxy for LLM/embedding token counts,
// not an exact tokenizer.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(tokenPattern.FindAllString(text, -1))
}

// NormalizeTerms lowercases text and extracts identifier tokens of length
// > 1, in input order. Duplicates are preserved; callers that need sets
// deduplicate explicitly.
func NormalizeTerms(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	matches := identifierPattern.FindAllString(lower, -1)
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			terms = append(terms, m)
		}
	}
	return terms
}

// DedupSorted returns the sorted, deduplicated contents of terms. Used to
// canonicalize set-valued chunk fields (keywords, symbol_terms,
// structural_terms, intent_tags) before persistence.
func DedupSorted(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Set builds a deduplicated, sorted set from one or more term slices,
// suitable for the "sets rendered as ordered sequences" invariant on
// CodeChunk.
func Set(groups ...[]string) []string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return DedupSorted(all)
}

// Contains reports whether set contains value. set is assumed small enough
// that a linear scan is cheaper than building a map.
func Contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// OverlapCount returns the number of elements of a that are also present in
// b, counting each element of a once even if b has duplicates.
func OverlapCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	bSet := make(map[string]struct{}, len(b))
	for _, v := range b {
		bSet[v] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := bSet[v]; ok {
			count++
		}
	}
	return count
}
