package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var wsRe = regexp.MustCompile(`\s+`)

// NormalizeNameLower folds a display name into the form stored in the
// name_lower search field: NFKD-decomposed, combining marks stripped,
// lowercased, whitespace collapsed.
func NormalizeNameLower(s string) string {
	t := norm.NFKD.String(strings.TrimSpace(s))
	b := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b = append(b, unicode.ToLower(r))
	}
	return wsRe.ReplaceAllString(string(b), " ")
}

// SearchTokens generates the keyword set stored alongside a product so
// equality queries can match individual name words.
func SearchTokens(strs ...string) []string {
	tokens := make([]string, 0)
	seen := make(map[string]bool)
	for _, s := range strs {
		lower := NormalizeNameLower(s)
		if lower == "" {
			continue
		}
		if !seen[lower] {
			tokens = append(tokens, lower)
			seen[lower] = true
		}
		for _, word := range strings.Fields(lower) {
			if !seen[word] && len(word) >= 2 {
				tokens = append(tokens, word)
				seen[word] = true
			}
		}
	}
	return tokens
}
