// Package normalize provides the text folding and tokenization shared by the
// relevance scorer, the intent booster, and slug generation. All functions
// are pure and deterministic.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinTokenLen is the minimum length of a query token after folding.
const MinTokenLen = 2

// folder decomposes to NFD, strips combining marks, and recomposes, so that
// "résiliation" folds to "resiliation".
var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and removes diacritics. Fold is idempotent.
func Fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		// Malformed input: fall back to plain lowercasing.
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

var tokenSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize folds q and splits it into unique tokens of at least MinTokenLen
// runes. Order of first appearance is preserved so downstream candidate
// accumulation stays deterministic.
func Tokenize(q string) []string {
	parts := tokenSplit.Split(Fold(q), -1)
	seen := make(map[string]bool, len(parts))
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) < MinTokenLen || seen[p] {
			continue
		}
		seen[p] = true
		tokens = append(tokens, p)
	}
	return tokens
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\-]+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug from a title: folded, spaces to dashes,
// anything outside [a-z0-9-] removed, dashes collapsed. Never empty.
func Slugify(title string) string {
	s := strings.ReplaceAll(Fold(title), " ", "-")
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.Trim(slugCollapse.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "article"
	}
	return s
}
