package dedup

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// corporateSuffixes are stripped from normalized strings so "Acme Inc" and
// "Acme" fingerprint identically.
var corporateSuffixes = map[string]struct{}{
	"inc": {}, "ltd": {}, "llc": {}, "corp": {},
	"corporation": {}, "company": {}, "co": {},
}

// Normalize lowercases, strips punctuation, collapses whitespace, and
// removes common corporate suffix words.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, skip := corporateSuffixes[w]; !skip {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}

// PairKey is the normalized (title, company) fingerprint.
func PairKey(p jobs.Posting) string {
	return Normalize(p.Title) + "|" + Normalize(p.Company)
}

// ContentHash fingerprints a posting by its normalized title, company,
// location, and type plus the raw source name.
func ContentHash(p jobs.Posting) string {
	components := []string{
		Normalize(p.Title),
		Normalize(p.Company),
		Normalize(p.Location),
		Normalize(p.Type),
		p.Source,
	}
	return strings.Join(components, "|")
}

// Similarity returns the normalized edit-distance similarity of two
// strings: 1 - levenshtein/longerLength, in [0, 1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	longer := len([]rune(a))
	if lb := len([]rune(b)); lb > longer {
		longer = lb
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(longer-dist) / float64(longer)
}
