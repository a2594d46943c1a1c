package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/okaokay/gestionale-energia/internal/textutil"
)

var legalSuffixes = map[string]struct{}{
	"srl": {}, "srls": {}, "spa": {}, "snc": {}, "sas": {}, "sapa": {},
	"scarl": {}, "scrl": {}, "sc": {}, "ss": {}, "coop": {}, "soc": {},
	"ltd": {}, "inc": {}, "gmbh": {},
}

// NameKey folds a person or company name for comparison: accents,
// punctuation and legal suffixes are removed and tokens are sorted, so
// "Rossi Mario" and "MARIO ROSSI" share a key.
func NameKey(name string) string {
	tokens := joinInitials(strings.Fields(textutil.Fold(name)))

	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := legalSuffixes[t]; ok {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}

// joinInitials merges runs of single letters, so "s r l" becomes "srl".
func joinInitials(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	run := ""
	for _, t := range tokens {
		if utf8.RuneCountInString(t) == 1 {
			run += t
			continue
		}
		if run != "" {
			out = append(out, run)
			run = ""
		}
		out = append(out, t)
	}
	if run != "" {
		out = append(out, run)
	}
	return out
}

// Similarity is the normalized Levenshtein similarity of two keys, in [0,1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
