package detection

import (
	"github.com/pmezard/go-difflib/difflib"
)

// SequenceRatio is the character-level alignment ratio 2*M/T of a and b,
// where M is the number of characters in matching blocks and T the total
// number of characters in both strings. Two empty strings score 1.
func SequenceRatio(a, b string) float64 {
	m := difflib.NewMatcher(runeStrings(a), runeStrings(b))
	return m.Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
