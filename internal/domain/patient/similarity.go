package patient

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity scores are integers on a 0..100 scale. Strings are compared
// rune by rune with difflib's matcher, which scores 2*M/T where M is the
// number of matched runes and T the combined length.

// runes splits s into one-rune strings, the sequence element difflib compares
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func toScore(r float64) int {
	return int(math.RoundToEven(100 * r))
}

// Ratio is the plain similarity of two strings.
func Ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	return toScore(difflib.NewMatcher(runes(s1), runes(s2)).Ratio())
}

// PartialRatio scores the best alignment of the shorter string against
// same-length windows of the longer one, so "Иван" inside "Иванушка" is 100.
func PartialRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	shorter, longer := runes(s1), runes(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, blk := range difflib.NewMatcher(shorter, longer).GetMatchingBlocks() {
		start := max(0, blk.B-blk.A)
		end := min(start+len(shorter), len(longer))
		r := difflib.NewMatcher(shorter, longer[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return toScore(best)
}

// TokenSetRatio compares the sorted token intersection and differences of
// both strings with Ratio.
func TokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, Ratio)
}

// PartialTokenSetRatio is TokenSetRatio scored with PartialRatio.
func PartialTokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, PartialRatio)
}

func tokenSet(s1, s2 string, score func(string, string) int) int {
	p1, p2 := processText(s1), processText(s2)
	if p1 == "" || p2 == "" {
		return 0
	}

	tokens1, tokens2 := tokenSetOf(p1), tokenSetOf(p2)
	var sect, only1, only2 []string
	for t := range tokens1 {
		if _, ok := tokens2[t]; ok {
			sect = append(sect, t)
		} else {
			only1 = append(only1, t)
		}
	}
	for t := range tokens2 {
		if _, ok := tokens1[t]; !ok {
			only2 = append(only2, t)
		}
	}
	slices.Sort(sect)
	slices.Sort(only1)
	slices.Sort(only2)

	sorted := strings.Join(sect, " ")
	combined1 := strings.TrimSpace(sorted + " " + strings.Join(only1, " "))
	combined2 := strings.TrimSpace(sorted + " " + strings.Join(only2, " "))

	return max(
		score(sorted, combined1),
		score(sorted, combined2),
		score(combined1, combined2),
	)
}

func tokenSetOf(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

// processText lowercases s and turns every rune that is not a letter or a
// digit into a single separating space.
func processText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
