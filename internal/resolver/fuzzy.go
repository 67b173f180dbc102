package resolver

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ratio is the normalized levenshtein similarity between two strings,
// bounded in [0,1].
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > la {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// tokenSet returns the sorted set of unique whitespace-separated tokens.
func tokenSet(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TokenSetRatio computes a token-set based similarity between two
// normalized strings: the token sets are split into their intersection
// and differences, and the best pairwise levenshtein ratio of the
// recombined strings wins. A token set that fully contains the other
// scores 1.0, so an alias appearing whole inside a longer description
// is a maximal fuzzy match. Deterministic and bounded in [0,1].
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		if len(setA) == 0 && len(setB) == 0 {
			return 1.0
		}
		return 0.0
	}

	inB := make(map[string]struct{}, len(setB))
	for _, t := range setB {
		inB[t] = struct{}{}
	}
	inA := make(map[string]struct{}, len(setA))
	for _, t := range setA {
		inA[t] = struct{}{}
	}

	var intersection, diffA, diffB []string
	for _, t := range setA {
		if _, ok := inB[t]; ok {
			intersection = append(intersection, t)
		} else {
			diffA = append(diffA, t)
		}
	}
	for _, t := range setB {
		if _, ok := inA[t]; !ok {
			diffB = append(diffB, t)
		}
	}

	base := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	best := ratio(base, combinedA)
	if r := ratio(base, combinedB); r > best {
		best = r
	}
	if r := ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}
