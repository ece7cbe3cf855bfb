package synergy

import "sort"

// CalculateSynergy returns the Jaccard index of a and b as a percentage
// rounded half up. Either side empty scores 0.
func CalculateSynergy(a, b KeywordSet) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	matches := intersectionSize(a, b)
	uniqueTotal := len(a) + len(b) - matches

	// round(matches/uniqueTotal*100) in integer arithmetic
	return (200*matches + uniqueTotal) / (2 * uniqueTotal)
}

// SharedKeywords returns the keywords present in both sets, sorted.
func SharedKeywords(a, b KeywordSet) []string {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := make([]string, 0)
	for w := range small {
		if _, ok := large[w]; ok {
			shared = append(shared, w)
		}
	}
	sort.Strings(shared)
	return shared
}

func intersectionSize(a, b KeywordSet) int {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	n := 0
	for w := range small {
		if _, ok := large[w]; ok {
			n++
		}
	}
	return n
}
