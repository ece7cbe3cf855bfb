package synergy

import (
	"sort"
	"unicode/utf8"
)

// MapLabelCount is how many keywords the map shows next to a user marker.
const MapLabelCount = 2

// Labels picks the n longest keywords of set for compact display, breaking
// length ties alphabetically. It is a presentation choice over the canonical
// keyword set, not a different extraction policy.
func Labels(set KeywordSet, n int) []string {
	if n <= 0 || len(set) == 0 {
		return []string{}
	}

	words := set.Slice()
	sort.SliceStable(words, func(i, j int) bool {
		return utf8.RuneCountInString(words[i]) > utf8.RuneCountInString(words[j])
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}
