// Package synergy holds the goal matching core: keyword extraction from free
// text, Jaccard scoring between keyword sets, and ranking of candidates.
// Everything here is pure and safe for concurrent use.
package synergy

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordLength is the shortest token (in runes) kept as a keyword.
const minKeywordLength = 3

// KeywordSet is a set of lowercase keywords
type KeywordSet map[string]struct{}

// NewKeywordSet builds a set from the given words as-is.
func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Len returns the number of keywords in the set
func (s KeywordSet) Len() int {
	return len(s)
}

// Contains reports whether word is in the set
func (s KeywordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Slice returns the keywords sorted alphabetically
func (s KeywordSet) Slice() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// MarshalJSON encodes the set as a sorted array
func (s KeywordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of keywords
func (s *KeywordSet) UnmarshalJSON(data []byte) error {
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return err
	}
	*s = NewKeywordSet(words...)
	return nil
}

// Extractor turns goal texts into keyword sets using a fixed stopword set.
// The stopword set is copied at construction and never mutated.
type Extractor struct {
	stopwords map[string]struct{}
}

// NewExtractor creates an extractor with the given stopwords.
// A nil slice selects the default list; an empty non-nil slice disables filtering.
func NewExtractor(stopwords []string) *Extractor {
	if stopwords == nil {
		stopwords = defaultStopwords
	}

	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Extractor{stopwords: set}
}

// IsStopword reports whether the lowercase word is filtered out
func (e *Extractor) IsStopword(word string) bool {
	_, ok := e.stopwords[word]
	return ok
}

// Extract joins texts with a space, lowercases, tokenizes on runs of
// non-alphanumeric characters and keeps the tokens that are at least three
// runes long, not purely numeric and not stopwords.
func (e *Extractor) Extract(texts ...string) KeywordSet {
	keywords := make(KeywordSet)
	if len(texts) == 0 {
		return keywords
	}

	all := strings.ToLower(strings.Join(texts, " "))
	for _, token := range strings.FieldsFunc(all, isSeparator) {
		if utf8.RuneCountInString(token) < minKeywordLength {
			continue
		}
		if isNumeric(token) {
			continue
		}
		if e.IsStopword(token) {
			continue
		}
		keywords[token] = struct{}{}
	}

	return keywords
}

var defaultExtractor = NewExtractor(nil)

// ExtractKeywords extracts keywords with the default stopword list.
func ExtractKeywords(texts []string) KeywordSet {
	return defaultExtractor.Extract(texts...)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
