package synergy

import "sort"

// Candidate is a user considered for matching, described by the texts of
// their active goals.
type Candidate struct {
	ID    string
	Texts []string
}

// Match is a scored candidate
type Match struct {
	CandidateID string     `json:"candidateId"`
	Score       int        `json:"score"`
	Keywords    KeywordSet `json:"keywords"`
	Shared      []string   `json:"shared"`
}

// Matcher scores candidates against a user's keywords and orders them.
type Matcher struct {
	extractor *Extractor
	minScore  int
	limit     int
}

// MatcherOption configures a Matcher
type MatcherOption func(*Matcher)

// WithMinScore keeps only matches scoring at least min. Values below 1 are
// raised to 1 so zero-synergy candidates are never returned.
func WithMinScore(min int) MatcherOption {
	return func(m *Matcher) {
		if min < 1 {
			min = 1
		}
		m.minScore = min
	}
}

// WithLimit caps the number of returned matches; 0 means unlimited.
func WithLimit(limit int) MatcherOption {
	return func(m *Matcher) {
		if limit < 0 {
			limit = 0
		}
		m.limit = limit
	}
}

// NewMatcher creates a matcher. A nil extractor uses the default stopwords.
func NewMatcher(extractor *Extractor, opts ...MatcherOption) *Matcher {
	if extractor == nil {
		extractor = defaultExtractor
	}

	m := &Matcher{
		extractor: extractor,
		minScore:  1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Extractor returns the extractor used for candidates
func (m *Matcher) Extractor() *Extractor {
	return m.extractor
}

// Rank extracts each candidate's keywords, scores them against self and
// returns the qualifying matches, best first.
func (m *Matcher) Rank(self KeywordSet, candidates []Candidate) []Match {
	if len(self) == 0 || len(candidates) == 0 {
		return []Match{}
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		keywords := m.extractor.Extract(c.Texts...)
		matches = append(matches, Match{
			CandidateID: c.ID,
			Score:       CalculateSynergy(self, keywords),
			Keywords:    keywords,
			Shared:      SharedKeywords(self, keywords),
		})
	}

	return m.Select(matches)
}

// Select drops matches under the minimum score, sorts the rest by score
// descending (stable, so equal scores keep input order) and applies the limit.
func (m *Matcher) Select(matches []Match) []Match {
	kept := make([]Match, 0, len(matches))
	for _, match := range matches {
		if match.Score >= m.minScore {
			kept = append(kept, match)
		}
	}

	SortByScore(kept)

	if m.limit > 0 && len(kept) > m.limit {
		kept = kept[:m.limit]
	}
	return kept
}

// SortByScore orders matches by score descending, keeping input order on ties.
func SortByScore(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// MinScore returns the lowest score a match needs to be kept
func (m *Matcher) MinScore() int {
	return m.minScore
}

// Limit returns the maximum number of matches, 0 meaning unlimited
func (m *Matcher) Limit() int {
	return m.limit
}
