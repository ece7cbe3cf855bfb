package config

import (
	"fmt"
	"os"
	"strings"

	"focuslink/domain/synergy"

	"gopkg.in/yaml.v3"
)

// SynergyTuning is the optional YAML file that overrides matching knobs.
//
//	stopwords:
//	  replace: false     # true drops the built-in list
//	  add: [hobby, goal]
//	  remove: [focus]
//	min_score: 10
//	limit: 25
type SynergyTuning struct {
	Stopwords struct {
		Replace bool     `yaml:"replace"`
		Add     []string `yaml:"add"`
		Remove  []string `yaml:"remove"`
	} `yaml:"stopwords"`
	MinScore *int   `yaml:"min_score"`
	Limit    *int   `yaml:"limit"`
	Version  string `yaml:"version"`
}

// LoadSynergyTuning reads and validates a tuning file
func LoadSynergyTuning(path string) (*SynergyTuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var t SynergyTuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects values the matcher cannot honor
func (t *SynergyTuning) Validate() error {
	if t.MinScore != nil && (*t.MinScore < 1 || *t.MinScore > 100) {
		return fmt.Errorf("min_score must be within [1, 100], got %d", *t.MinScore)
	}
	if t.Limit != nil && *t.Limit < 0 {
		return fmt.Errorf("limit cannot be negative, got %d", *t.Limit)
	}
	return nil
}

// ResolveStopwords resolves the final stopword list against the built-in one
func (t *SynergyTuning) ResolveStopwords() []string {
	base := synergy.DefaultStopwords()
	if t.Stopwords.Replace {
		base = []string{}
	}

	// entries are compared the way the extractor stores them
	removed := make(map[string]struct{}, len(t.Stopwords.Remove))
	for _, w := range t.Stopwords.Remove {
		removed[normalizeStopword(w)] = struct{}{}
	}

	out := make([]string, 0, len(base)+len(t.Stopwords.Add))
	for _, w := range append(base, t.Stopwords.Add...) {
		if _, skip := removed[normalizeStopword(w)]; !skip {
			out = append(out, w)
		}
	}
	return out
}

func normalizeStopword(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// BuildMatcher creates a matcher from the env defaults with t applied on
// top. A nil t uses the defaults alone.
func BuildMatcher(cfg *Config, t *SynergyTuning) *synergy.Matcher {
	minScore, limit := cfg.MatchMinScore, cfg.MatchLimit
	var extractor *synergy.Extractor
	if t != nil {
		extractor = synergy.NewExtractor(t.ResolveStopwords())
		if t.MinScore != nil {
			minScore = *t.MinScore
		}
		if t.Limit != nil {
			limit = *t.Limit
		}
	}
	return synergy.NewMatcher(extractor, synergy.WithMinScore(minScore), synergy.WithLimit(limit))
}
