package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/synergy"
	pkgerrors "focuslink/pkg/errors"
	"focuslink/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MatchResult is another user as shown in match and search lists
type MatchResult struct {
	UserID   string          `json:"userId"`
	Name     string          `json:"name"`
	Bio      string          `json:"bio,omitempty"`
	PhotoURL string          `json:"photoURL,omitempty"`
	MapEmoji string          `json:"mapEmoji,omitempty"`
	Score    int             `json:"synergyScore"`
	Keywords []string        `json:"keywords"`
	Shared   []string        `json:"sharedKeywords"`
	Goals    []entities.Goal `json:"goals"`
}

// MatchService finds users with synergistic goals
type MatchService struct {
	profiles    ports.ProfileRepository
	connections ports.ConnectionRepository
	matchers    ports.MatcherSource
	metrics     ports.MetricsRecorder
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewMatchService creates a new match service
func NewMatchService(
	profiles ports.ProfileRepository,
	connections ports.ConnectionRepository,
	matchers ports.MatcherSource,
	metrics ports.MetricsRecorder,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MatchService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &MatchService{
		profiles:    profiles,
		connections: connections,
		matchers:    matchers,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// FindMatches ranks other active users by synergy with uid's active goals.
// Users already connected to uid, or with a pending request either way, are
// left out. A user without usable goals gets an empty list.
func (s *MatchService) FindMatches(ctx context.Context, uid string) ([]MatchResult, error) {
	ctx, span := tracer.StartSpan(ctx, "FindMatches", attribute.String("user.id", uid))
	defer span.End()
	start := time.Now()

	self, err := s.profiles.GetByID(ctx, uid)
	if pkgerrors.IsNotFound(err) {
		return []MatchResult{}, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	matcher := s.matchers.Matcher()
	selfKeywords := matcher.Extractor().Extract(self.ActiveGoalTexts()...)
	if selfKeywords.Len() == 0 {
		return []MatchResult{}, nil
	}

	others, err := s.otherProfiles(ctx, uid)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	candidates := make([]synergy.Candidate, 0, len(others))
	for _, p := range others {
		candidates = append(candidates, synergy.Candidate{ID: p.UID, Texts: p.ActiveGoalTexts()})
	}
	matches := matcher.Rank(selfKeywords, candidates)

	byID := indexProfiles(others)
	results := make([]MatchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, newMatchResult(byID[m.CandidateID], m.Score, m.Keywords, m.Shared))
	}

	span.SetAttributes(
		attribute.Int("match.candidates", len(candidates)),
		attribute.Int("match.results", len(results)),
	)
	s.metrics.RecordMatchRun(ctx, len(candidates), len(results), time.Since(start))
	s.logger.Debug("Matches computed",
		zap.String("userID", uid),
		zap.Int("keywords", selfKeywords.Len()),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(results)),
	)
	return results, nil
}

// Search finds users whose name, bio or any goal contains term, ignoring
// case. Every hit carries its synergy score with uid; hits are ordered by
// score, best first. Zero-synergy hits are kept.
func (s *MatchService) Search(ctx context.Context, uid, term string) ([]MatchResult, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, pkgerrors.NewValidationError("search term cannot be empty")
	}

	ctx, span := tracer.StartSpan(ctx, "Search", attribute.String("user.id", uid))
	defer span.End()

	matcher := s.matchers.Matcher()
	var selfKeywords synergy.KeywordSet
	self, err := s.profiles.GetByID(ctx, uid)
	switch {
	case err == nil:
		selfKeywords = matcher.Extractor().Extract(self.ActiveGoalTexts()...)
	case !pkgerrors.IsNotFound(err):
		observability.RecordError(span, err)
		return nil, err
	}

	others, err := s.otherProfiles(ctx, uid)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	results := []MatchResult{}
	for _, p := range others {
		if !profileContains(p, term) {
			continue
		}
		keywords := matcher.Extractor().Extract(p.ActiveGoalTexts()...)
		results = append(results, newMatchResult(p,
			synergy.CalculateSynergy(selfKeywords, keywords),
			keywords,
			synergy.SharedKeywords(selfKeywords, keywords),
		))
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if s.cfg.SearchLimit > 0 && len(results) > s.cfg.SearchLimit {
		results = results[:s.cfg.SearchLimit]
	}
	return results, nil
}

// Keywords returns the keyword chips for uid's active goals
func (s *MatchService) Keywords(ctx context.Context, uid string) ([]string, error) {
	profile, err := s.profiles.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.matchers.Matcher().Extractor().Extract(profile.ActiveGoalTexts()...).Slice(), nil
}

// otherProfiles returns active profiles other than uid that have no
// connection record with uid.
func (s *MatchService) otherProfiles(ctx context.Context, uid string) ([]*entities.Profile, error) {
	conns, err := s.connections.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(conns)+1)
	excluded[uid] = struct{}{}
	for _, c := range conns {
		excluded[c.Other(uid)] = struct{}{}
	}

	active, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Profile, 0, len(active))
	for _, p := range active {
		if _, skip := excluded[p.UID]; !skip {
			out = append(out, p)
		}
	}
	return out, nil
}

func profileContains(p *entities.Profile, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Bio), term) {
		return true
	}
	for _, g := range p.Goals {
		if strings.Contains(strings.ToLower(g.Text), term) {
			return true
		}
	}
	return false
}

func newMatchResult(p *entities.Profile, score int, keywords synergy.KeywordSet, shared []string) MatchResult {
	if shared == nil {
		shared = []string{}
	}
	return MatchResult{
		UserID:   p.UID,
		Name:     p.Name,
		Bio:      p.Bio,
		PhotoURL: p.PhotoURL,
		MapEmoji: p.MapEmoji,
		Score:    score,
		Keywords: keywords.Slice(),
		Shared:   shared,
		Goals:    p.ActiveGoals(),
	}
}

func indexProfiles(profiles []*entities.Profile) map[string]*entities.Profile {
	byID := make(map[string]*entities.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UID] = p
	}
	return byID
}
