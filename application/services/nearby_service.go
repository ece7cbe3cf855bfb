package services

import (
	"context"
	"sort"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	"focuslink/domain/synergy"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// NearbyUser is a map marker for another user
type NearbyUser struct {
	UserSummary
	Coordinates   valueobjects.Coordinates `json:"coordinates"`
	DistanceMiles float64                  `json:"distanceMiles"`
	Spotlight     *entities.Goal           `json:"spotlightGoal,omitempty"`
	Labels        []string                 `json:"labels"`
	Score         int                      `json:"synergyScore"`
	Connection    entities.ConnectionState `json:"connection"`
}

// SameGoalUser is a user with a goal resembling a given text
type SameGoalUser struct {
	UserSummary
	Goal  entities.Goal `json:"goal"`
	Score int           `json:"synergyScore"`
}

// NearbyService powers the map: who is around and who shares a goal
type NearbyService struct {
	profiles    ports.ProfileRepository
	connections ports.ConnectionRepository
	matchers    ports.MatcherSource
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewNearbyService creates a new nearby service
func NewNearbyService(
	profiles ports.ProfileRepository,
	connections ports.ConnectionRepository,
	matchers ports.MatcherSource,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *NearbyService {
	return &NearbyService{
		profiles:    profiles,
		connections: connections,
		matchers:    matchers,
		cfg:         cfg,
		logger:      logger,
	}
}

// Nearby lists users sharing their location within radiusMiles of center,
// closest first. A nil center uses uid's stored location; a radius of 0
// means no limit.
func (s *NearbyService) Nearby(ctx context.Context, uid string, center *valueobjects.Coordinates, radiusMiles float64) ([]NearbyUser, error) {
	if radiusMiles < 0 {
		return nil, pkgerrors.NewValidationError("radius cannot be negative")
	}
	if radiusMiles == 0 {
		radiusMiles = s.cfg.DefaultRadiusMiles
	}
	if s.cfg.MaxRadiusMiles > 0 && radiusMiles > s.cfg.MaxRadiusMiles {
		radiusMiles = s.cfg.MaxRadiusMiles
	}

	ctx, span := tracer.StartSpan(ctx, "Nearby")
	defer span.End()

	matcher := s.matchers.Matcher()
	var selfKeywords synergy.KeywordSet
	self, err := s.profiles.GetByID(ctx, uid)
	switch {
	case err == nil:
		selfKeywords = matcher.Extractor().Extract(self.ActiveGoalTexts()...)
		if center == nil {
			center = self.Coordinates
		}
	case !pkgerrors.IsNotFound(err):
		return nil, err
	}
	if center == nil {
		return nil, pkgerrors.NewValidationError("a location is required to find nearby users")
	}

	states, err := s.connectionStates(ctx, uid)
	if err != nil {
		return nil, err
	}
	active, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := []NearbyUser{}
	for _, p := range active {
		if p.UID == uid || p.Coordinates == nil || !p.SharesLocation() {
			continue
		}
		dist := center.DistanceMiles(*p.Coordinates)
		if radiusMiles > 0 && dist > radiusMiles {
			continue
		}

		user := NearbyUser{
			UserSummary:   summarize(p.UID, p),
			Coordinates:   *p.Coordinates,
			DistanceMiles: dist,
			Labels:        []string{},
			Score:         synergy.CalculateSynergy(selfKeywords, matcher.Extractor().Extract(p.ActiveGoalTexts()...)),
			Connection:    entities.StateNone,
		}
		if state, ok := states[p.UID]; ok {
			user.Connection = state
		}
		if goal, ok := p.SpotlightGoal(); ok {
			g := goal
			user.Spotlight = &g
			user.Labels = synergy.Labels(matcher.Extractor().Extract(goal.Text), s.cfg.MapLabelCount)
		}
		out = append(out, user)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMiles < out[j].DistanceMiles })
	return out, nil
}

// SameGoal finds users with an active goal whose keywords overlap text.
// alreadyDoing, when set, keeps only goals with that status. Each user
// appears once, with their best-scoring goal; results are best first.
func (s *NearbyService) SameGoal(ctx context.Context, uid, text string, alreadyDoing *bool) ([]SameGoalUser, error) {
	extractor := s.matchers.Matcher().Extractor()
	target := extractor.Extract(text)
	if target.Len() == 0 {
		return nil, pkgerrors.NewValidationError("goal text has no usable keywords")
	}

	active, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := []SameGoalUser{}
	for _, p := range active {
		if p.UID == uid {
			continue
		}
		best := SameGoalUser{}
		for _, g := range p.ActiveGoals() {
			if alreadyDoing != nil && g.AlreadyDoing != *alreadyDoing {
				continue
			}
			score := synergy.CalculateSynergy(target, extractor.Extract(g.Text))
			if score > best.Score {
				best = SameGoalUser{UserSummary: summarize(p.UID, p), Goal: g, Score: score}
			}
		}
		if best.Score > 0 {
			out = append(out, best)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *NearbyService) connectionStates(ctx context.Context, uid string) (map[string]entities.ConnectionState, error) {
	conns, err := s.connections.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	states := make(map[string]entities.ConnectionState, len(conns))
	for _, c := range conns {
		states[c.Other(uid)] = c.StateFor(uid)
	}
	return states, nil
}
