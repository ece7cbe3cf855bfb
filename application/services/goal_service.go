package services

import (
	"context"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"
	"focuslink/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = observability.NewTracer("services")

// GoalService manages a user's profile and goals
type GoalService struct {
	profiles  ports.ProfileRepository
	publisher ports.EventPublisher
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewGoalService creates a new goal service
func NewGoalService(
	profiles ports.ProfileRepository,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GoalService {
	return &GoalService{
		profiles:  profiles,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetProfile returns uid's profile
func (s *GoalService) GetProfile(ctx context.Context, uid string) (*entities.Profile, error) {
	return s.profiles.GetByID(ctx, uid)
}

// UpsertProfile creates the profile on first use and applies u
func (s *GoalService) UpsertProfile(ctx context.Context, uid string, u entities.ProfileUpdate) (*entities.Profile, error) {
	ctx, span := tracer.StartSpan(ctx, "UpsertProfile", attribute.String("user.id", uid))
	defer span.End()

	profile, err := s.profiles.GetByID(ctx, uid)
	switch {
	case pkgerrors.IsNotFound(err):
		name := ""
		if u.Name != nil {
			name = *u.Name
		}
		if profile, err = entities.NewProfile(uid, name, s.cfg); err != nil {
			return nil, err
		}
		s.logger.Info("Creating profile", zap.String("userID", uid))
	case err != nil:
		observability.RecordError(span, err)
		return nil, err
	}

	if err := profile.Update(u, s.cfg); err != nil {
		return nil, err
	}
	if err := s.save(ctx, profile); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return profile, nil
}

// AddGoal adds a goal to uid's profile, creating the profile if needed
func (s *GoalService) AddGoal(ctx context.Context, uid, text string, alreadyDoing bool) (entities.Goal, error) {
	profile, err := s.loadOrCreate(ctx, uid)
	if err != nil {
		return entities.Goal{}, err
	}

	goal, err := profile.AddGoal(text, alreadyDoing, s.cfg)
	if err != nil {
		return entities.Goal{}, err
	}
	if err := s.save(ctx, profile); err != nil {
		return entities.Goal{}, err
	}

	s.logger.Debug("Goal added",
		zap.String("userID", uid),
		zap.String("goalID", goal.ID),
		zap.Bool("alreadyDoing", alreadyDoing),
	)
	return goal, nil
}

// UpdateGoal edits one of uid's goals
func (s *GoalService) UpdateGoal(ctx context.Context, uid, goalID string, u entities.GoalUpdate) (entities.Goal, error) {
	profile, err := s.profiles.GetByID(ctx, uid)
	if err != nil {
		return entities.Goal{}, err
	}

	goal, err := profile.UpdateGoal(goalID, u, s.cfg)
	if err != nil {
		return entities.Goal{}, err
	}
	if err := s.save(ctx, profile); err != nil {
		return entities.Goal{}, err
	}
	return goal, nil
}

// DeleteGoal removes one of uid's goals
func (s *GoalService) DeleteGoal(ctx context.Context, uid, goalID string) error {
	profile, err := s.profiles.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	if err := profile.RemoveGoal(goalID); err != nil {
		return err
	}
	return s.save(ctx, profile)
}

// SetSpotlight makes goalID uid's spotlight goal; an empty goalID clears it
func (s *GoalService) SetSpotlight(ctx context.Context, uid, goalID string) (*entities.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := profile.SetSpotlight(goalID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateLocation records uid's coordinates for the map
func (s *GoalService) UpdateLocation(ctx context.Context, uid string, lat, lng float64) (*entities.Profile, error) {
	coords, err := valueobjects.NewCoordinates(lat, lng)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	profile, err := s.loadOrCreate(ctx, uid)
	if err != nil {
		return nil, err
	}
	profile.SetLocation(coords)
	if err := s.save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *GoalService) loadOrCreate(ctx context.Context, uid string) (*entities.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, uid)
	if pkgerrors.IsNotFound(err) {
		return entities.NewProfile(uid, "", s.cfg)
	}
	return profile, err
}

// save persists the profile, then publishes its events. Publishing failures
// are logged and do not fail the request.
func (s *GoalService) save(ctx context.Context, profile *entities.Profile) error {
	if err := s.profiles.Save(ctx, profile); err != nil {
		return err
	}
	publishEvents(ctx, s.publisher, s.logger, profile.GetUncommittedEvents())
	profile.MarkEventsAsCommitted()
	return nil
}

func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts []events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}
