package services

import (
	"context"
	"fmt"
	"time"

	"focuslink/application/ports"
	"focuslink/domain/events"

	"go.uber.org/zap"
)

// refreshTopN is how many match ids a MatchesRefreshed event carries
const refreshTopN = 10

// MatchRefresher recomputes a user's matches when their goals change and
// announces the result, so clients can refresh their match list.
type MatchRefresher struct {
	matches   *MatchService
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewMatchRefresher creates a new match refresher
func NewMatchRefresher(matches *MatchService, publisher ports.EventPublisher, logger *zap.Logger) *MatchRefresher {
	return &MatchRefresher{matches: matches, publisher: publisher, logger: logger}
}

// Handle consumes a domain event. Events other than GoalsChanged are ignored.
func (r *MatchRefresher) Handle(ctx context.Context, event events.DomainEvent) error {
	switch e := event.(type) {
	case events.GoalsChanged:
		return r.Refresh(ctx, e.UserID)
	case *events.GoalsChanged:
		return r.Refresh(ctx, e.UserID)
	default:
		return nil
	}
}

// Refresh ranks uid's matches and publishes a MatchesRefreshed event
func (r *MatchRefresher) Refresh(ctx context.Context, uid string) error {
	if uid == "" {
		return fmt.Errorf("refresh matches: empty user id")
	}

	start := time.Now()
	results, err := r.matches.FindMatches(ctx, uid)
	if err != nil {
		return fmt.Errorf("refresh matches for %s: %w", uid, err)
	}

	ids := make([]string, 0, refreshTopN)
	for i, m := range results {
		if i == refreshTopN {
			break
		}
		ids = append(ids, m.UserID)
	}
	top := 0
	if len(results) > 0 {
		top = results[0].Score
	}

	r.logger.Info("Matches refreshed",
		zap.String("userID", uid),
		zap.Int("matches", len(results)),
		zap.Int("topScore", top),
		zap.Duration("duration", time.Since(start)),
	)

	if r.publisher == nil {
		return nil
	}
	evt := events.NewMatchesRefreshed(uid, ids, top, len(results), time.Now().UTC())
	if err := r.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish matches refreshed: %w", err)
	}
	return nil
}
