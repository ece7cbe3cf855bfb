package ports

import (
	"context"
	"errors"
	"time"

	"focuslink/domain/core/entities"
	"focuslink/domain/events"
	"focuslink/domain/synergy"
)

// ProfileRepository defines the interface for profile persistence.
// Implementations return a NotFound AppError for missing profiles.
type ProfileRepository interface {
	// Save persists a profile with its goals (create or update)
	Save(ctx context.Context, profile *entities.Profile) error

	// GetByID retrieves a profile by user id
	GetByID(ctx context.Context, uid string) (*entities.Profile, error)

	// GetByIDs retrieves the profiles that exist among uids, in no particular order
	GetByIDs(ctx context.Context, uids []string) ([]*entities.Profile, error)

	// ListActive returns every active profile
	ListActive(ctx context.Context) ([]*entities.Profile, error)
}

// ConnectionRepository defines the interface for connection persistence
type ConnectionRepository interface {
	Save(ctx context.Context, conn *entities.Connection) error
	GetByID(ctx context.Context, id string) (*entities.Connection, error)
	Delete(ctx context.Context, id string) error

	// ListByUser returns all connections (any status) uid takes part in
	ListByUser(ctx context.Context, uid string) ([]*entities.Connection, error)
}

// GroupRepository defines the interface for group persistence
type GroupRepository interface {
	Save(ctx context.Context, group *entities.Group) error
	GetByID(ctx context.Context, id string) (*entities.Group, error)
	Delete(ctx context.Context, id string) error

	// ListByMember returns the groups uid belongs to
	ListByMember(ctx context.Context, uid string) ([]*entities.Group, error)
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	Save(ctx context.Context, msg *entities.Message) error

	// ListByThread returns up to limit messages of a thread, oldest first.
	// A limit of 0 returns the whole thread.
	ListByThread(ctx context.Context, threadID string, limit int) ([]*entities.Message, error)

	// MarkRead flags every message in the thread not sent by readerID as read
	// and returns how many changed.
	MarkRead(ctx context.Context, threadID, readerID string) (int, error)

	// DeleteByIDs removes the given messages from a thread
	DeleteByIDs(ctx context.Context, threadID string, ids []string) error

	// DeleteThread removes every message of a thread
	DeleteThread(ctx context.Context, threadID string) error
}

// SocketRepository stores the live WebSocket connections of users
type SocketRepository interface {
	Save(ctx context.Context, socket *entities.Socket) error

	// Delete removes a socket. Deleting a missing socket is not an error.
	Delete(ctx context.Context, id string) error

	// ListByUser returns the unexpired sockets of uid
	ListByUser(ctx context.Context, uid string) ([]*entities.Socket, error)
}

// ErrSocketGone is returned by a Pusher when the client has disconnected
var ErrSocketGone = errors.New("socket is gone")

// Pusher delivers a payload to one live socket
type Pusher interface {
	Push(ctx context.Context, socketID string, payload []byte) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// MetricsRecorder receives business metrics from services
type MetricsRecorder interface {
	// RecordMatchRun reports one matching pass
	RecordMatchRun(ctx context.Context, candidates, matches int, duration time.Duration)

	// RecordEvent counts a named business event, e.g. "ConnectionAccepted"
	RecordEvent(ctx context.Context, name string)
}

// MatcherSource hands out the current matcher. The tuning watcher swaps the
// matcher at runtime, so services ask for it on every call.
type MatcherSource interface {
	Matcher() *synergy.Matcher
}

// MatcherFunc adapts a function to MatcherSource
type MatcherFunc func() *synergy.Matcher

// Matcher implements MatcherSource
func (f MatcherFunc) Matcher() *synergy.Matcher { return f() }

// StaticMatcher always returns m
func StaticMatcher(m *synergy.Matcher) MatcherSource {
	return MatcherFunc(func() *synergy.Matcher { return m })
}

// NoopMetrics discards all metrics
type NoopMetrics struct{}

func (NoopMetrics) RecordMatchRun(context.Context, int, int, time.Duration) {}
func (NoopMetrics) RecordEvent(context.Context, string)                     {}
