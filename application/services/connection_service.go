package services

import (
	"context"
	"sort"

	"focuslink/application/ports"
	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// UserSummary is the public part of a profile shown next to connections
// and group members
type UserSummary struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
	MapEmoji string `json:"mapEmoji,omitempty"`
}

// ConnectionView is a connection as seen by one participant
type ConnectionView struct {
	*entities.Connection
	Other    UserSummary `json:"other"`
	Incoming bool        `json:"incoming"`
	Unread   int         `json:"unreadCount"`
}

// ConnectionService manages connection requests between users
type ConnectionService struct {
	connections ports.ConnectionRepository
	profiles    ports.ProfileRepository
	messages    ports.MessageRepository
	publisher   ports.EventPublisher
	metrics     ports.MetricsRecorder
	logger      *zap.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	connections ports.ConnectionRepository,
	profiles ports.ProfileRepository,
	messages ports.MessageRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *ConnectionService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &ConnectionService{
		connections: connections,
		profiles:    profiles,
		messages:    messages,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// Request sends a connection request from one user to another
func (s *ConnectionService) Request(ctx context.Context, from, to string) (*entities.Connection, error) {
	cid, err := valueobjects.NewConnectionID(from, to)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if _, err := s.profiles.GetByID(ctx, to); err != nil {
		return nil, err
	}

	existing, err := s.connections.GetByID(ctx, cid.String())
	switch {
	case err == nil:
		return nil, duplicateRequestError(existing, from)
	case !pkgerrors.IsNotFound(err):
		return nil, err
	}

	conn, err := entities.NewConnectionRequest(from, to)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, conn); err != nil {
		return nil, err
	}

	s.metrics.RecordEvent(ctx, "ConnectionRequested")
	s.logger.Info("Connection requested", zap.String("connectionID", conn.ID), zap.String("from", from))
	return conn, nil
}

// Accept accepts a pending request addressed to uid
func (s *ConnectionService) Accept(ctx context.Context, uid, connID string) (*entities.Connection, error) {
	conn, err := s.participantConnection(ctx, uid, connID)
	if err != nil {
		return nil, err
	}
	if err := conn.Accept(uid); err != nil {
		return nil, err
	}
	if err := s.save(ctx, conn); err != nil {
		return nil, err
	}

	s.metrics.RecordEvent(ctx, "ConnectionAccepted")
	return conn, nil
}

// Remove declines a pending request or removes an accepted connection. The
// direct message thread goes with it.
func (s *ConnectionService) Remove(ctx context.Context, uid, connID string) error {
	conn, err := s.participantConnection(ctx, uid, connID)
	if err != nil {
		return err
	}
	if err := conn.Remove(uid); err != nil {
		return err
	}

	if err := s.connections.Delete(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.messages.DeleteThread(ctx, conn.ID); err != nil {
		s.logger.Warn("Failed to delete connection thread", zap.String("connectionID", conn.ID), zap.Error(err))
	}
	publishEvents(ctx, s.publisher, s.logger, conn.GetUncommittedEvents())
	conn.MarkEventsAsCommitted()
	return nil
}

// Decline is Remove for a pending request
func (s *ConnectionService) Decline(ctx context.Context, uid, connID string) error {
	return s.Remove(ctx, uid, connID)
}

// List returns uid's connections, optionally filtered by status, most
// recently active first
func (s *ConnectionService) List(ctx context.Context, uid string, status entities.ConnectionStatus) ([]ConnectionView, error) {
	conns, err := s.connections.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Connection, 0, len(conns))
	otherIDs := make([]string, 0, len(conns))
	for _, c := range conns {
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
		otherIDs = append(otherIDs, c.Other(uid))
	}

	profiles, err := s.profiles.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	byID := indexProfiles(profiles)

	views := make([]ConnectionView, 0, len(filtered))
	for _, c := range filtered {
		other := c.Other(uid)
		views = append(views, ConnectionView{
			Connection: c,
			Other:      summarize(other, byID[other]),
			Incoming:   c.Status == entities.ConnectionPending && c.RequestedBy != uid,
			Unread:     c.UnreadFor(uid),
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].LastActivity.After(views[j].LastActivity)
	})
	return views, nil
}

// Status reports how uid and other are related, with the connection id when
// one exists
func (s *ConnectionService) Status(ctx context.Context, uid, other string) (entities.ConnectionState, string, error) {
	cid, err := valueobjects.NewConnectionID(uid, other)
	if err != nil {
		return entities.StateNone, "", pkgerrors.NewValidationError(err.Error())
	}

	conn, err := s.connections.GetByID(ctx, cid.String())
	if pkgerrors.IsNotFound(err) {
		return entities.StateNone, "", nil
	}
	if err != nil {
		return "", "", err
	}
	return conn.StateFor(uid), conn.ID, nil
}

func (s *ConnectionService) participantConnection(ctx context.Context, uid, connID string) (*entities.Connection, error) {
	conn, err := s.connections.GetByID(ctx, connID)
	if err != nil {
		return nil, err
	}
	if !conn.IsParticipant(uid) {
		// do not reveal connections between other users
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	return conn, nil
}

func (s *ConnectionService) save(ctx context.Context, conn *entities.Connection) error {
	if err := s.connections.Save(ctx, conn); err != nil {
		return err
	}
	publishEvents(ctx, s.publisher, s.logger, conn.GetUncommittedEvents())
	conn.MarkEventsAsCommitted()
	return nil
}

func duplicateRequestError(existing *entities.Connection, from string) error {
	switch {
	case existing.Status == entities.ConnectionAccepted:
		return pkgerrors.NewConflictError("you are already connected with this user").
			WithCode(pkgerrors.CodeAlreadyConnected)
	case existing.RequestedBy == from:
		return pkgerrors.NewConflictError("you already sent a request to this user").
			WithCode(pkgerrors.CodeRequestPending)
	default:
		return pkgerrors.NewConflictError("this user already sent you a request").
			WithCode(pkgerrors.CodeRequestReceived).
			WithDetails(map[string]interface{}{"connectionId": existing.ID})
	}
}

func summarize(uid string, p *entities.Profile) UserSummary {
	if p == nil {
		return UserSummary{UserID: uid}
	}
	return UserSummary{UserID: p.UID, Name: p.Name, PhotoURL: p.PhotoURL, MapEmoji: p.MapEmoji}
}
