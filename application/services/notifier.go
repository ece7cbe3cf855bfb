package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/events"

	"go.uber.org/zap"
)

// PushedEventTypes are the events Handle delivers to clients
var PushedEventTypes = []string{
	events.TypeConnectionRequested,
	events.TypeConnectionAccepted,
	events.TypeConnectionRemoved,
	events.TypeGroupCreated,
	events.TypeGroupMembersChanged,
	events.TypeMessageSent,
	events.TypeMatchesRefreshed,
}

// Notification is the frame pushed to a client socket
type Notification struct {
	Type string             `json:"type"`
	Sent time.Time          `json:"sent"`
	Data events.DomainEvent `json:"data"`
}

// Notifier keeps track of live sockets and pushes domain events to the
// users they concern.
type Notifier struct {
	sockets ports.SocketRepository
	pusher  ports.Pusher
	metrics ports.MetricsRecorder
	cfg     *config.DomainConfig
	logger  *zap.Logger
}

// NewNotifier creates a notifier. With a nil pusher sockets are still
// tracked but nothing is delivered.
func NewNotifier(
	sockets ports.SocketRepository,
	pusher ports.Pusher,
	metrics ports.MetricsRecorder,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *Notifier {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &Notifier{sockets: sockets, pusher: pusher, metrics: metrics, cfg: cfg, logger: logger}
}

// Connect registers a socket opened by uid
func (n *Notifier) Connect(ctx context.Context, socketID, uid string) error {
	socket, err := entities.NewSocket(socketID, uid, n.cfg.SocketTTL)
	if err != nil {
		return err
	}
	if err := n.sockets.Save(ctx, socket); err != nil {
		return err
	}
	n.logger.Info("Socket connected", zap.String("socketID", socketID), zap.String("userID", uid))
	return nil
}

// Disconnect forgets a socket
func (n *Notifier) Disconnect(ctx context.Context, socketID string) error {
	if err := n.sockets.Delete(ctx, socketID); err != nil {
		return err
	}
	n.logger.Info("Socket disconnected", zap.String("socketID", socketID))
	return nil
}

// Handle pushes an event to everyone it concerns except the user who
// caused it. Events with no audience are ignored.
func (n *Notifier) Handle(ctx context.Context, event events.DomainEvent) error {
	uids := audience(event)
	if len(uids) == 0 {
		return nil
	}
	_, err := n.Notify(ctx, uids, Notification{
		Type: event.GetEventType(),
		Sent: time.Now().UTC(),
		Data: event,
	})
	return err
}

// Notify pushes the notification to every live socket of uids and returns
// how many sockets received it. Sockets whose client went away are removed.
func (n *Notifier) Notify(ctx context.Context, uids []string, note Notification) (int, error) {
	if n.pusher == nil {
		n.logger.Debug("No pusher configured, dropping notification", zap.String("type", note.Type))
		return 0, nil
	}

	payload, err := json.Marshal(note)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notification: %w", err)
	}

	delivered := 0
	var errs []error
	for _, uid := range uids {
		sockets, err := n.sockets.ListByUser(ctx, uid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, s := range sockets {
			err := n.pusher.Push(ctx, s.ID, payload)
			switch {
			case err == nil:
				delivered++
			case errors.Is(err, ports.ErrSocketGone):
				if err := n.sockets.Delete(ctx, s.ID); err != nil {
					n.logger.Warn("Failed to remove stale socket", zap.String("socketID", s.ID), zap.Error(err))
				}
			default:
				errs = append(errs, err)
			}
		}
	}

	if delivered > 0 {
		n.metrics.RecordEvent(ctx, "NotificationDelivered")
	}
	n.logger.Debug("Notification pushed",
		zap.String("type", note.Type),
		zap.Int("users", len(uids)),
		zap.Int("delivered", delivered),
	)
	return delivered, errors.Join(errs...)
}

// audience lists the users an event should reach
func audience(event events.DomainEvent) []string {
	switch e := event.(type) {
	case events.MessageSent:
		return e.Recipients
	case events.ConnectionEvent:
		return []string{e.OtherID}
	case events.GroupEvent:
		out := make([]string, 0, len(e.Members))
		for _, uid := range e.Members {
			if uid != e.ActorID {
				out = append(out, uid)
			}
		}
		return out
	case events.MatchesRefreshed:
		return []string{e.UserID}
	default:
		return nil
	}
}
