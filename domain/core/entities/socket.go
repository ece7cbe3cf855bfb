package entities

import (
	"time"

	pkgerrors "focuslink/pkg/errors"
)

// Socket is a live WebSocket connection of a signed-in user. The id is the
// one API Gateway assigned to the connection.
type Socket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ConnectedAt time.Time `json:"connectedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// NewSocket registers a connection that is considered stale after ttl
func NewSocket(id, uid string, ttl time.Duration) (*Socket, error) {
	if id == "" || uid == "" {
		return nil, pkgerrors.NewValidationError("socket id and user are required")
	}
	now := time.Now().UTC()
	return &Socket{ID: id, UserID: uid, ConnectedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

// Expired reports whether the socket outlived its ttl at t
func (s *Socket) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}
