package entities

import (
	"time"

	"focuslink/domain/core/valueobjects"
	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"
)

// ConnectionStatus is the state of a connection between two users
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
)

// ConnectionState is what one user sees about another
type ConnectionState string

const (
	StateNone      ConnectionState = "none"
	StatePending   ConnectionState = "pending"
	StateConnected ConnectionState = "connected"
)

// Connection links two users. A declined or removed connection is deleted,
// so the record only ever exists as pending or accepted.
type Connection struct {
	ID            string           `json:"id"`
	Users         [2]string        `json:"users"`
	Status        ConnectionStatus `json:"status"`
	RequestedBy   string           `json:"requestedBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	LastActivity  time.Time        `json:"lastActivity"`
	LastMessage   string           `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time       `json:"lastMessageAt,omitempty"`
	Unread        map[string]int   `json:"unread"`

	events []events.DomainEvent
}

// NewConnectionRequest creates a pending connection from one user to another
func NewConnectionRequest(from, to string) (*Connection, error) {
	cid, err := valueobjects.NewConnectionID(from, to)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	c := &Connection{
		ID:           cid.String(),
		Users:        cid.Users(),
		Status:       ConnectionPending,
		RequestedBy:  from,
		CreatedAt:    now,
		LastActivity: now,
		Unread:       map[string]int{from: 0, to: 0},
	}
	c.addEvent(events.NewConnectionEvent(events.TypeConnectionRequested, c.ID, from, to, now))
	return c, nil
}

// IsParticipant reports whether uid is one of the two users
func (c *Connection) IsParticipant(uid string) bool {
	return uid != "" && (c.Users[0] == uid || c.Users[1] == uid)
}

// Other returns the participant that is not uid
func (c *Connection) Other(uid string) string {
	if c.Users[0] == uid {
		return c.Users[1]
	}
	return c.Users[0]
}

// StateFor returns how the connection looks to uid
func (c *Connection) StateFor(uid string) ConnectionState {
	if c == nil || !c.IsParticipant(uid) {
		return StateNone
	}
	if c.Status == ConnectionAccepted {
		return StateConnected
	}
	return StatePending
}

// Accept turns a pending request into a connection. Only the user who
// received the request may accept it.
func (c *Connection) Accept(uid string) error {
	if !c.IsParticipant(uid) {
		return pkgerrors.NewForbiddenError("not a participant of this connection")
	}
	if c.Status == ConnectionAccepted {
		return pkgerrors.NewConflictError("connection already accepted").WithCode(pkgerrors.CodeAlreadyConnected)
	}
	if c.RequestedBy == uid {
		return pkgerrors.NewForbiddenError("only the recipient can accept a connection request")
	}

	c.Status = ConnectionAccepted
	c.LastActivity = time.Now().UTC()
	c.addEvent(events.NewConnectionEvent(events.TypeConnectionAccepted, c.ID, uid, c.Other(uid), c.LastActivity))
	return nil
}

// Remove records that uid declined or removed the connection. The caller
// deletes the record.
func (c *Connection) Remove(uid string) error {
	if !c.IsParticipant(uid) {
		return pkgerrors.NewForbiddenError("not a participant of this connection")
	}
	c.addEvent(events.NewConnectionEvent(events.TypeConnectionRemoved, c.ID, uid, c.Other(uid), time.Now().UTC()))
	return nil
}

// RecordMessage updates the thread summary for a message from sender: the
// receiver gains an unread message and the sender has read everything.
func (c *Connection) RecordMessage(sender, text string, at time.Time) error {
	if !c.IsParticipant(sender) {
		return pkgerrors.NewForbiddenError("not a participant of this connection")
	}
	if c.Status != ConnectionAccepted {
		return pkgerrors.NewForbiddenError("messages require an accepted connection").WithCode(pkgerrors.CodeNotConnected)
	}

	if c.Unread == nil {
		c.Unread = make(map[string]int, 2)
	}
	c.Unread[c.Other(sender)]++
	c.Unread[sender] = 0
	c.LastMessage = text
	c.LastMessageAt = &at
	c.LastActivity = at
	return nil
}

// MarkRead zeroes uid's unread count
func (c *Connection) MarkRead(uid string) {
	if c.Unread == nil {
		c.Unread = make(map[string]int, 2)
	}
	c.Unread[uid] = 0
}

// UnreadFor returns uid's unread count
func (c *Connection) UnreadFor(uid string) int {
	return c.Unread[uid]
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Connection) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Connection) MarkEventsAsCommitted() {
	c.events = nil
}

func (c *Connection) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}
