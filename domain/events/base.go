package events

import "time"

// Event types published to the event bus
const (
	TypeGoalsChanged        = "goals.changed"
	TypeProfileUpdated      = "profile.updated"
	TypeConnectionRequested = "connection.requested"
	TypeConnectionAccepted  = "connection.accepted"
	TypeConnectionRemoved   = "connection.removed"
	TypeGroupCreated        = "group.created"
	TypeGroupMembersChanged = "group.members_changed"
	TypeGroupDeleted        = "group.deleted"
	TypeMessageSent         = "message.sent"
	TypeMatchesRefreshed    = "matches.refreshed"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, ts time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   ts,
		Version:     1,
	}
}

// Profile events

// GoalsChanged is raised whenever a user's goal list changes. Consumers
// recompute that user's matches; ActiveGoals carries the texts to avoid a read.
type GoalsChanged struct {
	BaseEvent
	UserID      string   `json:"user_id"`
	GoalID      string   `json:"goal_id,omitempty"`
	Change      string   `json:"change"`
	ActiveGoals []string `json:"active_goals"`
}

// NewGoalsChanged creates a GoalsChanged event
func NewGoalsChanged(userID, goalID, change string, activeGoals []string, ts time.Time) GoalsChanged {
	return GoalsChanged{
		BaseEvent:   newBase(userID, TypeGoalsChanged, ts),
		UserID:      userID,
		GoalID:      goalID,
		Change:      change,
		ActiveGoals: activeGoals,
	}
}

// ProfileUpdated is raised when profile details change
type ProfileUpdated struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewProfileUpdated creates a ProfileUpdated event
func NewProfileUpdated(userID string, ts time.Time) ProfileUpdated {
	return ProfileUpdated{BaseEvent: newBase(userID, TypeProfileUpdated, ts), UserID: userID}
}

// Connection events

// ConnectionEvent covers request, accept and removal of a connection
type ConnectionEvent struct {
	BaseEvent
	ConnectionID string `json:"connection_id"`
	ActorID      string `json:"actor_id"`
	OtherID      string `json:"other_id"`
}

// NewConnectionEvent creates a connection event of the given type
func NewConnectionEvent(eventType, connectionID, actorID, otherID string, ts time.Time) ConnectionEvent {
	return ConnectionEvent{
		BaseEvent:    newBase(connectionID, eventType, ts),
		ConnectionID: connectionID,
		ActorID:      actorID,
		OtherID:      otherID,
	}
}

// Group events

// GroupEvent is raised on group lifecycle and membership changes
type GroupEvent struct {
	BaseEvent
	GroupID string   `json:"group_id"`
	ActorID string   `json:"actor_id"`
	Members []string `json:"members,omitempty"`
}

// NewGroupEvent creates a group event of the given type
func NewGroupEvent(eventType, groupID, actorID string, members []string, ts time.Time) GroupEvent {
	return GroupEvent{
		BaseEvent: newBase(groupID, eventType, ts),
		GroupID:   groupID,
		ActorID:   actorID,
		Members:   members,
	}
}

// MessageSent is raised for every direct or group message
type MessageSent struct {
	BaseEvent
	ThreadID   string   `json:"thread_id"`
	MessageID  string   `json:"message_id"`
	SenderID   string   `json:"sender_id"`
	Recipients []string `json:"recipients"`
}

// NewMessageSent creates a MessageSent event
func NewMessageSent(threadID, messageID, senderID string, recipients []string, ts time.Time) MessageSent {
	return MessageSent{
		BaseEvent:  newBase(threadID, TypeMessageSent, ts),
		ThreadID:   threadID,
		MessageID:  messageID,
		SenderID:   senderID,
		Recipients: recipients,
	}
}

// Matching events

// MatchesRefreshed is raised after a user's matches were recomputed
type MatchesRefreshed struct {
	BaseEvent
	UserID   string   `json:"user_id"`
	MatchIDs []string `json:"match_ids"`
	TopScore int      `json:"top_score"`
	Total    int      `json:"total"`
}

// NewMatchesRefreshed creates a MatchesRefreshed event
func NewMatchesRefreshed(userID string, matchIDs []string, topScore, total int, ts time.Time) MatchesRefreshed {
	return MatchesRefreshed{
		BaseEvent: newBase(userID, TypeMatchesRefreshed, ts),
		UserID:    userID,
		MatchIDs:  matchIDs,
		TopScore:  topScore,
		Total:     total,
	}
}
