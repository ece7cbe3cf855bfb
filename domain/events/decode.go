package events

import (
	"encoding/json"
	"fmt"
)

// Decode rebuilds an event from the JSON detail it was published with
func Decode(eventType string, detail []byte) (DomainEvent, error) {
	var (
		event DomainEvent
		err   error
	)
	switch eventType {
	case TypeGoalsChanged:
		event, err = decodeAs[GoalsChanged](detail)
	case TypeProfileUpdated:
		event, err = decodeAs[ProfileUpdated](detail)
	case TypeConnectionRequested, TypeConnectionAccepted, TypeConnectionRemoved:
		event, err = decodeAs[ConnectionEvent](detail)
	case TypeGroupCreated, TypeGroupMembersChanged, TypeGroupDeleted:
		event, err = decodeAs[GroupEvent](detail)
	case TypeMessageSent:
		event, err = decodeAs[MessageSent](detail)
	case TypeMatchesRefreshed:
		event, err = decodeAs[MatchesRefreshed](detail)
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	if event.GetEventType() != eventType {
		return nil, fmt.Errorf("detail carries event type %q, want %q", event.GetEventType(), eventType)
	}
	return event, nil
}

func decodeAs[T DomainEvent](detail []byte) (DomainEvent, error) {
	var v T
	if err := json.Unmarshal(detail, &v); err != nil {
		return nil, err
	}
	return v, nil
}
