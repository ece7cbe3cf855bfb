package entities

import (
	"sort"
	"strings"
	"time"

	"focuslink/domain/config"
	"focuslink/domain/core/valueobjects"
	pkgerrors "focuslink/pkg/errors"
)

// MessageType is the kind of message content
type MessageType string

const MessageTypeText MessageType = "text"

// ThreadKind tells direct threads from group threads
type ThreadKind string

const (
	ThreadDirect ThreadKind = "direct"
	ThreadGroup  ThreadKind = "group"
)

// Message is one entry in a direct or group thread. The thread id is the
// connection id or the group id.
type Message struct {
	ID       string      `json:"id"`
	ThreadID string      `json:"threadId"`
	Kind     ThreadKind  `json:"kind"`
	SenderID string      `json:"senderId"`
	Text     string      `json:"text"`
	Type     MessageType `json:"type"`
	SentAt   time.Time   `json:"sentAt"`
	Read     bool        `json:"read"`
}

// NewMessage validates and creates a text message
func NewMessage(threadID string, kind ThreadKind, senderID, text string, cfg *config.DomainConfig) (*Message, error) {
	if threadID == "" || senderID == "" {
		return nil, pkgerrors.NewValidationError("thread and sender are required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.NewValidationError("message text cannot be empty")
	}
	if err := validateLength("message", text, cfg.MaxMessageLength); err != nil {
		return nil, err
	}

	return &Message{
		ID:       valueobjects.NewID(),
		ThreadID: threadID,
		Kind:     kind,
		SenderID: senderID,
		Text:     text,
		Type:     MessageTypeText,
		SentAt:   time.Now().UTC(),
	}, nil
}

// SortMessages orders messages oldest first, breaking ties by id
func SortMessages(msgs []*Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}
