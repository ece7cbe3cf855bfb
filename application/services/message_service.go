package services

import (
	"context"
	"time"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// MessageService sends and manages direct and group messages. A thread id is
// either a connection id or a group id.
type MessageService struct {
	messages    ports.MessageRepository
	connections ports.ConnectionRepository
	groups      ports.GroupRepository
	publisher   ports.EventPublisher
	metrics     ports.MetricsRecorder
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(
	messages ports.MessageRepository,
	connections ports.ConnectionRepository,
	groups ports.GroupRepository,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MessageService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &MessageService{
		messages:    messages,
		connections: connections,
		groups:      groups,
		publisher:   publisher,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// thread is a loaded direct or group thread
type thread struct {
	conn  *entities.Connection
	group *entities.Group
}

func (t thread) id() string {
	if t.conn != nil {
		return t.conn.ID
	}
	return t.group.ID
}

func (t thread) recordMessage(sender, text string, at time.Time) error {
	if t.conn != nil {
		return t.conn.RecordMessage(sender, text, at)
	}
	return t.group.RecordMessage(sender, text, at)
}

func (t thread) markRead(uid string) {
	if t.conn != nil {
		t.conn.MarkRead(uid)
		return
	}
	t.group.MarkRead(uid)
}

func (t thread) recipients(sender string) []string {
	if t.conn != nil {
		return []string{t.conn.Other(sender)}
	}
	out := make([]string, 0, len(t.group.Members))
	for _, id := range t.group.MemberIDs() {
		if id != sender {
			out = append(out, id)
		}
	}
	return out
}

// SendDirect sends a message over an accepted connection
func (s *MessageService) SendDirect(ctx context.Context, uid, connID, text string) (*entities.Message, error) {
	t, err := s.loadDirect(ctx, uid, connID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, uid, t, entities.ThreadDirect, text)
}

// SendGroup sends a message to every member of a group
func (s *MessageService) SendGroup(ctx context.Context, uid, groupID, text string) (*entities.Message, error) {
	t, err := s.loadGroup(ctx, uid, groupID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, uid, t, entities.ThreadGroup, text)
}

func (s *MessageService) send(ctx context.Context, uid string, t thread, kind entities.ThreadKind, text string) (*entities.Message, error) {
	ctx, span := tracer.StartSpan(ctx, "SendMessage")
	defer span.End()

	msg, err := entities.NewMessage(t.id(), kind, uid, text, s.cfg)
	if err != nil {
		return nil, err
	}
	if err := t.recordMessage(uid, msg.Text, msg.SentAt); err != nil {
		return nil, err
	}

	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.saveThread(ctx, t); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.publisher, s.logger, []events.DomainEvent{
		events.NewMessageSent(t.id(), msg.ID, uid, t.recipients(uid), msg.SentAt),
	})
	s.metrics.RecordEvent(ctx, "MessageSent")
	return msg, nil
}

// ListThread returns the latest messages of a thread uid can read, oldest
// first. A limit of 0 uses the configured page size.
func (s *MessageService) ListThread(ctx context.Context, uid, threadID string, limit int) ([]*entities.Message, error) {
	if _, err := s.loadThread(ctx, uid, threadID); err != nil {
		return nil, err
	}
	if limit <= 0 || (s.cfg.ThreadPageSize > 0 && limit > s.cfg.ThreadPageSize) {
		limit = s.cfg.ThreadPageSize
	}
	return s.messages.ListByThread(ctx, threadID, limit)
}

// MarkRead marks every message uid received in the thread as read and
// zeroes uid's unread count
func (s *MessageService) MarkRead(ctx context.Context, uid, threadID string) (int, error) {
	t, err := s.loadThread(ctx, uid, threadID)
	if err != nil {
		return 0, err
	}

	changed, err := s.messages.MarkRead(ctx, threadID, uid)
	if err != nil {
		return 0, err
	}
	t.markRead(uid)
	if err := s.saveThread(ctx, t); err != nil {
		return 0, err
	}
	return changed, nil
}

// DeleteMessages deletes messages uid sent. Asking to delete someone else's
// message is forbidden and deletes nothing.
func (s *MessageService) DeleteMessages(ctx context.Context, uid, threadID string, ids []string) error {
	if len(ids) == 0 {
		return pkgerrors.NewValidationError("no messages selected")
	}
	if _, err := s.loadThread(ctx, uid, threadID); err != nil {
		return err
	}

	msgs, err := s.messages.ListByThread(ctx, threadID, 0)
	if err != nil {
		return err
	}
	senders := make(map[string]string, len(msgs))
	for _, m := range msgs {
		senders[m.ID] = m.SenderID
	}
	for _, id := range ids {
		sender, ok := senders[id]
		if !ok {
			return pkgerrors.NewNotFoundError("message")
		}
		if sender != uid {
			return pkgerrors.NewForbiddenError("you can only delete your own messages")
		}
	}

	return s.messages.DeleteByIDs(ctx, threadID, ids)
}

// ClearThread deletes every message in a thread. Either participant may
// clear a direct thread; only admins may clear a group thread.
func (s *MessageService) ClearThread(ctx context.Context, uid, threadID string) error {
	t, err := s.loadThread(ctx, uid, threadID)
	if err != nil {
		return err
	}
	if t.group != nil && !t.group.IsAdmin(uid) {
		return pkgerrors.NewForbiddenError("only group admins can clear the chat").WithCode(pkgerrors.CodeNotGroupAdmin)
	}

	if err := s.messages.DeleteThread(ctx, threadID); err != nil {
		return err
	}

	if t.conn != nil {
		t.conn.LastMessage, t.conn.LastMessageAt = "", nil
		for id := range t.conn.Unread {
			t.conn.Unread[id] = 0
		}
	} else {
		t.group.LastMessage, t.group.LastMessageAt = "", nil
		for id := range t.group.Unread {
			t.group.Unread[id] = 0
		}
	}
	return s.saveThread(ctx, t)
}

func (s *MessageService) loadThread(ctx context.Context, uid, threadID string) (thread, error) {
	if _, err := valueobjects.ParseConnectionID(threadID); err == nil {
		return s.loadDirect(ctx, uid, threadID)
	}
	return s.loadGroup(ctx, uid, threadID)
}

func (s *MessageService) loadDirect(ctx context.Context, uid, connID string) (thread, error) {
	conn, err := s.connections.GetByID(ctx, connID)
	if err != nil {
		return thread{}, err
	}
	if !conn.IsParticipant(uid) {
		return thread{}, pkgerrors.NewNotFoundError("connection")
	}
	return thread{conn: conn}, nil
}

func (s *MessageService) loadGroup(ctx context.Context, uid, groupID string) (thread, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return thread{}, err
	}
	if !group.IsMember(uid) {
		return thread{}, pkgerrors.NewNotFoundError("group")
	}
	return thread{group: group}, nil
}

func (s *MessageService) saveThread(ctx context.Context, t thread) error {
	if t.conn != nil {
		return s.connections.Save(ctx, t.conn)
	}
	return s.groups.Save(ctx, t.group)
}
