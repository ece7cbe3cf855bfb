// Package memory provides in-memory repositories for local development and
// tests. Stored entities are copied on the way in and out so callers never
// share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"focuslink/domain/core/entities"
	pkgerrors "focuslink/pkg/errors"
)

// ProfileRepository is an in-memory ports.ProfileRepository
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*entities.Profile
}

// NewProfileRepository creates an empty profile store
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]*entities.Profile)}
}

// Save stores a copy of profile
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	if profile == nil || profile.UID == "" {
		return pkgerrors.NewValidationError("profile uid is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UID] = copyProfile(profile)
	return nil
}

// GetByID retrieves a profile
func (r *ProfileRepository) GetByID(ctx context.Context, uid string) (*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("profile")
	}
	return copyProfile(p), nil
}

// GetByIDs retrieves the existing profiles among uids
func (r *ProfileRepository) GetByIDs(ctx context.Context, uids []string) ([]*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Profile, 0, len(uids))
	for _, uid := range uids {
		if p, ok := r.profiles[uid]; ok {
			out = append(out, copyProfile(p))
		}
	}
	return out, nil
}

// ListActive returns active profiles ordered by uid
func (r *ProfileRepository) ListActive(ctx context.Context) ([]*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if p.IsActive {
			out = append(out, copyProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// ConnectionRepository is an in-memory ports.ConnectionRepository
type ConnectionRepository struct {
	mu          sync.RWMutex
	connections map[string]*entities.Connection
}

// NewConnectionRepository creates an empty connection store
func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{connections: make(map[string]*entities.Connection)}
}

func (r *ConnectionRepository) Save(ctx context.Context, conn *entities.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID] = copyConnection(conn)
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*entities.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	return copyConnection(c), nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, id)
	return nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, uid string) ([]*entities.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*entities.Connection{}
	for _, c := range r.connections {
		if c.IsParticipant(uid) {
			out = append(out, copyConnection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GroupRepository is an in-memory ports.GroupRepository
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*entities.Group
}

// NewGroupRepository creates an empty group store
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: make(map[string]*entities.Group)}
}

func (r *GroupRepository) Save(ctx context.Context, group *entities.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = copyGroup(group)
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*entities.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("group")
	}
	return copyGroup(g), nil
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

func (r *GroupRepository) ListByMember(ctx context.Context, uid string) ([]*entities.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*entities.Group{}
	for _, g := range r.groups {
		if g.IsMember(uid) {
			out = append(out, copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MessageRepository is an in-memory ports.MessageRepository
type MessageRepository struct {
	mu      sync.RWMutex
	threads map[string][]*entities.Message
}

// NewMessageRepository creates an empty message store
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{threads: make(map[string][]*entities.Message)}
}

func (r *MessageRepository) Save(ctx context.Context, msg *entities.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.threads[msg.ThreadID] = append(r.threads[msg.ThreadID], &cp)
	return nil
}

func (r *MessageRepository) ListByThread(ctx context.Context, threadID string, limit int) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.threads[threadID]
	out := make([]*entities.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	entities.SortMessages(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, threadID, readerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for _, m := range r.threads[threadID] {
		if m.SenderID != readerID && !m.Read {
			m.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *MessageRepository) DeleteByIDs(ctx context.Context, threadID string, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.threads[threadID][:0]
	for _, m := range r.threads[threadID] {
		if _, ok := drop[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	r.threads[threadID] = kept
	return nil
}

func (r *MessageRepository) DeleteThread(ctx context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}

// SocketRepository is an in-memory ports.SocketRepository
type SocketRepository struct {
	mu      sync.RWMutex
	sockets map[string]entities.Socket
}

// NewSocketRepository creates an empty socket store
func NewSocketRepository() *SocketRepository {
	return &SocketRepository{sockets: make(map[string]entities.Socket)}
}

func (r *SocketRepository) Save(ctx context.Context, socket *entities.Socket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[socket.ID] = *socket
	return nil
}

func (r *SocketRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sockets, id)
	return nil
}

// ListByUser returns the unexpired sockets of uid ordered by id
func (r *SocketRepository) ListByUser(ctx context.Context, uid string) ([]*entities.Socket, error) {
	now := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Socket
	for _, s := range r.sockets {
		if s.UserID == uid && !s.Expired(now) {
			cp := s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyProfile(p *entities.Profile) *entities.Profile {
	cp := *p
	cp.MarkEventsAsCommitted()
	cp.Goals = append([]entities.Goal{}, p.Goals...)
	if p.Coordinates != nil {
		c := *p.Coordinates
		cp.Coordinates = &c
	}
	if p.ShareLocation != nil {
		s := *p.ShareLocation
		cp.ShareLocation = &s
	}
	return &cp
}

func copyConnection(c *entities.Connection) *entities.Connection {
	cp := *c
	cp.MarkEventsAsCommitted()
	cp.Unread = copyCounts(c.Unread)
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		cp.LastMessageAt = &t
	}
	return &cp
}

func copyGroup(g *entities.Group) *entities.Group {
	cp := *g
	cp.MarkEventsAsCommitted()
	cp.Members = append([]entities.Member{}, g.Members...)
	cp.Unread = copyCounts(g.Unread)
	if g.LastMessageAt != nil {
		t := *g.LastMessageAt
		cp.LastMessageAt = &t
	}
	return &cp
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
