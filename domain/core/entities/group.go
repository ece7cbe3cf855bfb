package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"focuslink/domain/config"
	"focuslink/domain/core/valueobjects"
	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"
)

// Role of a group member
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is a user's membership in a group
type Member struct {
	UserID   string    `json:"userId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// GroupUpdate holds the optional fields of a group edit
type GroupUpdate struct {
	Name        *string
	Description *string
	PhotoURL    *string
	IsPublic    *bool
}

// Group is a circle of users sharing a message thread
type Group struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	PhotoURL      string         `json:"photoURL,omitempty"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	IsPublic      bool           `json:"isPublic"`
	Members       []Member       `json:"members"`
	LastMessage   string         `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time     `json:"lastMessageAt,omitempty"`
	Unread        map[string]int `json:"unread"`

	events []events.DomainEvent
}

// NewGroup creates a group with creator as its admin and memberIDs as members
func NewGroup(creator, name, description string, isPublic bool, memberIDs []string, cfg *config.DomainConfig) (*Group, error) {
	if creator == "" {
		return nil, pkgerrors.NewValidationError("creator cannot be empty")
	}
	name, err := normalizeGroupName(name, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &Group{
		ID:          valueobjects.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsPublic:    isPublic,
		Members:     []Member{{UserID: creator, Role: RoleAdmin, JoinedAt: now}},
		Unread:      map[string]int{creator: 0},
	}
	for _, uid := range memberIDs {
		if uid == "" || g.IsMember(uid) {
			continue
		}
		g.Members = append(g.Members, Member{UserID: uid, Role: RoleMember, JoinedAt: now})
		g.Unread[uid] = 0
	}
	if cfg.MaxMembersPerGroup > 0 && len(g.Members) > cfg.MaxMembersPerGroup {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("a group can have at most %d members", cfg.MaxMembersPerGroup))
	}

	g.addEvent(events.NewGroupEvent(events.TypeGroupCreated, g.ID, creator, g.MemberIDs(), now))
	return g, nil
}

// IsMember reports whether uid belongs to the group
func (g *Group) IsMember(uid string) bool {
	return g.memberIndex(uid) >= 0
}

// IsAdmin reports whether uid is an admin of the group
func (g *Group) IsAdmin(uid string) bool {
	i := g.memberIndex(uid)
	return i >= 0 && g.Members[i].Role == RoleAdmin
}

// MemberIDs returns the ids of all members in join order
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Update edits group details. Admins only.
func (g *Group) Update(actor string, u GroupUpdate, cfg *config.DomainConfig) error {
	if err := g.requireAdmin(actor); err != nil {
		return err
	}
	if u.Name != nil {
		name, err := normalizeGroupName(*u.Name, cfg)
		if err != nil {
			return err
		}
		g.Name = name
	}
	if u.Description != nil {
		g.Description = strings.TrimSpace(*u.Description)
	}
	if u.PhotoURL != nil {
		g.PhotoURL = strings.TrimSpace(*u.PhotoURL)
	}
	if u.IsPublic != nil {
		g.IsPublic = *u.IsPublic
	}
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// AddMembers adds users as members and returns the ones not already in the
// group. Admins only.
func (g *Group) AddMembers(actor string, uids []string, cfg *config.DomainConfig) ([]string, error) {
	if err := g.requireAdmin(actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	added := []string{}
	for _, uid := range uids {
		if uid == "" || g.IsMember(uid) {
			continue
		}
		if cfg.MaxMembersPerGroup > 0 && len(g.Members) >= cfg.MaxMembersPerGroup {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("a group can have at most %d members", cfg.MaxMembersPerGroup))
		}
		g.Members = append(g.Members, Member{UserID: uid, Role: RoleMember, JoinedAt: now})
		g.setUnread(uid, 0)
		added = append(added, uid)
	}

	if len(added) > 0 {
		g.UpdatedAt = now
		g.addEvent(events.NewGroupEvent(events.TypeGroupMembersChanged, g.ID, actor, added, now))
	}
	return added, nil
}

// RemoveMember removes uid from the group. Admins only; admins leave with Leave.
func (g *Group) RemoveMember(actor, uid string) error {
	if err := g.requireAdmin(actor); err != nil {
		return err
	}
	if actor == uid {
		return pkgerrors.NewValidationError("use leave to remove yourself from a group")
	}
	if !g.IsMember(uid) {
		return pkgerrors.NewNotFoundError("group member")
	}

	g.removeMember(uid)
	g.addEvent(events.NewGroupEvent(events.TypeGroupMembersChanged, g.ID, actor, []string{uid}, g.UpdatedAt))
	return nil
}

// Leave removes uid from the group. When the last admin leaves, the
// longest-standing remaining member becomes admin. It reports whether the
// group is now empty and should be deleted.
func (g *Group) Leave(uid string) (bool, error) {
	if !g.IsMember(uid) {
		return false, pkgerrors.NewForbiddenError("not a member of this group").WithCode(pkgerrors.CodeNotGroupMember)
	}

	g.removeMember(uid)
	if len(g.Members) == 0 {
		g.addEvent(events.NewGroupEvent(events.TypeGroupDeleted, g.ID, uid, nil, g.UpdatedAt))
		return true, nil
	}

	if !g.hasAdmin() {
		oldest := 0
		for i, m := range g.Members {
			if m.JoinedAt.Before(g.Members[oldest].JoinedAt) {
				oldest = i
			}
		}
		g.Members[oldest].Role = RoleAdmin
	}

	g.addEvent(events.NewGroupEvent(events.TypeGroupMembersChanged, g.ID, uid, []string{uid}, g.UpdatedAt))
	return false, nil
}

// RecordMessage updates the thread summary: every other member gains an
// unread message and the sender has read everything.
func (g *Group) RecordMessage(sender, text string, at time.Time) error {
	if !g.IsMember(sender) {
		return pkgerrors.NewForbiddenError("not a member of this group").WithCode(pkgerrors.CodeNotGroupMember)
	}
	for _, m := range g.Members {
		if m.UserID == sender {
			g.setUnread(sender, 0)
			continue
		}
		g.setUnread(m.UserID, g.Unread[m.UserID]+1)
	}
	g.LastMessage = text
	g.LastMessageAt = &at
	return nil
}

// MarkRead zeroes uid's unread count
func (g *Group) MarkRead(uid string) {
	g.setUnread(uid, 0)
}

// UnreadFor returns uid's unread count
func (g *Group) UnreadFor(uid string) int {
	return g.Unread[uid]
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Group) GetUncommittedEvents() []events.DomainEvent {
	return g.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (g *Group) MarkEventsAsCommitted() {
	g.events = nil
}

func (g *Group) requireAdmin(uid string) error {
	if !g.IsMember(uid) {
		return pkgerrors.NewForbiddenError("not a member of this group").WithCode(pkgerrors.CodeNotGroupMember)
	}
	if !g.IsAdmin(uid) {
		return pkgerrors.NewForbiddenError("only group admins can do this").WithCode(pkgerrors.CodeNotGroupAdmin)
	}
	return nil
}

func (g *Group) hasAdmin() bool {
	for _, m := range g.Members {
		if m.Role == RoleAdmin {
			return true
		}
	}
	return false
}

func (g *Group) removeMember(uid string) {
	i := g.memberIndex(uid)
	if i < 0 {
		return
	}
	g.Members = append(g.Members[:i], g.Members[i+1:]...)
	delete(g.Unread, uid)
	g.UpdatedAt = time.Now().UTC()
}

func (g *Group) memberIndex(uid string) int {
	for i, m := range g.Members {
		if m.UserID == uid {
			return i
		}
	}
	return -1
}

func (g *Group) setUnread(uid string, n int) {
	if g.Unread == nil {
		g.Unread = make(map[string]int, len(g.Members))
	}
	g.Unread[uid] = n
}

func (g *Group) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func normalizeGroupName(name string, cfg *config.DomainConfig) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.NewValidationError("group name cannot be empty")
	}
	if err := validateLength("group name", name, cfg.MaxGroupNameLength); err != nil {
		return "", err
	}
	return name, nil
}

// SortGroupsByActivity orders groups by last message time, most recent first;
// groups without messages fall back to their creation time.
func SortGroupsByActivity(groups []*Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].activity().After(groups[j].activity())
	})
}

func (g *Group) activity() time.Time {
	if g.LastMessageAt != nil {
		return *g.LastMessageAt
	}
	return g.CreatedAt
}
