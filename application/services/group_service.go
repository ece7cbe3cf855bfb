package services

import (
	"context"
	"fmt"
	"strings"

	"focuslink/application/ports"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/core/valueobjects"
	pkgerrors "focuslink/pkg/errors"

	"go.uber.org/zap"
)

// CreateGroupInput holds the fields of a new group
type CreateGroupInput struct {
	Name        string
	Description string
	PhotoURL    string
	IsPublic    bool
	MemberIDs   []string
}

// GroupView is a group as seen by one member
type GroupView struct {
	*entities.Group
	Unread  int  `json:"unreadCount"`
	IsAdmin bool `json:"isAdmin"`
}

// GroupService manages groups and their membership
type GroupService struct {
	groups      ports.GroupRepository
	connections ports.ConnectionRepository
	messages    ports.MessageRepository
	publisher   ports.EventPublisher
	cfg         *config.DomainConfig
	logger      *zap.Logger
}

// NewGroupService creates a new group service
func NewGroupService(
	groups ports.GroupRepository,
	connections ports.ConnectionRepository,
	messages ports.MessageRepository,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GroupService {
	return &GroupService{
		groups:      groups,
		connections: connections,
		messages:    messages,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
	}
}

// Create creates a group administered by creator. Every initial member must
// be an accepted connection of the creator.
func (s *GroupService) Create(ctx context.Context, creator string, in CreateGroupInput) (*entities.Group, error) {
	if s.cfg.MaxGroupsPerUser > 0 {
		existing, err := s.groups.ListByMember(ctx, creator)
		if err != nil {
			return nil, err
		}
		if len(existing) >= s.cfg.MaxGroupsPerUser {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("you can be in at most %d groups", s.cfg.MaxGroupsPerUser),
			).WithCode(pkgerrors.CodeGroupLimitReached)
		}
	}
	if err := s.requireConnected(ctx, creator, in.MemberIDs); err != nil {
		return nil, err
	}

	group, err := entities.NewGroup(creator, in.Name, in.Description, in.IsPublic, in.MemberIDs, s.cfg)
	if err != nil {
		return nil, err
	}
	group.PhotoURL = strings.TrimSpace(in.PhotoURL)

	if err := s.save(ctx, group); err != nil {
		return nil, err
	}
	s.logger.Info("Group created",
		zap.String("groupID", group.ID),
		zap.String("creator", creator),
		zap.Int("members", len(group.Members)),
	)
	return group, nil
}

// Get returns a group visible to uid: any group uid belongs to, or a public one
func (s *GroupService) Get(ctx context.Context, uid, groupID string) (*GroupView, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(uid) && !group.IsPublic {
		return nil, pkgerrors.NewNotFoundError("group")
	}
	return newGroupView(group, uid), nil
}

// ListForUser returns uid's groups, most recently active first
func (s *GroupService) ListForUser(ctx context.Context, uid string) ([]GroupView, error) {
	groups, err := s.groups.ListByMember(ctx, uid)
	if err != nil {
		return nil, err
	}
	entities.SortGroupsByActivity(groups)

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, *newGroupView(g, uid))
	}
	return views, nil
}

// Update edits group details. Admins only.
func (s *GroupService) Update(ctx context.Context, uid, groupID string, u entities.GroupUpdate) (*entities.Group, error) {
	group, err := s.memberGroup(ctx, uid, groupID)
	if err != nil {
		return nil, err
	}
	if err := group.Update(uid, u, s.cfg); err != nil {
		return nil, err
	}
	if err := s.save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMembers adds uid's connections to the group. Admins only.
func (s *GroupService) AddMembers(ctx context.Context, uid, groupID string, memberIDs []string) ([]string, error) {
	group, err := s.memberGroup(ctx, uid, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(uid) {
		return nil, pkgerrors.NewForbiddenError("only group admins can add members").WithCode(pkgerrors.CodeNotGroupAdmin)
	}

	fresh := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if !group.IsMember(id) {
			fresh = append(fresh, id)
		}
	}
	if err := s.requireConnected(ctx, uid, fresh); err != nil {
		return nil, err
	}

	added, err := group.AddMembers(uid, fresh, s.cfg)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, group); err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMember removes memberID from the group. Admins only.
func (s *GroupService) RemoveMember(ctx context.Context, uid, groupID, memberID string) error {
	group, err := s.memberGroup(ctx, uid, groupID)
	if err != nil {
		return err
	}
	if err := group.RemoveMember(uid, memberID); err != nil {
		return err
	}
	return s.save(ctx, group)
}

// Leave removes uid from the group. The group and its messages are deleted
// once the last member leaves.
func (s *GroupService) Leave(ctx context.Context, uid, groupID string) error {
	group, err := s.memberGroup(ctx, uid, groupID)
	if err != nil {
		return err
	}

	empty, err := group.Leave(uid)
	if err != nil {
		return err
	}
	if !empty {
		return s.save(ctx, group)
	}

	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return err
	}
	if err := s.messages.DeleteThread(ctx, group.ID); err != nil {
		s.logger.Warn("Failed to delete group thread", zap.String("groupID", group.ID), zap.Error(err))
	}
	publishEvents(ctx, s.publisher, s.logger, group.GetUncommittedEvents())
	group.MarkEventsAsCommitted()

	s.logger.Info("Group deleted after last member left", zap.String("groupID", group.ID))
	return nil
}

// memberGroup loads a group uid belongs to. Non-members get NotFound.
func (s *GroupService) memberGroup(ctx context.Context, uid, groupID string) (*entities.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(uid) {
		return nil, pkgerrors.NewNotFoundError("group")
	}
	return group, nil
}

// requireConnected checks that every id is an accepted connection of uid
func (s *GroupService) requireConnected(ctx context.Context, uid string, ids []string) error {
	for _, id := range ids {
		if id == uid {
			continue
		}
		cid, err := valueobjects.NewConnectionID(uid, id)
		if err != nil {
			return pkgerrors.NewValidationError(err.Error())
		}
		conn, err := s.connections.GetByID(ctx, cid.String())
		if pkgerrors.IsNotFound(err) || (err == nil && conn.Status != entities.ConnectionAccepted) {
			return pkgerrors.NewValidationError(fmt.Sprintf("user %s is not one of your connections", id)).
				WithCode(pkgerrors.CodeNotConnected)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *GroupService) save(ctx context.Context, group *entities.Group) error {
	if err := s.groups.Save(ctx, group); err != nil {
		return err
	}
	publishEvents(ctx, s.publisher, s.logger, group.GetUncommittedEvents())
	group.MarkEventsAsCommitted()
	return nil
}

func newGroupView(g *entities.Group, uid string) *GroupView {
	return &GroupView{Group: g, Unread: g.UnreadFor(uid), IsAdmin: g.IsAdmin(uid)}
}
