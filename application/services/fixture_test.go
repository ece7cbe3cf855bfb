package services

import (
	"context"
	"testing"

	"focuslink/application/ports"
	"focuslink/application/ports/mocks"
	"focuslink/domain/config"
	"focuslink/domain/core/entities"
	"focuslink/domain/synergy"
	"focuslink/infrastructure/persistence/memory"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	ctx         context.Context
	cfg         *config.DomainConfig
	profiles    *memory.ProfileRepository
	connections *memory.ConnectionRepository
	groups      *memory.GroupRepository
	messages    *memory.MessageRepository
	publisher   *mocks.MockEventPublisher

	goalSvc    *GoalService
	matchSvc   *MatchService
	connSvc    *ConnectionService
	groupSvc   *GroupService
	messageSvc *MessageService
	nearbySvc  *NearbyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:         context.Background(),
		cfg:         config.DefaultDomainConfig(),
		profiles:    memory.NewProfileRepository(),
		connections: memory.NewConnectionRepository(),
		groups:      memory.NewGroupRepository(),
		messages:    memory.NewMessageRepository(),
		publisher:   new(mocks.MockEventPublisher),
	}
	f.publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(nil)

	logger := zap.NewNop()
	matchers := ports.StaticMatcher(synergy.NewMatcher(nil, synergy.WithLimit(50)))

	f.goalSvc = NewGoalService(f.profiles, f.publisher, f.cfg, logger)
	f.matchSvc = NewMatchService(f.profiles, f.connections, matchers, nil, f.cfg, logger)
	f.connSvc = NewConnectionService(f.connections, f.profiles, f.messages, f.publisher, nil, logger)
	f.groupSvc = NewGroupService(f.groups, f.connections, f.messages, f.publisher, f.cfg, logger)
	f.messageSvc = NewMessageService(f.messages, f.connections, f.groups, f.publisher, nil, f.cfg, logger)
	f.nearbySvc = NewNearbyService(f.profiles, f.connections, matchers, f.cfg, logger)
	return f
}

// addUser creates a profile with the given active goals
func (f *fixture) addUser(t *testing.T, uid, name string, goals ...string) *entities.Profile {
	t.Helper()
	_, err := f.goalSvc.UpsertProfile(f.ctx, uid, entities.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	for _, g := range goals {
		_, err := f.goalSvc.AddGoal(f.ctx, uid, g, false)
		require.NoError(t, err)
	}
	p, err := f.profiles.GetByID(f.ctx, uid)
	require.NoError(t, err)
	return p
}

// connect creates an accepted connection between a and b
func (f *fixture) connect(t *testing.T, a, b string) *entities.Connection {
	t.Helper()
	conn, err := f.connSvc.Request(f.ctx, a, b)
	require.NoError(t, err)
	conn, err = f.connSvc.Accept(f.ctx, b, conn.ID)
	require.NoError(t, err)
	return conn
}

func userIDs(results []MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.UserID
	}
	return out
}
