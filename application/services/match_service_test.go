package services

import (
	"testing"

	"focuslink/application/ports"
	"focuslink/application/ports/mocks"
	"focuslink/domain/core/entities"
	"focuslink/domain/synergy"
	pkgerrors "focuslink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedCrafters(t *testing.T, f *fixture) {
	t.Helper()
	f.addUser(t, "me", "Me", "pottery woodworking gardening baking cycling")
	// 4 shared of 5 distinct = 80
	f.addUser(t, "crafter", "Crafter", "Pottery and woodworking", "gardening, baking")
	// nothing shared = 0
	f.addUser(t, "coder", "Coder", "Ship a mobile app")
	// 5 shared of 11 distinct = 45
	f.addUser(t, "generalist", "Generalist",
		"pottery woodworking gardening baking cycling",
		"chess painting surfing knitting fishing climbing")
}

func TestMatchService_FindMatches(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)

	results, err := f.matchSvc.FindMatches(f.ctx, "me")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, []string{"crafter", "generalist"}, userIDs(results))
	assert.Equal(t, 80, results[0].Score)
	assert.Equal(t, 45, results[1].Score)
	assert.Equal(t, []string{"baking", "gardening", "pottery", "woodworking"}, results[0].Shared)
	assert.Equal(t, "Crafter", results[0].Name)
}

func TestMatchService_FindMatches_ExcludesConnections(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	f.connect(t, "me", "crafter")
	_, err := f.connSvc.Request(f.ctx, "generalist", "me")
	require.NoError(t, err)

	results, err := f.matchSvc.FindMatches(f.ctx, "me")
	require.NoError(t, err)

	assert.Empty(t, results)
}

func TestMatchService_FindMatches_InactiveGoalsIgnored(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	crafter, _ := f.profiles.GetByID(f.ctx, "crafter")
	off := false
	for _, g := range crafter.Goals {
		_, err := f.goalSvc.UpdateGoal(f.ctx, "crafter", g.ID, entities.GoalUpdate{IsActive: &off})
		require.NoError(t, err)
	}

	results, err := f.matchSvc.FindMatches(f.ctx, "me")
	require.NoError(t, err)

	assert.Equal(t, []string{"generalist"}, userIDs(results))
}

func TestMatchService_FindMatches_NoGoals(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	f.addUser(t, "blank", "Blank", "to be or not to be")

	for _, uid := range []string{"blank", "nobody"} {
		results, err := f.matchSvc.FindMatches(f.ctx, uid)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestMatchService_FindMatches_RecordsMetrics(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	metrics := new(mocks.MockMetricsRecorder)
	metrics.On("RecordMatchRun", mock.Anything, 3, 2, mock.Anything).Return()

	svc := NewMatchService(f.profiles, f.connections,
		ports.StaticMatcher(synergy.NewMatcher(nil)), metrics, f.cfg, zap.NewNop())
	_, err := svc.FindMatches(f.ctx, "me")

	require.NoError(t, err)
	metrics.AssertExpectations(t)
}

func TestMatchService_FindMatches_UsesCurrentMatcher(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)

	current := synergy.NewMatcher(nil, synergy.WithMinScore(50))
	svc := NewMatchService(f.profiles, f.connections,
		ports.MatcherFunc(func() *synergy.Matcher { return current }), nil, f.cfg, zap.NewNop())

	results, err := svc.FindMatches(f.ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"crafter"}, userIDs(results))

	current = synergy.NewMatcher(nil, synergy.WithLimit(1))
	results, err = svc.FindMatches(f.ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"crafter"}, userIDs(results))
}

func TestMatchService_Search(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	f.addUser(t, "potter", "Pat the Potter")

	results, err := f.matchSvc.Search(f.ctx, "me", "  POTTER ")
	require.NoError(t, err)

	// name and goal hits, sorted by synergy, zero-score hits kept
	assert.Equal(t, []string{"crafter", "generalist", "potter"}, userIDs(results))
	assert.Equal(t, 0, results[2].Score)

	_, err = f.matchSvc.Search(f.ctx, "me", " ")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestMatchService_Search_ExcludesSelfAndConnections(t *testing.T) {
	f := newFixture(t)
	seedCrafters(t, f)
	f.connect(t, "me", "crafter")

	results, err := f.matchSvc.Search(f.ctx, "me", "pottery")
	require.NoError(t, err)

	assert.Equal(t, []string{"generalist"}, userIDs(results))
}

func TestMatchService_Keywords(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "U1", "I want to learn woodworking and pottery")

	keywords, err := f.matchSvc.Keywords(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pottery", "woodworking"}, keywords)

	_, err = f.matchSvc.Keywords(f.ctx, "ghost")
	assert.True(t, pkgerrors.IsNotFound(err))
}
