package entities

import (
	"testing"
	"time"

	"focuslink/domain/config"
	pkgerrors "focuslink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroup(t *testing.T, members ...string) *Group {
	t.Helper()
	g, err := NewGroup("owner", "Runners", "Weekend long runs", false, members, config.DefaultDomainConfig())
	require.NoError(t, err)
	return g
}

func TestNewGroup(t *testing.T) {
	g := newTestGroup(t, "a", "b", "a", "owner")

	assert.Equal(t, []string{"owner", "a", "b"}, g.MemberIDs())
	assert.True(t, g.IsAdmin("owner"))
	assert.False(t, g.IsAdmin("a"))
	assert.True(t, g.IsMember("b"))

	_, err := NewGroup("owner", "  ", "", false, nil, config.DefaultDomainConfig())
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGroup_AdminOnlyOperations(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	g := newTestGroup(t, "a")

	err := g.Update("a", GroupUpdate{Name: strPtr("Sprinters")}, cfg)
	assert.Equal(t, pkgerrors.CodeNotGroupAdmin, pkgerrors.GetAppError(err).Code)

	_, err = g.AddMembers("a", []string{"c"}, cfg)
	assert.True(t, pkgerrors.IsForbidden(err))

	err = g.RemoveMember("stranger", "a")
	assert.Equal(t, pkgerrors.CodeNotGroupMember, pkgerrors.GetAppError(err).Code)

	require.NoError(t, g.Update("owner", GroupUpdate{Name: strPtr("Sprinters"), IsPublic: boolPtr(true)}, cfg))
	assert.Equal(t, "Sprinters", g.Name)
	assert.True(t, g.IsPublic)
}

func TestGroup_AddAndRemoveMembers(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	g := newTestGroup(t, "a")

	added, err := g.AddMembers("owner", []string{"a", "c", "d"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, added)

	require.NoError(t, g.RemoveMember("owner", "c"))
	assert.False(t, g.IsMember("c"))
	assert.True(t, pkgerrors.IsNotFound(g.RemoveMember("owner", "c")))
	assert.True(t, pkgerrors.IsValidation(g.RemoveMember("owner", "owner")))
}

func TestGroup_MemberLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxMembersPerGroup = 2
	g, err := NewGroup("owner", "Duo", "", false, []string{"a"}, cfg)
	require.NoError(t, err)

	_, err = g.AddMembers("owner", []string{"b"}, cfg)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGroup_LastAdminLeavingPromotesOldestMember(t *testing.T) {
	g := newTestGroup(t)
	cfg := config.DefaultDomainConfig()
	_, err := g.AddMembers("owner", []string{"early"}, cfg)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = g.AddMembers("owner", []string{"late"}, cfg)
	require.NoError(t, err)

	deleted, err := g.Leave("owner")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, g.IsAdmin("early"))
	assert.False(t, g.IsAdmin("late"))
}

func TestGroup_LeaveUntilEmpty(t *testing.T) {
	g := newTestGroup(t, "a")

	deleted, err := g.Leave("a")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, g.IsAdmin("owner"))

	deleted, err = g.Leave("owner")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = g.Leave("owner")
	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestGroup_UnreadBookkeeping(t *testing.T) {
	g := newTestGroup(t, "a", "b")
	now := time.Now()

	require.NoError(t, g.RecordMessage("a", "hello", now))
	require.NoError(t, g.RecordMessage("a", "anyone?", now))
	assert.Equal(t, 2, g.UnreadFor("owner"))
	assert.Equal(t, 2, g.UnreadFor("b"))
	assert.Equal(t, 0, g.UnreadFor("a"))

	g.MarkRead("b")
	assert.Equal(t, 0, g.UnreadFor("b"))

	assert.True(t, pkgerrors.IsForbidden(g.RecordMessage("x", "hi", now)))
}

func TestSortGroupsByActivity(t *testing.T) {
	old := newTestGroup(t)
	fresh := newTestGroup(t)
	msgAt := time.Now().Add(time.Hour)
	old.LastMessageAt = &msgAt

	groups := []*Group{fresh, old}
	SortGroupsByActivity(groups)

	assert.Same(t, old, groups[0])
}
