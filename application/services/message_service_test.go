package services

import (
	"testing"

	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_DirectRequiresAcceptedConnection(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "zoe", "Zoe")
	f.addUser(t, "adam", "Adam")
	conn, err := f.connSvc.Request(f.ctx, "zoe", "adam")
	require.NoError(t, err)

	_, err = f.messageSvc.SendDirect(f.ctx, "zoe", conn.ID, "hi")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotConnected, pkgerrors.GetAppError(err).Code)

	_, err = f.messageSvc.SendDirect(f.ctx, "eve", conn.ID, "hi")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestMessageService_UnreadAndMarkRead(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "zoe", "Zoe")
	f.addUser(t, "adam", "Adam")
	conn := f.connect(t, "zoe", "adam")

	for _, text := range []string{"hi", "are you running saturday?"} {
		_, err := f.messageSvc.SendDirect(f.ctx, "zoe", conn.ID, text)
		require.NoError(t, err)
	}
	stored, _ := f.connections.GetByID(f.ctx, conn.ID)
	assert.Equal(t, 2, stored.UnreadFor("adam"))
	assert.Equal(t, 0, stored.UnreadFor("zoe"))

	// replying clears the sender's own counter
	_, err := f.messageSvc.SendDirect(f.ctx, "adam", conn.ID, "yes!")
	require.NoError(t, err)

	stored, _ = f.connections.GetByID(f.ctx, conn.ID)
	assert.Equal(t, 0, stored.UnreadFor("adam"))
	assert.Equal(t, 1, stored.UnreadFor("zoe"))
	assert.Equal(t, "yes!", stored.LastMessage)

	// the counter is cleared but zoe's messages are still unread on the thread
	changed, err := f.messageSvc.MarkRead(f.ctx, "adam", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	stored, _ = f.connections.GetByID(f.ctx, conn.ID)
	assert.Equal(t, 0, stored.UnreadFor("adam"))
	assert.Equal(t, 1, stored.UnreadFor("zoe"))

	msgs, err := f.messageSvc.ListThread(f.ctx, "zoe", conn.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].Read)
	assert.False(t, msgs[2].Read)

	assert.Contains(t, f.publisher.Published(), events.TypeMessageSent)
}

func TestMessageService_ListThreadLimit(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "zoe", "Zoe")
	f.addUser(t, "adam", "Adam")
	conn := f.connect(t, "zoe", "adam")
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.messageSvc.SendDirect(f.ctx, "zoe", conn.ID, text)
		require.NoError(t, err)
	}

	msgs, err := f.messageSvc.ListThread(f.ctx, "adam", conn.ID, 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestMessageService_DeleteOwnMessagesOnly(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "zoe", "Zoe")
	f.addUser(t, "adam", "Adam")
	conn := f.connect(t, "zoe", "adam")
	mine, _ := f.messageSvc.SendDirect(f.ctx, "zoe", conn.ID, "oops")
	theirs, _ := f.messageSvc.SendDirect(f.ctx, "adam", conn.ID, "hello")

	err := f.messageSvc.DeleteMessages(f.ctx, "zoe", conn.ID, []string{mine.ID, theirs.ID})
	assert.True(t, pkgerrors.IsForbidden(err))
	msgs, _ := f.messages.ListByThread(f.ctx, conn.ID, 0)
	assert.Len(t, msgs, 2, "nothing deleted on a forbidden request")

	require.NoError(t, f.messageSvc.DeleteMessages(f.ctx, "zoe", conn.ID, []string{mine.ID}))
	msgs, _ = f.messages.ListByThread(f.ctx, conn.ID, 0)
	require.Len(t, msgs, 1)
	assert.Equal(t, theirs.ID, msgs[0].ID)

	assert.True(t, pkgerrors.IsNotFound(f.messageSvc.DeleteMessages(f.ctx, "zoe", conn.ID, []string{"missing"})))
	assert.True(t, pkgerrors.IsValidation(f.messageSvc.DeleteMessages(f.ctx, "zoe", conn.ID, nil)))
}

func TestMessageService_GroupThread(t *testing.T) {
	f := newFixture(t)
	group := seedCircle(t, f)

	_, err := f.messageSvc.SendGroup(f.ctx, "c", group.ID, "let me in")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.messageSvc.SendGroup(f.ctx, "a", group.ID, "hello runners")
	require.NoError(t, err)

	stored, _ := f.groups.GetByID(f.ctx, group.ID)
	assert.Equal(t, 1, stored.UnreadFor("owner"))
	assert.Equal(t, 1, stored.UnreadFor("b"))
	assert.Equal(t, 0, stored.UnreadFor("a"))

	_, err = f.messageSvc.MarkRead(f.ctx, "b", group.ID)
	require.NoError(t, err)
	stored, _ = f.groups.GetByID(f.ctx, group.ID)
	assert.Equal(t, 0, stored.UnreadFor("b"))

	err = f.messageSvc.ClearThread(f.ctx, "a", group.ID)
	assert.Equal(t, pkgerrors.CodeNotGroupAdmin, pkgerrors.GetAppError(err).Code)

	require.NoError(t, f.messageSvc.ClearThread(f.ctx, "owner", group.ID))
	msgs, err := f.messageSvc.ListThread(f.ctx, "b", group.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	stored, _ = f.groups.GetByID(f.ctx, group.ID)
	assert.Empty(t, stored.LastMessage)
	assert.Equal(t, 0, stored.UnreadFor("owner"))
}

func TestMessageService_ClearDirectThread(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "zoe", "Zoe")
	f.addUser(t, "adam", "Adam")
	conn := f.connect(t, "zoe", "adam")
	_, err := f.messageSvc.SendDirect(f.ctx, "zoe", conn.ID, "hi")
	require.NoError(t, err)

	require.NoError(t, f.messageSvc.ClearThread(f.ctx, "adam", conn.ID))

	stored, _ := f.connections.GetByID(f.ctx, conn.ID)
	assert.Nil(t, stored.LastMessageAt)
	assert.Equal(t, 0, stored.UnreadFor("adam"))
}
