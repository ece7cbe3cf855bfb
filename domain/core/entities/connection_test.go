package entities

import (
	"testing"
	"time"

	"focuslink/domain/events"
	pkgerrors "focuslink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionRequest(t *testing.T) {
	c, err := NewConnectionRequest("zoe", "adam")
	require.NoError(t, err)

	assert.Equal(t, "adam_zoe", c.ID)
	assert.Equal(t, [2]string{"adam", "zoe"}, c.Users)
	assert.Equal(t, ConnectionPending, c.Status)
	assert.Equal(t, "zoe", c.RequestedBy)
	assert.Equal(t, StatePending, c.StateFor("adam"))
	assert.Equal(t, StateNone, c.StateFor("eve"))

	require.Len(t, c.GetUncommittedEvents(), 1)
	assert.Equal(t, events.TypeConnectionRequested, c.GetUncommittedEvents()[0].GetEventType())

	_, err = NewConnectionRequest("zoe", "zoe")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestConnection_Accept(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		wantErr func(error) bool
	}{
		{"recipient accepts", "adam", nil},
		{"requester cannot accept", "zoe", pkgerrors.IsForbidden},
		{"stranger cannot accept", "eve", pkgerrors.IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewConnectionRequest("zoe", "adam")
			err := c.Accept(tt.actor)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err))
				assert.Equal(t, ConnectionPending, c.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ConnectionAccepted, c.Status)
			assert.Equal(t, StateConnected, c.StateFor("zoe"))
		})
	}
}

func TestConnection_AcceptTwiceConflicts(t *testing.T) {
	c, _ := NewConnectionRequest("zoe", "adam")
	require.NoError(t, c.Accept("adam"))

	assert.True(t, pkgerrors.IsConflict(c.Accept("adam")))
}

func TestConnection_UnreadBookkeeping(t *testing.T) {
	c, _ := NewConnectionRequest("zoe", "adam")
	now := time.Now()

	err := c.RecordMessage("zoe", "hi", now)
	assert.Equal(t, pkgerrors.CodeNotConnected, pkgerrors.GetAppError(err).Code)

	require.NoError(t, c.Accept("adam"))
	require.NoError(t, c.RecordMessage("zoe", "hi", now))
	require.NoError(t, c.RecordMessage("zoe", "you there?", now))
	assert.Equal(t, 2, c.UnreadFor("adam"))
	assert.Equal(t, 0, c.UnreadFor("zoe"))
	assert.Equal(t, "you there?", c.LastMessage)

	require.NoError(t, c.RecordMessage("adam", "yes", now))
	assert.Equal(t, 0, c.UnreadFor("adam"))
	assert.Equal(t, 1, c.UnreadFor("zoe"))

	c.MarkRead("zoe")
	assert.Equal(t, 0, c.UnreadFor("zoe"))

	assert.True(t, pkgerrors.IsForbidden(c.RecordMessage("eve", "hey", now)))
}

func TestConnection_Remove(t *testing.T) {
	c, _ := NewConnectionRequest("zoe", "adam")
	c.MarkEventsAsCommitted()

	assert.True(t, pkgerrors.IsForbidden(c.Remove("eve")))
	require.NoError(t, c.Remove("adam"))
	require.Len(t, c.GetUncommittedEvents(), 1)
	assert.Equal(t, events.TypeConnectionRemoved, c.GetUncommittedEvents()[0].GetEventType())
}
