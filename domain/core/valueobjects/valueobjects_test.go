package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionID(t *testing.T) {
	ab, err := NewConnectionID("alice", "bob")
	require.NoError(t, err)
	ba, err := NewConnectionID("bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice_bob", ab.String())
	assert.Equal(t, ab, ba)
	assert.Equal(t, [2]string{"alice", "bob"}, ab.Users())
	assert.True(t, ab.Includes("bob"))
	assert.False(t, ab.Includes("carol"))
	assert.Equal(t, "alice", ab.Other("bob"))
	assert.Equal(t, "bob", ab.Other("alice"))
}

func TestNewConnectionID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"empty", "", "bob"},
		{"self", "bob", "bob"},
		{"separator", "a_b", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionID(tt.a, tt.b)
			assert.Error(t, err)
		})
	}
}

func TestParseConnectionID(t *testing.T) {
	cid, err := ParseConnectionID("u1_u2")
	require.NoError(t, err)
	assert.True(t, cid.Includes("u1"))

	_, err = ParseConnectionID("u2_u1")
	assert.Error(t, err)
	_, err = ParseConnectionID("nounderscore")
	assert.Error(t, err)
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.True(t, IsValidID(id))
	assert.NotEqual(t, id, NewID())
	assert.False(t, IsValidID("not-a-uuid"))
}

func TestNewCoordinates(t *testing.T) {
	_, err := NewCoordinates(91, 0)
	assert.Error(t, err)
	_, err = NewCoordinates(0, -181)
	assert.Error(t, err)

	c, err := NewCoordinates(40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, 40.7128, c.Latitude)
}

func TestDistanceMiles(t *testing.T) {
	nyc := Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	la := Coordinates{Latitude: 34.0522, Longitude: -118.2437}

	assert.InDelta(t, 2445.6, nyc.DistanceMiles(la), 5)
	assert.InDelta(t, nyc.DistanceMiles(la), la.DistanceMiles(nyc), 1e-9)
	assert.Zero(t, nyc.DistanceMiles(nyc))

	// one degree of latitude is about 69 miles
	assert.InDelta(t, 69.1, Coordinates{}.DistanceMiles(Coordinates{Latitude: 1}), 0.1)
}
