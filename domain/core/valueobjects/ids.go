package valueobjects

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// connectionIDSeparator joins the two participant ids of a connection
const connectionIDSeparator = "_"

// NewID returns a new random identifier for goals, groups and messages
func NewID() string {
	return uuid.New().String()
}

// IsValidID reports whether s is a UUID produced by NewID
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ConnectionID identifies the single connection allowed between two users.
// It is the two user ids sorted and joined with "_", so either side derives
// the same value.
type ConnectionID struct {
	value string
	users [2]string
}

// NewConnectionID builds the id for the pair (a, b) in either order
func NewConnectionID(a, b string) (ConnectionID, error) {
	if a == "" || b == "" {
		return ConnectionID{}, errors.New("connection participants cannot be empty")
	}
	if a == b {
		return ConnectionID{}, errors.New("cannot connect a user to themselves")
	}
	if strings.Contains(a, connectionIDSeparator) || strings.Contains(b, connectionIDSeparator) {
		return ConnectionID{}, errors.New("user ids cannot contain '_'")
	}

	users := [2]string{a, b}
	sort.Strings(users[:])
	return ConnectionID{
		value: users[0] + connectionIDSeparator + users[1],
		users: users,
	}, nil
}

// ParseConnectionID splits a stored connection id back into its participants
func ParseConnectionID(id string) (ConnectionID, error) {
	parts := strings.Split(id, connectionIDSeparator)
	if len(parts) != 2 {
		return ConnectionID{}, errors.New("malformed connection id")
	}
	cid, err := NewConnectionID(parts[0], parts[1])
	if err != nil {
		return ConnectionID{}, err
	}
	if cid.value != id {
		return ConnectionID{}, errors.New("connection id participants must be sorted")
	}
	return cid, nil
}

// String returns the id
func (c ConnectionID) String() string {
	return c.value
}

// Users returns both participants in sorted order
func (c ConnectionID) Users() [2]string {
	return c.users
}

// Includes reports whether uid is one of the participants
func (c ConnectionID) Includes(uid string) bool {
	return uid != "" && (c.users[0] == uid || c.users[1] == uid)
}

// Other returns the participant that is not uid
func (c ConnectionID) Other(uid string) string {
	if c.users[0] == uid {
		return c.users[1]
	}
	return c.users[0]
}

// IsZero checks if the ConnectionID is the zero value
func (c ConnectionID) IsZero() bool {
	return c.value == ""
}
