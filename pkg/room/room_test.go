package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPlayerName(t *testing.T) {
	assert.True(t, IsValidPlayerName("A"))
	assert.True(t, IsValidPlayerName("Z"))
	assert.False(t, IsValidPlayerName("AA"))
	assert.False(t, IsValidPlayerName("a"))
	assert.False(t, IsValidPlayerName(""))
	assert.False(t, IsValidPlayerName("1"))
}

func TestCreateSession_InvalidName(t *testing.T) {
	r := NewRoom(2)
	outcome, session := r.CreateSession("aa", "ep1")
	assert.Equal(t, InvalidName, outcome)
	assert.Nil(t, session)
}

func TestCreateSession_RoomFill(t *testing.T) {
	r := NewRoom(2)

	outcome, sessA := r.CreateSession("A", "ep-a")
	require.Equal(t, Created, outcome)
	require.NotNil(t, sessA)

	outcome, sessB := r.CreateSession("B", "ep-b")
	require.Equal(t, Created, outcome)
	require.NotNil(t, sessB)
	assert.True(t, r.IsFull())

	outcome, sessC := r.CreateSession("C", "ep-c")
	assert.Equal(t, Full, outcome)
	assert.Nil(t, sessC)
}

func TestCreateSession_AlreadyLogged(t *testing.T) {
	r := NewRoom(2)
	_, _ = r.CreateSession("A", "ep-a")

	outcome, session := r.CreateSession("A", "ep-a2")
	assert.Equal(t, AlreadyLogged, outcome)
	assert.Nil(t, session)
}

func TestReconnect_TokenStableAcrossRecycles(t *testing.T) {
	r := NewRoom(2)

	_, sess := r.CreateSession("A", "ep-1")
	token := sess.Token()

	// Transport drops during a game: notify_lost_endpoint keeps the ghost.
	lost := r.NotifyLostEndpoint("ep-1")
	require.NotNil(t, lost)
	_, bound := lost.Reliable()
	assert.False(t, bound)

	outcome, recycled := r.CreateSession("A", "ep-2")
	require.Equal(t, Recycled, outcome)
	assert.Equal(t, token, recycled.Token())

	// Can recycle more than once and the token never changes.
	r.NotifyLostEndpoint("ep-2")
	outcome, recycledAgain := r.CreateSession("A", "ep-3")
	require.Equal(t, Recycled, outcome)
	assert.Equal(t, token, recycledAgain.Token())
}

func TestRemoveSessionByEndpoint(t *testing.T) {
	r := NewRoom(2)
	_, _ = r.CreateSession("A", "ep-1")

	removed := r.RemoveSessionByEndpoint("ep-1")
	require.NotNil(t, removed)
	assert.Equal(t, 0, r.Count())

	_, ok := r.SessionByName("A")
	assert.False(t, ok)

	// A fresh login with the same name now gets a new session (Created,
	// not Recycled) since the prior one was removed outright.
	outcome, session := r.CreateSession("A", "ep-2")
	assert.Equal(t, Created, outcome)
	assert.NotNil(t, session)
}

func TestFastEndpointBinding(t *testing.T) {
	r := NewRoom(2)
	_, _ = r.CreateSession("A", "ep-1")

	r.BindFastEndpoint("A", "udp-1")
	session, ok := r.SessionByFast("udp-1")
	require.True(t, ok)
	assert.Equal(t, "A", session.Name())

	fastEndpoints := r.FastEndpoints()
	assert.Equal(t, []FastEndpointID{"udp-1"}, fastEndpoints)
}

func TestSessionsOrderedByName(t *testing.T) {
	r := NewRoom(3)
	_, _ = r.CreateSession("C", "ep-c")
	_, _ = r.CreateSession("A", "ep-a")
	_, _ = r.CreateSession("B", "ep-b")

	sessions := r.Sessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{sessions[0].Name(), sessions[1].Name(), sessions[2].Name()})
}

func TestClearResetsRoom(t *testing.T) {
	r := NewRoom(2)
	_, _ = r.CreateSession("A", "ep-1")
	r.BindFastEndpoint("A", "udp-1")

	r.Clear()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.SafeEndpoints())
	assert.Empty(t, r.FastEndpoints())

	outcome, session := r.CreateSession("A", "ep-new")
	assert.Equal(t, Created, outcome)
	assert.Equal(t, 0, session.Token())
}
