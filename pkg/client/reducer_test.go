package client

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asciiarena/pkg/protocol"
)

func TestReduce_StartApp_IssuesConnectWhenAddrSet(t *testing.T) {
	state := NewState(Config{ServerAddr: mustTCPAddr(t, "127.0.0.1:4500")})

	calls := Reduce(state, StartApp{})

	require.Len(t, calls, 1)
	connect, ok := calls[0].(CallConnect)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", connect.Addr.IP.String())
}

func TestReduce_StartApp_NoAddrNoCall(t *testing.T) {
	state := NewState(Config{})
	assert.Empty(t, Reduce(state, StartApp{}))
}

func TestReduce_ConnectionResolved_ConnectedIssuesCheckVersion(t *testing.T) {
	state := NewState(Config{})

	calls := Reduce(state, ConnectionResolved{Result: ConnectionSucceeded})

	assert.Equal(t, Connected, state.Server.ConnectionStatus)
	require.Len(t, calls, 1)
	assert.Equal(t, CallCheckVersion{Version: protocolVersion}, calls[0])
}

func TestReduce_ConnectionResolved_NotFound(t *testing.T) {
	state := NewState(Config{})

	calls := Reduce(state, ConnectionResolved{Result: ConnectionNotFound})

	assert.Equal(t, NotFound, state.Server.ConnectionStatus)
	assert.Empty(t, calls)
}

func TestReduce_CheckedVersion_CompatibleSubscribes(t *testing.T) {
	state := NewState(Config{})

	calls := Reduce(state, CheckedVersion{Version: "1.0.0", Compatibility: protocol.Fully})

	require.NotNil(t, state.Server.VersionInfo)
	assert.Equal(t, protocol.Fully, state.Server.VersionInfo.Compatibility)
	require.Len(t, calls, 1)
	assert.Equal(t, CallSubscribeInfo{}, calls[0])
}

func TestReduce_CheckedVersion_IncompatibleNoSubscribe(t *testing.T) {
	state := NewState(Config{})

	calls := Reduce(state, CheckedVersion{Version: "9.0.0", Compatibility: protocol.None})

	assert.Empty(t, calls)
}

func TestReduce_ServerInfo_LoginsWhenCharacterChosen(t *testing.T) {
	state := NewState(Config{Character: "A"})

	calls := Reduce(state, GotServerInfo{
		UDPPort: 4501, PlayersNumber: 2, MapSize: 20, WinnerPoints: 3,
		LoggedPlayers: []string{"B"},
	})

	require.NotNil(t, state.Server.GameInfo)
	assert.Equal(t, 2, state.Server.GameInfo.PlayersNumber)
	assert.Equal(t, []string{"B"}, state.Server.LoggedPlayers)

	require.Len(t, calls, 2)
	assert.Equal(t, CallLogin{Name: "A"}, calls[0])
	assert.Equal(t, CallProbeUDP{Name: "A"}, calls[1])
}

func TestReduce_ServerInfo_NoCharacterNoLogin(t *testing.T) {
	state := NewState(Config{})

	calls := Reduce(state, GotServerInfo{PlayersNumber: 2})

	assert.Empty(t, calls)
}

func TestReduce_GotLoginStatus_RecordsStatus(t *testing.T) {
	state := NewState(Config{})

	Reduce(state, GotLoginStatus{Status: protocol.Logged})

	require.NotNil(t, state.User.LoginStatus)
	assert.Equal(t, protocol.Logged, *state.User.LoginStatus)
	assert.True(t, state.User.IsLogged())
}

func TestReduce_GameEnded_ClearsRoomState(t *testing.T) {
	state := NewState(Config{})
	state.Server.LoggedPlayers = []string{"A", "B"}
	status := protocol.Logged
	state.User.LoginStatus = &status
	confirmed := true
	state.Server.UDPConfirmed = &confirmed

	Reduce(state, GameEnded{})

	assert.Equal(t, GameFinished, state.Server.Game.Status)
	assert.Empty(t, state.Server.LoggedPlayers)
	assert.Nil(t, state.User.LoginStatus)
	assert.Nil(t, state.Server.UDPConfirmed)
}

func TestReduce_ArenaLifecycle(t *testing.T) {
	state := NewState(Config{})

	Reduce(state, ArenaPreparing{Waiting: 5 * time.Second})
	require.NotNil(t, state.Server.Game.NextArenaTimestamp)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), *state.Server.Game.NextArenaTimestamp, time.Second)

	Reduce(state, ArenaStarted{Number: 1})
	assert.Nil(t, state.Server.Game.NextArenaTimestamp)
	require.NotNil(t, state.Server.Game.Arena)
	assert.Equal(t, 1, state.Server.Game.Arena.Number)
	assert.Equal(t, Playing, state.Server.Game.Arena.Status)

	delta := protocol.ArenaDelta{Step: 7}
	Reduce(state, ArenaStepped{Delta: delta})
	assert.Equal(t, 7, state.Server.Game.Arena.Delta.Step)

	Reduce(state, ArenaEnded{})
	assert.Equal(t, Finished, state.Server.Game.Arena.Status)
}

func TestReduce_RequestMove_OnlyWhenArenaPlaying(t *testing.T) {
	state := NewState(Config{})

	assert.Empty(t, Reduce(state, RequestMove{Direction: protocol.North}))

	state.Server.Game.Arena = &Arena{Number: 1, Status: Playing}
	calls := Reduce(state, RequestMove{Direction: protocol.North})
	require.Len(t, calls, 1)
	assert.Equal(t, CallMove{Direction: protocol.North}, calls[0])

	state.Server.Game.Arena.Status = Finished
	assert.Empty(t, Reduce(state, RequestMove{Direction: protocol.North}))
}

func TestReduce_RequestClose_Disconnects(t *testing.T) {
	state := NewState(Config{})
	calls := Reduce(state, RequestClose{})
	require.Len(t, calls, 1)
	assert.Equal(t, CallDisconnect{}, calls[0])
}

func mustTCPAddr(t *testing.T, s string) *net.TCPAddr {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", s)
	require.NoError(t, err)
	return addr
}
