package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asciiarena/pkg/arena"
	"asciiarena/pkg/protocol"
)

// newTestServer starts a Server on OS-chosen ports and returns it already
// running, torn down automatically at test end.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithArenaWaiting(t, 30*time.Millisecond)
}

// newTestServerWithArenaWaiting is newTestServer with a caller-chosen
// prepare-window length, for tests that need to observe the countdown
// itself (e.g. a reconnect landing mid-window).
func newTestServerWithArenaWaiting(t *testing.T, arenaWaiting time.Duration) *Server {
	t.Helper()

	cfg := testConfig(t)
	cfg.ServerTCPPort = 0
	cfg.ServerUDPPort = 0
	cfg.PlayersNumber = 2
	cfg.ArenaWaiting = arenaWaiting

	srv, err := New(cfg, arena.DefaultRoster())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})

	return srv
}

func dialTCP(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_VersionHandshake_Compatible(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTCP(t, srv.TCPAddr())

	require.NoError(t, protocol.WriteClientFrame(conn, &protocol.VersionRequest{Version: ProtocolVersion}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(conn)
	require.NoError(t, err)

	v, ok := resp.(*protocol.VersionResponse)
	require.True(t, ok, "expected VersionResponse, got %T", resp)
	assert.Equal(t, protocol.Fully, v.Compatibility)
	assert.Equal(t, ProtocolVersion, v.Version)
}

func TestServer_VersionHandshake_IncompatibleClosesConnection(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTCP(t, srv.TCPAddr())

	require.NoError(t, protocol.WriteClientFrame(conn, &protocol.VersionRequest{Version: "99.0.0"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(conn)
	require.NoError(t, err)
	v := resp.(*protocol.VersionResponse)
	assert.Equal(t, protocol.None, v.Compatibility)

	// The server closes the connection right after; the next read must
	// observe EOF rather than hang.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(conn)
	assert.Error(t, err)
}

func TestServer_RequestServerInfo(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTCP(t, srv.TCPAddr())

	require.NoError(t, protocol.WriteClientFrame(conn, &protocol.RequestServerInfo{}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(conn)
	require.NoError(t, err)

	info, ok := resp.(*protocol.ServerInfo)
	require.True(t, ok, "expected ServerInfo, got %T", resp)
	assert.Equal(t, 2, info.PlayersNumber)
	assert.Empty(t, info.LoggedPlayers)
}

func TestServer_Login_CreatedThenAlreadyLogged(t *testing.T) {
	srv := newTestServer(t)

	first := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(first, &protocol.LoginRequest{Name: "A"}))
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(first)
	require.NoError(t, err)
	status := resp.(*protocol.LoginStatusMessage)
	assert.Equal(t, protocol.Logged, status.Status)

	second := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(second, &protocol.LoginRequest{Name: "A"}))
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp2, err := protocol.ReadServerFrame(second)
	require.NoError(t, err)
	status2 := resp2.(*protocol.LoginStatusMessage)
	assert.Equal(t, protocol.AlreadyLogged, status2.Status)
}

func TestServer_Login_InvalidName(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTCP(t, srv.TCPAddr())

	require.NoError(t, protocol.WriteClientFrame(conn, &protocol.LoginRequest{Name: "nope"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(conn)
	require.NoError(t, err)
	status := resp.(*protocol.LoginStatusMessage)
	assert.Equal(t, protocol.InvalidPlayerName, status.Status)
}

func TestServer_RoomFillsAndStartsGame(t *testing.T) {
	srv := newTestServer(t)

	a := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(a, &protocol.LoginRequest{Name: "A"}))
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := protocol.ReadServerFrame(a) // LoginStatus
	require.NoError(t, err)

	b := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(b, &protocol.LoginRequest{Name: "B"}))

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(a) // PlayerListUpdated, broadcast to A
	require.NoError(t, err)
	_, ok := resp.(*protocol.PlayerListUpdated)
	require.True(t, ok, "expected PlayerListUpdated, got %T", resp)

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(b) // LoginStatus for B
	require.NoError(t, err)

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp2, err := protocol.ReadServerFrame(b) // StartGame, room now full
	require.NoError(t, err)
	_, ok = resp2.(*protocol.StartGame)
	require.True(t, ok, "expected StartGame, got %T", resp2)
}

// TestServer_ReconnectDuringPrepareWindow covers spec.md §8 scenario 3: a
// player who drops and reconnects while the next arena is still counting
// down must see StartGame + PrepareArena(remaining) only — never an
// immediate StartArena, which would tell the client the arena is already
// Playing before the room has actually received the real StartArena
// broadcast.
func TestServer_ReconnectDuringPrepareWindow(t *testing.T) {
	srv := newTestServerWithArenaWaiting(t, 500*time.Millisecond)

	a := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(a, &protocol.LoginRequest{Name: "A"}))
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := protocol.ReadServerFrame(a) // LoginStatus
	require.NoError(t, err)

	b := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(b, &protocol.LoginRequest{Name: "B"}))

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(a) // PlayerListUpdated
	require.NoError(t, err)

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(b) // LoginStatus for B
	require.NoError(t, err)
	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(b) // StartGame
	require.NoError(t, err)

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(a) // StartGame for A
	require.NoError(t, err)
	_, ok := resp.(*protocol.StartGame)
	require.True(t, ok, "expected StartGame, got %T", resp)

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(a) // PrepareArena, countdown just started
	require.NoError(t, err)
	_, ok = resp.(*protocol.PrepareArena)
	require.True(t, ok, "expected PrepareArena, got %T", resp)

	a.Close()
	time.Sleep(50 * time.Millisecond) // let the server observe the drop

	reconnect := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(reconnect, &protocol.LoginRequest{Name: "A"}))

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(reconnect) // LoginStatus: Reconnected
	require.NoError(t, err)
	status := resp.(*protocol.LoginStatusMessage)
	assert.Equal(t, protocol.Reconnected, status.Status)

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(reconnect) // StartGame resend
	require.NoError(t, err)
	_, ok = resp.(*protocol.StartGame)
	require.True(t, ok, "expected StartGame, got %T", resp)

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(reconnect) // must be PrepareArena, not StartArena
	require.NoError(t, err)
	_, ok = resp.(*protocol.PrepareArena)
	require.True(t, ok, "expected PrepareArena (still waiting), got %T", resp)
}

// TestServer_ReconnectAfterArenaStarted covers the other half of the same
// either/or: once the prepare window has actually elapsed and the arena has
// started, a reconnecting player gets StartGame + StartArena, no
// PrepareArena.
func TestServer_ReconnectAfterArenaStarted(t *testing.T) {
	srv := newTestServerWithArenaWaiting(t, 30*time.Millisecond)

	a := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(a, &protocol.LoginRequest{Name: "A"}))
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := protocol.ReadServerFrame(a) // LoginStatus
	require.NoError(t, err)

	b := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(b, &protocol.LoginRequest{Name: "B"}))

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(a) // PlayerListUpdated
	require.NoError(t, err)

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(b) // LoginStatus for B
	require.NoError(t, err)
	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(b) // StartGame
	require.NoError(t, err)

	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(a) // StartGame for A
	require.NoError(t, err)
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = protocol.ReadServerFrame(a) // PrepareArena
	require.NoError(t, err)

	a.Close()
	// Give the short prepare window (and the server's detection of the
	// drop) time to fully elapse before reconnecting.
	time.Sleep(150 * time.Millisecond)

	reconnect := dialTCP(t, srv.TCPAddr())
	require.NoError(t, protocol.WriteClientFrame(reconnect, &protocol.LoginRequest{Name: "A"}))

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := protocol.ReadServerFrame(reconnect) // LoginStatus: Reconnected
	require.NoError(t, err)
	status := resp.(*protocol.LoginStatusMessage)
	assert.Equal(t, protocol.Reconnected, status.Status)

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(reconnect) // StartGame resend
	require.NoError(t, err)
	_, ok := resp.(*protocol.StartGame)
	require.True(t, ok, "expected StartGame, got %T", resp)

	reconnect.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err = protocol.ReadServerFrame(reconnect) // must be StartArena, not PrepareArena
	require.NoError(t, err)
	_, ok = resp.(*protocol.StartArena)
	require.True(t, ok, "expected StartArena (already started), got %T", resp)
}
