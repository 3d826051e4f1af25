package client

import (
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"asciiarena/pkg/protocol"
)

// Transport owns the client's reliable and unreliable sockets. It never
// touches State directly: reading the wire produces Actions on a channel,
// and executing an ApiCall is the only way anything gets written. This
// mirrors the server-side Transport's discipline of being the single
// thread-safe gateway between goroutines and the single-threaded owner of
// state, adapted to the client's one-reliable-connection shape.
type Transport struct {
	actions chan Action

	mu      sync.Mutex
	conn    net.Conn
	udpConn *net.UDPConn
	udpAddr *net.UDPAddr
}

// NewTransport creates a Transport that delivers Actions on the channel
// returned by Actions. That channel is never closed, not even after both
// sockets have been torn down.
func NewTransport() *Transport {
	return &Transport{
		actions: make(chan Action, 64),
	}
}

// Actions returns the channel network events are delivered on.
func (t *Transport) Actions() <-chan Action {
	return t.actions
}

// Execute runs the side effect an ApiCall describes. It is the only method
// that performs network I/O on behalf of the reducer's output.
func (t *Transport) Execute(call ApiCall) {
	switch c := call.(type) {
	case CallConnect:
		t.connect(c.Addr)
	case CallCheckVersion:
		t.sendReliable(&protocol.VersionRequest{Version: c.Version})
	case CallSubscribeInfo:
		t.sendReliable(&protocol.RequestServerInfo{})
	case CallLogin:
		t.sendReliable(&protocol.LoginRequest{Name: c.Name})
	case CallProbeUDP:
		t.sendFast(&protocol.LoginRequest{Name: c.Name})
	case CallMove:
		t.sendFast(&protocol.MoveRequest{Direction: c.Direction})
	case CallSkill:
		t.sendFast(&protocol.SkillRequest{SkillID: c.SkillID})
	case CallDisconnect:
		t.Close()
	}
}

func (t *Transport) connect(addr *net.TCPAddr) {
	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		logrus.WithError(err).WithField("addr", addr).Warn("client: dial failed")
		t.actions <- ConnectionResolved{Result: ConnectionNotFound}
		return
	}

	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		conn.Close()
		logrus.WithError(err).Warn("client: udp socket bind failed")
		t.actions <- ConnectionResolved{Result: ConnectionNotFound}
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.udpConn = udpConn
	t.mu.Unlock()

	go t.readReliable(conn)
	go t.readFast(udpConn)

	t.actions <- ConnectionResolved{Result: ConnectionSucceeded}
}

// BindUDPServer records where unreliable datagrams should be sent, once the
// client has learned the server's UDP port from a ServerInfo snapshot.
func (t *Transport) BindUDPServer(host string, port int) error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("client: resolve udp addr: %w", err)
	}
	t.mu.Lock()
	t.udpAddr = addr
	t.mu.Unlock()
	return nil
}

func (t *Transport) readReliable(conn net.Conn) {
	defer func() {
		t.actions <- Disconnected{}
	}()

	for {
		msg, err := protocol.ReadServerFrame(conn)
		if err != nil {
			logrus.WithError(err).Debug("client: reliable read ended")
			return
		}
		if action := translateReliable(msg); action != nil {
			t.actions <- action
		}
	}
}

func (t *Transport) readFast(conn *net.UDPConn) {
	buf := make([]byte, 65535)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			logrus.WithError(err).Debug("client: fast read ended")
			return
		}
		msg, err := protocol.DecodeServer(buf[:n])
		if err != nil {
			logrus.WithError(err).Debug("client: malformed datagram dropped")
			continue
		}
		if action := translateFast(msg); action != nil {
			t.actions <- action
		}
	}
}

func translateReliable(msg protocol.ServerMessage) Action {
	switch m := msg.(type) {
	case *protocol.VersionResponse:
		return CheckedVersion{Version: m.Version, Compatibility: m.Compatibility}
	case *protocol.ServerInfo:
		return GotServerInfo{
			UDPPort:       m.UDPPort,
			PlayersNumber: m.PlayersNumber,
			MapSize:       m.MapSize,
			WinnerPoints:  m.WinnerPoints,
			LoggedPlayers: m.LoggedPlayers,
		}
	case *protocol.PlayerListUpdated:
		return PlayerListChanged{Players: m.Players}
	case *protocol.LoginStatusMessage:
		return GotLoginStatus{Status: m.Status}
	case *protocol.UDPReachableMessage:
		return GotUDPReachable{Reachable: m.Reachable}
	case *protocol.StartGame:
		return GameStarted{}
	case *protocol.EndGame:
		return GameEnded{}
	case *protocol.PrepareArena:
		return ArenaPreparing{Waiting: m.Waiting}
	case *protocol.StartArena:
		return ArenaStarted{Number: m.Number}
	case *protocol.EndArena:
		return ArenaEnded{}
	default:
		return nil
	}
}

// translateFast decodes the one message kind legitimately expected on the
// unreliable channel; anything else arriving there is a protocol violation
// from this client's own perspective and is dropped.
func translateFast(msg protocol.ServerMessage) Action {
	if step, ok := msg.(*protocol.Step); ok {
		return ArenaStepped{Delta: step.Delta}
	}
	return nil
}

func (t *Transport) sendReliable(msg protocol.ClientMessage) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}
	if err := protocol.WriteClientFrame(conn, msg); err != nil {
		logrus.WithError(err).Debug("client: reliable send failed")
	}
}

// sendFast swallows failures, per the unreliable channel's error policy:
// a dropped datagram is never grounds to tear anything down.
func (t *Transport) sendFast(msg protocol.ClientMessage) {
	t.mu.Lock()
	conn, addr := t.udpConn, t.udpAddr
	t.mu.Unlock()
	if conn == nil || addr == nil {
		return
	}
	payload, err := protocol.EncodeClient(msg)
	if err != nil {
		return
	}
	if _, err := conn.WriteToUDP(payload, addr); err != nil {
		logrus.WithError(err).Debug("client: fast send failed")
	}
}

// Close tears down both sockets. Safe to call more than once.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	if t.udpConn != nil {
		t.udpConn.Close()
		t.udpConn = nil
	}
}
