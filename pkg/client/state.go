// Package client implements the companion state engine a thin terminal
// client mirrors server state through: a pure reducer consumes Actions
// produced by network events and local input, and a transport turns wire
// traffic into those Actions. Nothing in this package renders or reads a
// terminal; that belongs to the caller wiring cmd/arena together.
package client

import (
	"net"
	"time"

	"asciiarena/pkg/protocol"
)

// ConnectionStatus mirrors the lifecycle of the client's reliable socket.
type ConnectionStatus int

const (
	NotConnected ConnectionStatus = iota
	Connected
	NotFound
	Lost
)

func (s ConnectionStatus) String() string {
	switch s {
	case NotConnected:
		return "NotConnected"
	case Connected:
		return "Connected"
	case NotFound:
		return "NotFound"
	case Lost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// ArenaStatus is the client-side mirror of one arena's lifecycle.
type ArenaStatus int

const (
	Playing ArenaStatus = iota
	Finished
)

// GameStatus is the client-side mirror of the current game's lifecycle.
type GameStatus int

const (
	NotStarted GameStatus = iota
	Started
	GameFinished
)

// User holds the player's own identity and the server's last verdict on it.
type User struct {
	Character   string
	LoginStatus *protocol.LoginStatus
}

// IsLogged reports whether the user currently holds a confirmed room slot.
func (u User) IsLogged() bool {
	return u.LoginStatus != nil &&
		(*u.LoginStatus == protocol.Logged || *u.LoginStatus == protocol.Reconnected)
}

// VersionInfo records the server's reported version and the computed
// compatibility against the client's own version.
type VersionInfo struct {
	Version       string
	Compatibility protocol.Compatibility
}

// StaticGameInfo is the room/arena sizing the server reported once.
type StaticGameInfo struct {
	PlayersNumber int
	MapSize       int
	WinnerPoints  int
}

// Arena is the client-side mirror of the entities and spells the server
// last reported for the arena currently in progress.
type Arena struct {
	Number  int
	Status  ArenaStatus
	Delta   protocol.ArenaDelta
}

// Game is the client-side mirror of game/arena progression.
type Game struct {
	Status             GameStatus
	NextArenaTimestamp *time.Time
	Arena              *Arena
}

// Server mirrors everything the client knows about its connection to the
// authoritative server.
type Server struct {
	Addr             *net.TCPAddr
	ConnectionStatus ConnectionStatus
	UDPPort          int
	UDPConfirmed     *bool
	VersionInfo      *VersionInfo
	GameInfo         *StaticGameInfo
	LoggedPlayers    []string
	Game             Game
}

// IsFull reports whether the last known logged-player count matches the
// server's configured room capacity.
func (s Server) IsFull() bool {
	return s.GameInfo != nil && s.GameInfo.PlayersNumber == len(s.LoggedPlayers)
}

// IsConnected reports whether the reliable socket is currently up.
func (s Server) IsConnected() bool {
	return s.ConnectionStatus == Connected
}

// HasCompatibleVersion reports whether the server has replied with a
// compatibility other than None.
func (s Server) HasCompatibleVersion() bool {
	return s.VersionInfo != nil && s.VersionInfo.Compatibility != protocol.None
}

// Config seeds a fresh State: the server address to dial and, optionally,
// the character letter to log in as once the connection is ready.
type Config struct {
	ServerAddr *net.TCPAddr
	Character  string
}

// State is the client's entire mirror of server-visible truth. It is
// created once from a Config and thereafter mutated only by Reduce.
type State struct {
	User   User
	Server Server
}

// NewState builds the initial State a fresh client starts from.
func NewState(cfg Config) *State {
	return &State{
		User: User{Character: cfg.Character},
		Server: Server{
			Addr:             cfg.ServerAddr,
			ConnectionStatus: NotConnected,
			Game: Game{
				Status: NotStarted,
			},
		},
	}
}
