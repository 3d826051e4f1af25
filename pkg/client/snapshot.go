package client

import (
	"fmt"
	"io"
	"strings"
)

// writeSnapshot prints a one-screen text summary of State. Terminal
// rendering proper is out of scope; this exists so the client subcommand
// produces visible, truthful output without a real TUI dependency.
func writeSnapshot(w io.Writer, s *State) {
	var b strings.Builder

	fmt.Fprintf(&b, "connection: %s\n", s.Server.ConnectionStatus)
	if v := s.Server.VersionInfo; v != nil {
		fmt.Fprintf(&b, "server version: %s (%s)\n", v.Version, v.Compatibility)
	}
	if info := s.Server.GameInfo; info != nil {
		fmt.Fprintf(&b, "room: %d/%d players, map %d, %d points to win\n",
			len(s.Server.LoggedPlayers), info.PlayersNumber, info.MapSize, info.WinnerPoints)
	}
	if len(s.Server.LoggedPlayers) > 0 {
		fmt.Fprintf(&b, "players: %s\n", strings.Join(s.Server.LoggedPlayers, ", "))
	}
	if s.User.LoginStatus != nil {
		fmt.Fprintf(&b, "login: %s\n", s.User.LoginStatus)
	}
	if s.Server.UDPConfirmed != nil {
		fmt.Fprintf(&b, "udp reachable: %v\n", *s.Server.UDPConfirmed)
	}

	switch s.Server.Game.Status {
	case NotStarted:
		fmt.Fprintf(&b, "game: waiting\n")
	case Started:
		fmt.Fprintf(&b, "game: in progress\n")
	case GameFinished:
		fmt.Fprintf(&b, "game: finished\n")
	}

	if arena := s.Server.Game.Arena; arena != nil {
		fmt.Fprintf(&b, "arena %d: %d entities, %d spells\n",
			arena.Number, len(arena.Delta.Entities), len(arena.Delta.Spells))
	}

	fmt.Fprint(w, b.String())
}
