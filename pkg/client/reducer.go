package client

import (
	"time"

	"asciiarena/pkg/protocol"
)

// protocolVersion is the client's own wire version, sent on CheckVersion.
// It must track pkg/server.ProtocolVersion; the two packages deliberately
// do not import each other, so this is restated here the way the original
// client and server each carried their own copy of the version constant.
const protocolVersion = "1.0.0"

// Reduce is the client's entire mutation surface: it is the only function
// that writes to a State. Every external event — network or local input —
// becomes one Action here, and any side effect the transition requires
// comes back out as an ApiCall for the caller to execute. Reduce never
// performs I/O itself.
func Reduce(state *State, action Action) []ApiCall {
	switch a := action.(type) {

	case StartApp:
		if state.Server.Addr != nil {
			return []ApiCall{CallConnect{Addr: state.Server.Addr}}
		}
		return nil

	case ConnectionResolved:
		switch a.Result {
		case ConnectionSucceeded:
			state.Server.ConnectionStatus = Connected
			return []ApiCall{CallCheckVersion{Version: protocolVersion}}
		case ConnectionNotFound:
			state.Server.ConnectionStatus = NotFound
		}
		return nil

	case Disconnected:
		state.Server.ConnectionStatus = Lost
		return nil

	case CheckedVersion:
		state.Server.VersionInfo = &VersionInfo{Version: a.Version, Compatibility: a.Compatibility}
		if a.Compatibility != protocol.None {
			return []ApiCall{CallSubscribeInfo{}}
		}
		return nil

	case GotServerInfo:
		state.Server.UDPPort = a.UDPPort
		state.Server.GameInfo = &StaticGameInfo{
			PlayersNumber: a.PlayersNumber,
			MapSize:       a.MapSize,
			WinnerPoints:  a.WinnerPoints,
		}
		state.Server.LoggedPlayers = a.LoggedPlayers

		if state.User.Character != "" {
			return Reduce(state, RequestLogin{Name: state.User.Character})
		}
		return nil

	case PlayerListChanged:
		state.Server.LoggedPlayers = a.Players
		return nil

	case RequestLogin:
		state.User.Character = a.Name
		return []ApiCall{CallLogin{Name: a.Name}, CallProbeUDP{Name: a.Name}}

	case GotLoginStatus:
		status := a.Status
		state.User.LoginStatus = &status
		return nil

	case GotUDPReachable:
		reachable := a.Reachable
		state.Server.UDPConfirmed = &reachable
		return nil

	case GameStarted:
		state.Server.Game.Status = Started
		return nil

	case GameEnded:
		state.Server.Game.Status = GameFinished
		state.Server.LoggedPlayers = nil
		state.User.LoginStatus = nil
		state.Server.UDPConfirmed = nil
		return nil

	case ArenaPreparing:
		next := time.Now().Add(a.Waiting)
		state.Server.Game.NextArenaTimestamp = &next
		return nil

	case ArenaStarted:
		state.Server.Game.NextArenaTimestamp = nil
		state.Server.Game.Arena = &Arena{Number: a.Number, Status: Playing}
		return nil

	case ArenaEnded:
		if arena := state.Server.Game.Arena; arena != nil {
			arena.Status = Finished
		}
		return nil

	case ArenaStepped:
		if arena := state.Server.Game.Arena; arena != nil {
			arena.Delta = a.Delta
		}
		return nil

	case RequestMove:
		if state.Server.Game.Arena == nil || state.Server.Game.Arena.Status != Playing {
			return nil
		}
		return []ApiCall{CallMove{Direction: a.Direction}}

	case RequestSkill:
		if state.Server.Game.Arena == nil || state.Server.Game.Arena.Status != Playing {
			return nil
		}
		return []ApiCall{CallSkill{SkillID: a.SkillID}}

	case RequestClose:
		return []ApiCall{CallDisconnect{}}
	}

	return nil
}
