package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"asciiarena/pkg/arena"
	"asciiarena/pkg/config"
	"asciiarena/pkg/integration"
	"asciiarena/pkg/protocol"
	"asciiarena/pkg/room"
)

// Server is the authoritative arena server: the event loop plus
// everything it needs to answer one. Every field below is owned
// exclusively by the goroutine running Run; nothing else may read or
// write them.
type Server struct {
	cfg *config.Config

	queue     *EventQueue
	transport *Transport
	room      *room.Room
	roster    *arena.Roster
	rate      *RateLimiter
	metrics   *Metrics
	debug     *DebugServer

	game           *arena.Game
	arenaCreatedAt time.Time
}

// New builds a Server bound to cfg's configured ports. A non-nil error
// means the listeners could not be bound; the caller should log and exit
// non-zero per the configuration-error policy. When cfg.EnableProfiling
// is set, a debug HTTP endpoint (metrics, health, spectator websocket) is
// also bound on cfg.ProfilingPort.
func New(cfg *config.Config, roster *arena.Roster) (*Server, error) {
	queue := NewEventQueue()
	metrics := NewMetrics()

	transport, err := NewTransport(queue, metrics, cfg.ServerTCPPort, cfg.ServerUDPPort)
	if err != nil {
		return nil, err
	}

	var debug *DebugServer
	if cfg.EnableProfiling {
		debug = NewDebugServer(metrics, debugAddr(cfg.ProfilingPort))
	}

	return &Server{
		cfg:       cfg,
		queue:     queue,
		transport: transport,
		room:      room.NewRoom(cfg.PlayersNumber),
		roster:    roster,
		rate:      NewRateLimiter(cfg),
		metrics:   metrics,
		debug:     debug,
	}, nil
}

// TCPAddr returns the address the reliable listener is bound to.
func (s *Server) TCPAddr() net.Addr {
	return s.transport.TCPAddr()
}

// UDPAddr returns the address the unreliable socket is bound to.
func (s *Server) UDPAddr() net.Addr {
	return s.transport.UDPAddr()
}

// Metrics returns the server's metrics, whose Registry can be wired into a
// caller-owned HTTP mux when the built-in debug endpoint isn't used.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run starts the accept/read loops and processes events until ctx is
// cancelled or a Close event is received. It returns once the server has
// shut down cleanly.
func (s *Server) Run(ctx context.Context) error {
	defer s.transport.Close()
	defer s.rate.Close()

	if s.debug != nil {
		s.debug.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
			defer cancel()
			s.debug.Shutdown(shutdownCtx)
		}()
	}

	go s.transport.AcceptLoop(ctx)
	go s.transport.ReadUDPLoop(ctx)
	go func() {
		<-ctx.Done()
		s.queue.PushPriority(Event{Kind: EventClose})
	}()

	s.metrics.serverStartTime.Set(float64(time.Now().Unix()))

	logrus.WithFields(logrus.Fields{
		"tcp_port": s.cfg.ServerTCPPort,
		"udp_port": s.cfg.ServerUDPPort,
		"players":  s.cfg.PlayersNumber,
	}).Info("server: listening")

	for {
		ev := s.queue.Receive()
		logrus.WithField("kind", ev.Kind).Trace("server: processing event")

		switch ev.Kind {
		case EventNetworkMessage:
			s.handleNetworkMessage(ev)
		case EventNetworkRemoved:
			s.handleDisconnection(ev.Endpoint.Reliable)
		case EventCreateGame:
			s.handleCreateGame()
		case EventCreateArena:
			s.handleCreateArena()
		case EventStartArena:
			s.handleStartArena()
		case EventGameStep:
			s.handleGameStep()
		case EventReset:
			s.handleReset()
		case EventClose:
			logrus.Info("server: closing")
			return nil
		}
	}
}

// sendReliable wraps a single reliable send with circuit breaker and
// retry protection, since a stalled TCP write is exactly the kind of
// transient failure those patterns exist to absorb.
func (s *Server) sendReliable(id ReliableEndpointID, msg ServerMessage) {
	err := integration.ExecuteReliableSend(context.Background(), func(context.Context) error {
		return s.transport.SendReliable(id, msg)
	})
	if err != nil {
		logrus.WithField("endpoint", id).WithError(err).Debug("server: reliable send failed, dropping endpoint")
		s.transport.CloseReliable(id)
	}
}

func (s *Server) broadcastReliable(ids []ReliableEndpointID, msg ServerMessage) {
	for _, id := range ids {
		s.sendReliable(id, msg)
	}
}

func (s *Server) handleNetworkMessage(ev Event) {
	key := string(ev.Endpoint.Reliable)
	if ev.Endpoint.Channel == ChannelFast {
		key = string(ev.Endpoint.Fast)
	}
	if s.cfg.RateLimitEnabled && !s.rate.Allow(key) {
		s.metrics.messagesDropped.WithLabelValues("rate_limited").Inc()
		return
	}

	switch ev.Endpoint.Channel {
	case ChannelReliable:
		s.handleReliableMessage(ev.Endpoint.Reliable, ev.Message)
	case ChannelFast:
		s.handleFastMessage(ev.Endpoint.Fast, ev.Message)
	}
}

func (s *Server) handleReliableMessage(id ReliableEndpointID, msg ClientMessage) {
	switch m := msg.(type) {
	case *protocol.VersionRequest:
		s.metrics.messagesReceived.WithLabelValues("reliable", "Version").Inc()
		s.handleVersion(id, m)
	case *protocol.RequestServerInfo:
		s.metrics.messagesReceived.WithLabelValues("reliable", "RequestServerInfo").Inc()
		s.handleRequestServerInfo(id)
	case *protocol.LoginRequest:
		s.metrics.messagesReceived.WithLabelValues("reliable", "Login").Inc()
		s.handleLogin(id, m.Name)
	default:
		// Move/Skill arriving on the reliable channel is a protocol
		// violation; drop silently rather than crash.
		s.metrics.messagesDropped.WithLabelValues("wrong_channel").Inc()
	}
}

func (s *Server) handleFastMessage(id FastEndpointID, msg ClientMessage) {
	switch m := msg.(type) {
	case *protocol.LoginRequest:
		// A Login datagram is the UDP reachability probe: the same
		// closed message, decoded off the unreliable channel instead of
		// the reliable one, correlates this source address with the
		// session the client already logged in on.
		s.metrics.messagesReceived.WithLabelValues("fast", "Login").Inc()
		s.handleUDPProbe(id, m.Name)
	case *protocol.MoveRequest:
		s.metrics.messagesReceived.WithLabelValues("fast", "Move").Inc()
		s.handleMove(id, m.Direction)
	case *protocol.SkillRequest:
		s.metrics.messagesReceived.WithLabelValues("fast", "Skill").Inc()
		s.handleSkill(id, m.SkillID)
	default:
		s.metrics.messagesDropped.WithLabelValues("wrong_channel").Inc()
	}
}

func (s *Server) handleVersion(id ReliableEndpointID, req *protocol.VersionRequest) {
	compat := protocol.CheckCompatibility(ProtocolVersion, req.Version)

	switch compat {
	case protocol.Fully:
		logrus.WithField("client_version", req.Version).Trace("server: fully compatible client")
	case protocol.OkOutdated:
		logrus.WithFields(logrus.Fields{
			"client_version": req.Version,
			"server_version": ProtocolVersion,
		}).Info("server: compatible but outdated client")
	case protocol.None:
		logrus.WithFields(logrus.Fields{
			"client_version": req.Version,
			"server_version": ProtocolVersion,
		}).Warn("server: incompatible client rejected")
	}

	s.sendReliable(id, &protocol.VersionResponse{Version: ProtocolVersion, Compatibility: compat})
	if compat == protocol.None {
		s.transport.CloseReliable(id)
	}
}

func (s *Server) handleRequestServerInfo(id ReliableEndpointID) {
	names := make([]string, 0, s.room.Count())
	for _, sess := range s.room.Sessions() {
		names = append(names, sess.Name())
	}

	s.sendReliable(id, &protocol.ServerInfo{
		UDPPort:       s.cfg.ServerUDPPort,
		PlayersNumber: s.cfg.PlayersNumber,
		MapSize:       s.cfg.MapSize,
		WinnerPoints:  s.cfg.WinnerPoints,
		LoggedPlayers: names,
	})
}

func (s *Server) handleLogin(id ReliableEndpointID, name string) {
	outcome, session := s.room.CreateSession(name, id)
	s.metrics.loginAttempts.WithLabelValues(outcome.String()).Inc()

	status := loginStatusMessage(outcome, session)
	s.sendReliable(id, status)

	switch outcome {
	case room.Created:
		s.metrics.sessionsActive.Set(float64(s.room.Count()))
		s.broadcastPlayerList(id)
		if s.game == nil && s.room.IsFull() {
			s.queue.Push(Event{Kind: EventCreateGame})
		}
	case room.Recycled:
		if s.game != nil {
			s.sendReliable(id, &protocol.StartGame{})
			elapsed := time.Since(s.arenaCreatedAt)
			if s.game.Current != nil {
				if waiting := s.cfg.ArenaWaiting - elapsed; waiting > 0 {
					s.sendReliable(id, &protocol.PrepareArena{Waiting: waiting})
				} else {
					s.sendReliable(id, &protocol.StartArena{Number: s.game.Current.Number})
				}
			}
		}
	}
}

func loginStatusMessage(outcome room.CreateOutcome, session *room.Session) *protocol.LoginStatusMessage {
	switch outcome {
	case room.Created:
		return &protocol.LoginStatusMessage{Status: protocol.Logged, Token: session.Token()}
	case room.Recycled:
		return &protocol.LoginStatusMessage{Status: protocol.Reconnected, Token: session.Token()}
	case room.AlreadyLogged:
		return &protocol.LoginStatusMessage{Status: protocol.AlreadyLogged}
	case room.Full:
		return &protocol.LoginStatusMessage{Status: protocol.PlayerLimit}
	default:
		return &protocol.LoginStatusMessage{Status: protocol.InvalidPlayerName}
	}
}

func (s *Server) broadcastPlayerList(exclude ReliableEndpointID) {
	names := make([]string, 0, s.room.Count())
	for _, sess := range s.room.Sessions() {
		names = append(names, sess.Name())
	}

	targets := make([]ReliableEndpointID, 0, len(s.room.SafeEndpoints()))
	for _, ep := range s.room.SafeEndpoints() {
		if ep != exclude {
			targets = append(targets, ep)
		}
	}
	s.broadcastReliable(targets, &protocol.PlayerListUpdated{Players: names})
}

func (s *Server) handleUDPProbe(fast FastEndpointID, name string) {
	session, ok := s.room.SessionByName(name)
	if !ok {
		s.metrics.messagesDropped.WithLabelValues("no_session").Inc()
		return
	}
	reliable, ok := session.Reliable()
	if !ok {
		s.metrics.messagesDropped.WithLabelValues("no_session").Inc()
		return
	}

	s.room.BindFastEndpoint(name, fast)
	s.sendReliable(reliable, &protocol.UDPReachableMessage{Reachable: true})
}

func (s *Server) handleMove(fast FastEndpointID, dir protocol.Direction) {
	session, ok := s.room.SessionByFast(fast)
	if !ok || s.game == nil {
		return
	}
	s.game.Controller(session.Name()).QueueMove(dir)
}

func (s *Server) handleSkill(fast FastEndpointID, skillID int) {
	session, ok := s.room.SessionByFast(fast)
	if !ok || s.game == nil {
		return
	}
	s.game.Controller(session.Name()).QueueSkill(skillID)
}

func (s *Server) handleDisconnection(id ReliableEndpointID) {
	s.rate.Forget(string(id))

	if s.game != nil {
		if session := s.room.NotifyLostEndpoint(id); session != nil {
			logrus.WithField("name", session.Name()).Info("server: player disconnected, kept as ghost")
		}
		return
	}

	session := s.room.RemoveSessionByEndpoint(id)
	if session != nil {
		s.metrics.sessionsActive.Set(float64(s.room.Count()))
		logrus.WithField("name", session.Name()).Info("server: player logged out")
		s.broadcastPlayerList("")
	}
}

func (s *Server) handleCreateGame() {
	logrus.Info("server: starting new game")
	s.game = arena.NewGame(s.cfg.WinnerPoints, s.cfg.MapSize, s.roster)
	s.metrics.gamesStarted.Inc()

	s.broadcastReliable(s.room.SafeEndpoints(), &protocol.StartGame{})
	s.queue.Push(Event{Kind: EventCreateArena})
}

func (s *Server) handleCreateArena() {
	names := make([]string, 0, s.room.Count())
	for _, sess := range s.room.Sessions() {
		names = append(names, sess.Name())
	}

	a := s.game.CreateNewArena(names)
	s.metrics.arenasStarted.Inc()
	logrus.WithFields(logrus.Fields{
		"arena":   a.Number,
		"waiting": s.cfg.ArenaWaiting,
	}).Info("server: preparing arena")

	s.broadcastReliable(s.room.SafeEndpoints(), &protocol.PrepareArena{Waiting: s.cfg.ArenaWaiting})
	s.queue.PushTimer(Event{Kind: EventStartArena}, s.cfg.ArenaWaiting)
	s.arenaCreatedAt = time.Now()
}

func (s *Server) handleStartArena() {
	if s.game == nil || s.game.Current == nil {
		return
	}
	logrus.WithField("arena", s.game.Current.Number).Info("server: starting arena")

	s.broadcastReliable(s.room.SafeEndpoints(), &protocol.StartArena{Number: s.game.Current.Number})
	s.queue.Push(Event{Kind: EventGameStep})
}

func (s *Server) handleGameStep() {
	if s.game == nil || s.game.Current == nil {
		return
	}

	start := time.Now()
	s.game.Step(start)
	s.metrics.observeTick(fmt.Sprintf("%d", s.game.Current.Number), time.Since(start))

	delta := s.game.Current.Delta()
	s.transport.BroadcastFast(s.room.FastEndpoints(), &protocol.Step{Delta: delta})
	if s.debug != nil {
		s.debug.BroadcastDelta(delta)
	}

	if s.game.Current.HasFinished() {
		s.broadcastReliable(s.room.SafeEndpoints(), &protocol.EndArena{})

		if s.game.HasFinished() {
			s.metrics.gamesFinished.Inc()
			s.broadcastReliable(s.room.SafeEndpoints(), &protocol.EndGame{})
			s.queue.Push(Event{Kind: EventReset})
		} else {
			s.queue.Push(Event{Kind: EventCreateArena})
		}
		return
	}

	s.queue.PushTimer(Event{Kind: EventGameStep}, TickDuration)
}

func (s *Server) handleReset() {
	logrus.Info("server: resetting room for next game")
	s.game = nil
	s.room.Clear()
	s.metrics.sessionsActive.Set(0)
}
