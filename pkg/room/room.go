// Package room implements the bounded named-slot registry a game is played
// inside of: create/recycle/forget sessions over transport identities, and
// fast lookup by player name or transport endpoint.
package room

import (
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// ReliableEndpointID identifies a client's reliable (stream) transport
// connection. It is opaque to this package; the server assigns it.
type ReliableEndpointID string

// FastEndpointID identifies a client's unreliable (datagram) transport
// address. It is opaque to this package; the server assigns it.
type FastEndpointID string

var validName = regexp.MustCompile(`^[A-Z]$`)

// IsValidPlayerName reports whether name is a legal player identity: exactly
// one ASCII uppercase letter.
func IsValidPlayerName(name string) bool {
	return validName.MatchString(name)
}

// Session is a logical player identity. It persists across transport loss
// during a game so a reconnecting client resumes without replaying login.
type Session struct {
	mu sync.RWMutex

	name     string
	token    int
	reliable *ReliableEndpointID
	fast     *FastEndpointID
}

// Name returns the session's player name.
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Token returns the session's stable reconnect token.
func (s *Session) Token() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Reliable returns the bound reliable endpoint, if any.
func (s *Session) Reliable() (ReliableEndpointID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reliable == nil {
		return "", false
	}
	return *s.reliable, true
}

// Fast returns the bound unreliable endpoint, if any.
func (s *Session) Fast() (FastEndpointID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fast == nil {
		return "", false
	}
	return *s.fast, true
}

// CreateOutcome is the result of attempting to create a session in a Room.
type CreateOutcome int

const (
	// Created means a brand new session with a fresh token was made.
	Created CreateOutcome = iota
	// Recycled means an existing, endpoint-unbound session was re-attached.
	Recycled
	// AlreadyLogged means the name is in use and currently bound.
	AlreadyLogged
	// Full means the room has no free slots and the name is unseen.
	Full
	// InvalidName means the name failed IsValidPlayerName.
	InvalidName
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "Created"
	case Recycled:
		return "Recycled"
	case AlreadyLogged:
		return "AlreadyLogged"
	case Full:
		return "Full"
	case InvalidName:
		return "InvalidName"
	default:
		return "Unknown"
	}
}

// Room is a bounded set of named player slots.
type Room struct {
	mu sync.RWMutex

	capacity   int
	nextToken  int
	byName     map[string]*Session
	byReliable map[ReliableEndpointID]*Session
	byFast     map[FastEndpointID]*Session
}

// NewRoom creates an empty Room with the given capacity.
func NewRoom(capacity int) *Room {
	return &Room{
		capacity:   capacity,
		byName:     make(map[string]*Session),
		byReliable: make(map[ReliableEndpointID]*Session),
		byFast:     make(map[FastEndpointID]*Session),
	}
}

// CreateSession attempts to reserve name for ep, per the contract table in
// §4.B: a fresh name in a non-full room is Created; an existing name whose
// reliable endpoint is unbound is Recycled (keeping its token); an existing
// bound name is AlreadyLogged; an unseen name in a full room is Full.
func (r *Room) CreateSession(name string, ep ReliableEndpointID) (CreateOutcome, *Session) {
	if !IsValidPlayerName(name) {
		return InvalidName, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		existing.mu.Lock()
		if existing.reliable != nil {
			existing.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"name": name,
			}).Debug("room: login rejected, name already bound")
			return AlreadyLogged, nil
		}
		existing.reliable = &ep
		existing.mu.Unlock()
		r.byReliable[ep] = existing

		logrus.WithFields(logrus.Fields{
			"name":  name,
			"token": existing.Token(),
		}).Info("room: session recycled")
		return Recycled, existing
	}

	if len(r.byName) >= r.capacity {
		return Full, nil
	}

	session := &Session{
		name:     name,
		token:    r.nextToken,
		reliable: &ep,
	}
	r.nextToken++
	r.byName[name] = session
	r.byReliable[ep] = session

	logrus.WithFields(logrus.Fields{
		"name":  name,
		"token": session.token,
	}).Info("room: session created")
	return Created, session
}

// BindFastEndpoint attaches a confirmed unreliable endpoint to the named
// session, replacing any prior binding.
func (r *Room) BindFastEndpoint(name string, ep FastEndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byName[name]
	if !ok {
		return
	}
	session.mu.Lock()
	if session.fast != nil {
		delete(r.byFast, *session.fast)
	}
	session.fast = &ep
	session.mu.Unlock()
	r.byFast[ep] = session
}

// NotifyLostEndpoint detaches a reliable endpoint from its session while
// keeping the session itself as a reconnectable ghost. Callers must only
// invoke this while a game is in progress; see RemoveSessionByEndpoint for
// the pre-game behavior.
func (r *Room) NotifyLostEndpoint(ep ReliableEndpointID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byReliable[ep]
	if !ok {
		return nil
	}
	delete(r.byReliable, ep)

	session.mu.Lock()
	session.reliable = nil
	if session.fast != nil {
		delete(r.byFast, *session.fast)
		session.fast = nil
	}
	session.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"name": session.Name(),
	}).Info("room: endpoint lost, session kept as ghost")
	return session
}

// RemoveSessionByEndpoint deletes the session bound to ep outright. Callers
// must only invoke this while no game is in progress.
func (r *Room) RemoveSessionByEndpoint(ep ReliableEndpointID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byReliable[ep]
	if !ok {
		return nil
	}
	r.removeLocked(session)

	logrus.WithFields(logrus.Fields{
		"name": session.Name(),
	}).Info("room: session removed")
	return session
}

func (r *Room) removeLocked(session *Session) {
	delete(r.byReliable, session.mustReliable())
	delete(r.byName, session.Name())
	if fast, ok := session.Fast(); ok {
		delete(r.byFast, fast)
	}
}

func (s *Session) mustReliable() ReliableEndpointID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reliable == nil {
		return ""
	}
	return *s.reliable
}

// Sessions returns all sessions in name order.
func (r *Room) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]*Session, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name])
	}
	return out
}

// SafeEndpoints returns the currently bound reliable endpoints, for
// broadcasting control-channel messages.
func (r *Room) SafeEndpoints() []ReliableEndpointID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ReliableEndpointID, 0, len(r.byReliable))
	for ep := range r.byReliable {
		out = append(out, ep)
	}
	slices.Sort(out)
	return out
}

// FastEndpoints returns the currently bound unreliable endpoints, for
// broadcasting per-tick deltas.
func (r *Room) FastEndpoints() []FastEndpointID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FastEndpointID, 0, len(r.byFast))
	for ep := range r.byFast {
		out = append(out, ep)
	}
	slices.Sort(out)
	return out
}

// IsFull reports whether the room has reached capacity.
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName) >= r.capacity
}

// Count returns the current number of sessions.
func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Capacity returns the room's configured capacity.
func (r *Room) Capacity() int {
	return r.capacity
}

// SessionByName looks up a session by player name.
func (r *Room) SessionByName(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// SessionByReliable looks up a session by its bound reliable endpoint.
func (r *Room) SessionByReliable(ep ReliableEndpointID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byReliable[ep]
	return s, ok
}

// SessionByFast looks up a session by its bound unreliable endpoint.
func (r *Room) SessionByFast(ep FastEndpointID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byFast[ep]
	return s, ok
}

// Clear drops all sessions, returning the room to its initial empty state.
// The token counter is reset since no session from before the clear can
// ever be recycled again.
func (r *Room) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName = make(map[string]*Session)
	r.byReliable = make(map[ReliableEndpointID]*Session)
	r.byFast = make(map[FastEndpointID]*Session)
	r.nextToken = 0

	logrus.Info("room: cleared")
}
