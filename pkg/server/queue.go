package server

import (
	"sync"
	"time"
)

// EventKind discriminates the Event union processed by the server's main
// loop.
type EventKind int

const (
	// EventNetworkMessage carries a decoded ClientMessage from either
	// channel.
	EventNetworkMessage EventKind = iota
	// EventNetworkRemoved reports a reliable connection dropping.
	EventNetworkRemoved
	// EventCreateGame starts a new Game once the room fills.
	EventCreateGame
	// EventCreateArena starts the next arena within the current game.
	EventCreateArena
	// EventStartArena fires once an arena's countdown elapses.
	EventStartArena
	// EventGameStep advances the current arena by one tick.
	EventGameStep
	// EventReset clears the room and game after a game finishes.
	EventReset
	// EventClose requests an orderly shutdown.
	EventClose
)

// Channel identifies which transport an Event's endpoint refers to.
type Channel int

const (
	// ChannelReliable is the ordered TCP control channel.
	ChannelReliable Channel = iota
	// ChannelFast is the best-effort UDP delta channel.
	ChannelFast
)

// EndpointRef names the transport identity an Event is associated with.
// Only the field matching Channel is meaningful.
type EndpointRef struct {
	Channel  Channel
	Reliable ReliableEndpointID
	Fast     FastEndpointID
}

// Event is the closed set of things the server's main loop reacts to. It
// mirrors the original implementation's event enum: network activity plus
// a handful of self-posted lifecycle events that drive the game state
// machine forward.
type Event struct {
	Kind EventKind

	Endpoint EndpointRef
	Message  ClientMessage
}

// EventQueue is a FIFO event channel with one privileged slot: a pending
// Close event always jumps ahead of everything else, so a shutdown signal
// is never stuck behind a backlog of network traffic.
type EventQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	closePending bool
	items        []Event
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends ev to the back of the queue in normal priority.
func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, ev)
	q.cond.Signal()
}

// PushPriority marks a Close event pending, ahead of any queued item.
// Only Close uses this slot; it is the one event the loop must never
// starve behind a busy queue.
func (q *EventQueue) PushPriority(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closePending = true
	q.cond.Signal()
	_ = ev // Close carries no payload; the flag alone is sufficient.
}

// PushTimer schedules ev to be pushed normally after d elapses. It mirrors
// the original's send_with_timer: a timed event reschedules without any
// ordering guarantee relative to events already queued.
func (q *EventQueue) PushTimer(ev Event, d time.Duration) {
	time.AfterFunc(d, func() {
		q.Push(ev)
	})
}

// Receive blocks until an event is available and returns it, preferring a
// pending Close over anything else in the queue. This is the loop's only
// suspension point: no blocking I/O happens anywhere else in event
// handling.
func (q *EventQueue) Receive() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closePending && len(q.items) == 0 {
		q.cond.Wait()
	}

	if q.closePending {
		q.closePending = false
		return Event{Kind: EventClose}
	}

	ev := q.items[0]
	q.items = q.items[1:]
	return ev
}
