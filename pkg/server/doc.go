// Package server implements the authoritative arena server: a
// single-threaded event loop that accepts reliable (TCP) and unreliable
// (UDP) connections, runs the login/room/game state machine, and steps
// the arena simulation at a fixed tick rate.
//
// All mutable game state (the room registry, the active game, the
// current arena) is owned exclusively by the goroutine running
// (*Server).Run. Every other goroutine — TCP accept loop, per-connection
// readers, the UDP reader, the signal handler — only ever converts an
// external event into an Event and pushes it onto the EventQueue; it never touches game
// state directly. This is what lets the simulation run without locks.
package server
