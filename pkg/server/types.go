package server

import (
	"time"

	"asciiarena/pkg/protocol"
	"asciiarena/pkg/room"
)

// These aliases keep the event-loop and transport code terse; the real
// types live in pkg/room and pkg/protocol.
type (
	ReliableEndpointID = room.ReliableEndpointID
	FastEndpointID     = room.FastEndpointID
	ClientMessage      = protocol.ClientMessage
	ServerMessage      = protocol.ServerMessage
)

// ProtocolVersion is the server's own wire protocol version, compared
// against a client's VersionRequest via protocol.CheckCompatibility.
const ProtocolVersion = "1.0.0"

// TickRate is the fixed simulation rate the arena steps at.
const TickRate = 30

// TickDuration is the wall-clock duration of one simulation tick.
const TickDuration = time.Second / TickRate
