// Package protocol defines the wire messages exchanged between an arena
// client and server, the framing used to carry them over a reliable stream
// transport, and the version-compatibility rule that gates a connection
// before any other message is accepted.
//
// Every message is one of a small closed set of tagged variants. A message
// is framed as a 4-byte big-endian length prefix followed by a 1-byte tag
// and a JSON body:
//
//	[ length(4) | tag(1) | body(length-1 bytes of JSON) ]
//
// The length prefix covers the tag byte plus the body. Reliable-channel
// frames are written with the length prefix so message boundaries survive
// TCP's byte-stream semantics; unreliable-channel datagrams are encoded as
// a bare tag+body pair since a UDP datagram is already a complete message.
package protocol
