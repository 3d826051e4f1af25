package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// clientTag is the self-describing tag byte for a ClientMessage variant.
type clientTag byte

const (
	tagCVersion clientTag = iota
	tagCRequestServerInfo
	tagCLogin
	tagCMove
	tagCSkill
)

// serverTag is the self-describing tag byte for a ServerMessage variant.
type serverTag byte

const (
	tagSVersion serverTag = iota
	tagSServerInfo
	tagSPlayerListUpdated
	tagSLoginStatus
	tagSUDPReachable
	tagSStartGame
	tagSEndGame
	tagSPrepareArena
	tagSStartArena
	tagSEndArena
	tagSStep
)

// maxFrameBody bounds a single decoded frame to guard against a malformed
// length prefix exhausting memory.
const maxFrameBody = 1 << 20

// EncodeClient serializes a ClientMessage into a bare tag+body payload
// (no length prefix); used for datagrams, where the transport itself
// delimits message boundaries.
func EncodeClient(msg ClientMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode client message: %w", err)
	}
	out := make([]byte, 1+len(body))
	out[0] = byte(msg.clientTag())
	copy(out[1:], body)
	return out, nil
}

// DecodeClient parses a bare tag+body payload into a ClientMessage.
func DecodeClient(data []byte) (ClientMessage, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("protocol: empty client payload")
	}
	tag, body := clientTag(data[0]), data[1:]

	var msg ClientMessage
	switch tag {
	case tagCVersion:
		msg = &VersionRequest{}
	case tagCRequestServerInfo:
		msg = &RequestServerInfo{}
	case tagCLogin:
		msg = &LoginRequest{}
	case tagCMove:
		msg = &MoveRequest{}
	case tagCSkill:
		msg = &SkillRequest{}
	default:
		return nil, fmt.Errorf("protocol: unknown client tag %d", tag)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, msg); err != nil {
			return nil, fmt.Errorf("protocol: decode client message: %w", err)
		}
	}
	return msg, nil
}

// EncodeServer serializes a ServerMessage into a bare tag+body payload.
func EncodeServer(msg ServerMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode server message: %w", err)
	}
	out := make([]byte, 1+len(body))
	out[0] = byte(msg.serverTag())
	copy(out[1:], body)
	return out, nil
}

// DecodeServer parses a bare tag+body payload into a ServerMessage.
func DecodeServer(data []byte) (ServerMessage, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("protocol: empty server payload")
	}
	tag, body := serverTag(data[0]), data[1:]

	var msg ServerMessage
	switch tag {
	case tagSVersion:
		msg = &VersionResponse{}
	case tagSServerInfo:
		msg = &ServerInfo{}
	case tagSPlayerListUpdated:
		msg = &PlayerListUpdated{}
	case tagSLoginStatus:
		msg = &LoginStatusMessage{}
	case tagSUDPReachable:
		msg = &UDPReachableMessage{}
	case tagSStartGame:
		msg = &StartGame{}
	case tagSEndGame:
		msg = &EndGame{}
	case tagSPrepareArena:
		msg = &PrepareArena{}
	case tagSStartArena:
		msg = &StartArena{}
	case tagSEndArena:
		msg = &EndArena{}
	case tagSStep:
		msg = &Step{}
	default:
		return nil, fmt.Errorf("protocol: unknown server tag %d", tag)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, msg); err != nil {
			return nil, fmt.Errorf("protocol: decode server message: %w", err)
		}
	}
	return msg, nil
}

// WriteFrame writes a length-prefixed frame (length covers tag+body) to the
// reliable stream transport. It is the counterpart to ReadFrame.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("protocol: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("protocol: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from the reliable stream
// transport and returns its raw tag+body payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameBody {
		return nil, fmt.Errorf("protocol: frame too large (%d bytes)", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("protocol: read frame body: %w", err)
	}
	return payload, nil
}

// WriteClientFrame frames and writes a ClientMessage onto a reliable stream.
func WriteClientFrame(w io.Writer, msg ClientMessage) error {
	payload, err := EncodeClient(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// WriteServerFrame frames and writes a ServerMessage onto a reliable stream.
func WriteServerFrame(w io.Writer, msg ServerMessage) error {
	payload, err := EncodeServer(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// ReadClientFrame reads and decodes one ClientMessage frame from a reliable
// stream.
func ReadClientFrame(r io.Reader) (ClientMessage, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return DecodeClient(payload)
}

// ReadServerFrame reads and decodes one ServerMessage frame from a reliable
// stream.
func ReadServerFrame(r io.Reader) (ServerMessage, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return DecodeServer(payload)
}
