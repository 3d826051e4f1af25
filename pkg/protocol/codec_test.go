package protocol

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMessageRoundTrip(t *testing.T) {
	msgs := []ClientMessage{
		&VersionRequest{Version: "1.2.3"},
		&RequestServerInfo{},
		&LoginRequest{Name: "A"},
		&MoveRequest{Direction: East},
		&SkillRequest{SkillID: 7},
	}

	for _, m := range msgs {
		encoded, err := EncodeClient(m)
		require.NoError(t, err)

		decoded, err := DecodeClient(encoded)
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	msgs := []ServerMessage{
		&VersionResponse{Version: "1.2.3", Compatibility: OkOutdated},
		&ServerInfo{UDPPort: 9000, PlayersNumber: 4, MapSize: 20, WinnerPoints: 3, LoggedPlayers: []string{"A", "B"}},
		&PlayerListUpdated{Players: []string{"A"}},
		&LoginStatusMessage{Status: Logged, Token: 1},
		&UDPReachableMessage{Reachable: true},
		&StartGame{},
		&EndGame{},
		&PrepareArena{Waiting: 3 * time.Second},
		&StartArena{Number: 2},
		&EndArena{},
		&Step{Delta: ArenaDelta{Step: 42, Entities: []EntityDelta{{ID: 1, X: 3, Y: 4, Health: 5}}}},
	}

	for _, m := range msgs {
		encoded, err := EncodeServer(m)
		require.NoError(t, err)

		decoded, err := DecodeServer(encoded)
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	msg := &LoginRequest{Name: "Z"}

	require.NoError(t, WriteClientFrame(&buf, msg))

	decoded, err := ReadClientFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestReadFrame_RejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := make([]byte, 4)
	lenBuf[0] = 0xFF // absurdly large length
	buf.Write(lenBuf)

	_, err := ReadFrame(&buf)
	assert.Error(t, err)
}

func TestDecodeClient_UnknownTag(t *testing.T) {
	_, err := DecodeClient([]byte{0xFF})
	assert.Error(t, err)
}

func TestDecodeClient_EmptyPayload(t *testing.T) {
	_, err := DecodeClient(nil)
	assert.Error(t, err)
}
