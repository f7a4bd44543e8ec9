package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
)

func TestDecodeUserOnline(t *testing.T) {
	id, err := decodeUserOnline(json.RawMessage(`42`))
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	_, err = decodeUserOnline(json.RawMessage(`"not a number"`))
	require.Error(t, err)
	require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = decodeUserOnline(json.RawMessage(`0`))
	require.Error(t, err)

	_, err = decodeUserOnline(json.RawMessage(`-3`))
	require.Error(t, err)
}

func TestDecodeSendMessage(t *testing.T) {
	p, err := decodeSendMessage(json.RawMessage(`{"senderId":1,"receiverId":2,"message":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), p.SenderID)
	require.Equal(t, int64(2), p.ReceiverID)
	require.Equal(t, "hi", p.Body)

	cases := []string{
		`{"receiverId":2,"message":"hi"}`,     // missing sender
		`{"senderId":1,"message":"hi"}`,       // missing receiver
		`{"senderId":1,"receiverId":2}`,       // missing body
		`{"senderId":-1,"receiverId":2,"message":"hi"}`,
		`not json`,
	}
	for _, c := range cases {
		_, err := decodeSendMessage(json.RawMessage(c))
		require.Error(t, err, "payload %s should be rejected", c)
		require.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	}
}

func TestMarshalEventEnvelope(t *testing.T) {
	b, err := marshalEvent(EventMessageError, ErrorPayload{Error: "Failed to send message"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	require.Equal(t, EventMessageError, env.Event)

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "Failed to send message", p.Error)
}
