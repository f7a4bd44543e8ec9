package chat

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
)

// Realtime channel event names, both directions.
const (
	EventUserOnline     = "user_online"     // client → server, data = user id
	EventSendMessage    = "send_message"    // client → server
	EventMessageSent    = "message_sent"    // server → client, ack to sender
	EventReceiveMessage = "receive_message" // server → client, push to receiver
	EventMessageError   = "message_error"   // server → client
)

// Envelope is the tagged frame carried on the wire in both directions:
// {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the client's send_message body, validated at the
// boundary before it reaches the hub.
type SendMessagePayload struct {
	SenderID   int64  `json:"senderId" validate:"required,gt=0"`
	ReceiverID int64  `json:"receiverId" validate:"required,gt=0"`
	Body       string `json:"message" validate:"required,max=4096"`
}

// ErrorPayload is the message_error body.
type ErrorPayload struct {
	Error string `json:"error"`
}

var validate = validator.New()

func decodeUserOnline(raw json.RawMessage) (int64, error) {
	var userID int64
	if err := json.Unmarshal(raw, &userID); err != nil {
		return 0, apperr.InvalidArg("user_online payload must be a user id")
	}
	if userID <= 0 {
		return 0, apperr.InvalidArg("user_online payload must be a positive user id")
	}
	return userID, nil
}

func decodeSendMessage(raw json.RawMessage) (SendMessagePayload, error) {
	var p SendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, apperr.InvalidArg("malformed send_message payload")
	}
	if err := validate.Struct(p); err != nil {
		return p, apperr.InvalidArg("send_message requires senderId, receiverId and message")
	}
	return p, nil
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
