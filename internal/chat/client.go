package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/saumyabaranwal/campus-connect/internal/apperr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendQueueSize  = 64
)

// connState is the per-connection lifecycle. Transitions happen only on the
// hub's dispatch goroutine.
type connState int

const (
	// stateConnected: handshake complete, no presence announced yet.
	stateConnected connState = iota
	// stateIdentified: presence announced for a specific user id.
	stateIdentified
	// stateClosed: terminal; presence purged, send queue released.
	stateClosed
)

// Client is one websocket connection. The id is the connection handle the
// presence registry maps users to; it plays the role Socket.IO's socket.id
// played.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	log  zerolog.Logger

	// Hub goroutine only.
	state  connState
	userID int64
}

func newClient(id string, hub *Hub, conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
		log:  log.With().Str("conn_id", id).Logger(),
	}
}

// readPump reads envelopes off the wire and feeds the hub. It runs on its
// own goroutine per connection; exit (error or close) unregisters the
// connection, which purges presence.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueue(hubEvent{kind: evUnregister, client: c})
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.queue(EventMessageError, ErrorPayload{Error: "malformed event"})
			continue
		}

		switch env.Event {
		case EventUserOnline:
			userID, err := decodeUserOnline(env.Data)
			if err != nil {
				c.log.Warn().Err(err).Msg("ignoring invalid user_online")
				continue
			}
			c.hub.enqueue(hubEvent{kind: evAnnounce, client: c, userID: userID})

		case EventSendMessage:
			p, err := decodeSendMessage(env.Data)
			if err != nil {
				// Validation never reaches the store; the channel stays open.
				c.queue(EventMessageError, ErrorPayload{Error: apperr.MessageOf(err)})
				continue
			}
			c.hub.enqueue(hubEvent{kind: evSend, client: c, send: p})

		default:
			c.log.Debug().Str("event", env.Event).Msg("unknown event")
		}
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case b := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// queue marshals an event onto the connection's send queue. Safe from any
// goroutine; a full queue drops the frame rather than blocking the hub.
// The stored message survives either way.
func (c *Client) queue(event string, data any) {
	b, err := marshalEvent(event, data)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("marshal event failed")
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- b:
	default:
		c.log.Warn().Str("event", event).Msg("send queue full, dropping frame")
	}
}
