package chat

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/saumyabaranwal/campus-connect/internal/metrics"
	"github.com/saumyabaranwal/campus-connect/internal/models"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

type eventKind int

const (
	evRegister eventKind = iota
	evAnnounce
	evSend
	evUnregister
)

// hubEvent is the message-passing envelope between connection goroutines
// and the dispatch loop. One channel carries every kind so events keep
// their arrival order.
type hubEvent struct {
	kind   eventKind
	client *Client
	userID int64
	send   SendMessagePayload
}

// Hub owns the presence registry and serializes every state change and
// store append on a single dispatch goroutine. That single thread of
// execution is the concurrency model: registry mutations need no locks, and
// the message store has exactly one writer.
type Hub struct {
	store    store.DataStore
	registry *Registry
	log      zerolog.Logger

	events chan hubEvent
	quit   chan struct{}
}

func NewHub(ds store.DataStore, log zerolog.Logger) *Hub {
	return &Hub{
		store:    ds,
		registry: NewRegistry(),
		log:      log.With().Str("component", "chat-hub").Logger(),
		events:   make(chan hubEvent, 256),
		quit:     make(chan struct{}),
	}
}

// Run dispatches events until ctx is cancelled. Call exactly once, on its
// own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.quit)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			switch ev.kind {
			case evRegister:
				h.handleRegister(ev.client)
			case evAnnounce:
				h.handleAnnounce(ev.client, ev.userID)
			case evSend:
				h.handleSend(ctx, ev.client, ev.send)
			case evUnregister:
				h.handleUnregister(ev.client)
			}
		}
	}
}

// enqueue hands an event to the dispatch loop, giving up if the hub has
// already stopped.
func (h *Hub) enqueue(ev hubEvent) {
	select {
	case h.events <- ev:
	case <-h.quit:
	}
}

func (h *Hub) handleRegister(c *Client) {
	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	h.log.Debug().Str("conn_id", c.id).Msg("connection open")
}

func (h *Hub) handleAnnounce(c *Client, userID int64) {
	if c.state == stateClosed {
		return
	}
	c.state = stateIdentified
	c.userID = userID
	h.registry.Announce(userID, c)
	metrics.OnlineUsers.Set(float64(h.registry.Len()))
	h.log.Info().Int64("user_id", userID).Str("conn_id", c.id).Msg("user online")
}

func (h *Hub) handleSend(ctx context.Context, c *Client, p SendMessagePayload) {
	if c.state == stateClosed {
		return
	}

	msg := &models.Message{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Body:       p.Body,
	}
	stored, err := h.store.AppendMessage(ctx, msg)
	if err != nil {
		// The message is considered not sent: no delivery, no ack.
		h.log.Error().Err(err).Int64("sender", p.SenderID).Int64("receiver", p.ReceiverID).
			Msg("message append failed")
		metrics.MessageErrors.Inc()
		c.queue(EventMessageError, ErrorPayload{Error: "Failed to send message"})
		return
	}
	metrics.MessagesStored.Inc()

	// Push to the receiver's current connection if they are online,
	// then always ack the sender. That order matches the legacy server.
	if rc, ok := h.registry.Lookup(p.ReceiverID); ok {
		rc.queue(EventReceiveMessage, stored)
		metrics.MessageDeliveries.WithLabelValues("delivered").Inc()
	} else {
		metrics.MessageDeliveries.WithLabelValues("offline").Inc()
	}
	c.queue(EventMessageSent, stored)

	h.log.Info().Int64("sender", p.SenderID).Int64("receiver", p.ReceiverID).
		Int64("message_id", stored.ID).Msg("message sent")
}

func (h *Hub) handleUnregister(c *Client) {
	if c.state == stateClosed {
		return
	}
	c.state = stateClosed
	h.registry.Remove(c)
	close(c.done)
	metrics.ConnectionsActive.Dec()
	metrics.OnlineUsers.Set(float64(h.registry.Len()))
	h.log.Debug().Str("conn_id", c.id).Int64("user_id", c.userID).Msg("connection closed")
}

// Clients may connect from any page origin, as the legacy CORS setup allowed.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request into a realtime channel connection and
// starts its pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), h, conn, h.log)
	h.enqueue(hubEvent{kind: evRegister, client: c})

	go c.writePump()
	go c.readPump()
}
