package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/saumyabaranwal/campus-connect/internal/models"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

// newTestHub runs a hub over a throwaway file store. Clients are driven by
// injecting events directly; no websockets are involved.
func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ds, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(ds.Close)

	h := NewHub(ds, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func connect(t *testing.T, h *Hub, userID int64) *Client {
	t.Helper()
	c := newClient("test-"+time.Now().Format("150405.000000000"), h, nil, zerolog.Nop())
	h.enqueue(hubEvent{kind: evRegister, client: c})
	h.enqueue(hubEvent{kind: evAnnounce, client: c, userID: userID})
	return c
}

// nextEvent waits for the next frame queued to this client.
func nextEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case b := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(b, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Envelope{}
	}
}

func decodeMessage(t *testing.T, env Envelope) models.Message {
	t.Helper()
	var m models.Message
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func TestHubDeliversToOnlineReceiver(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)
	receiver := connect(t, h, 2)

	h.enqueue(hubEvent{kind: evSend, client: sender, send: SendMessagePayload{
		SenderID: 1, ReceiverID: 2, Body: "hello there",
	}})

	push := nextEvent(t, receiver)
	require.Equal(t, EventReceiveMessage, push.Event)
	pushed := decodeMessage(t, push)
	require.Equal(t, "hello there", pushed.Body)
	require.Equal(t, int64(1), pushed.SenderID)
	require.False(t, pushed.Read)
	require.NotZero(t, pushed.ID)

	ack := nextEvent(t, sender)
	require.Equal(t, EventMessageSent, ack.Event)
	acked := decodeMessage(t, ack)
	require.Equal(t, pushed.ID, acked.ID)
}

func TestHubPersistsForOfflineReceiver(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)

	h.enqueue(hubEvent{kind: evSend, client: sender, send: SendMessagePayload{
		SenderID: 1, ReceiverID: 7, Body: "see you later",
	}})

	// Sender still gets the ack even though nobody is there to push to.
	ack := nextEvent(t, sender)
	require.Equal(t, EventMessageSent, ack.Event)
	acked := decodeMessage(t, ack)

	conv, err := h.store.ConversationBetween(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Equal(t, acked.ID, conv[0].ID)
	require.Equal(t, "see you later", conv[0].Body)
}

func TestHubDisconnectPurgesPresence(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)
	receiver := connect(t, h, 2)

	h.enqueue(hubEvent{kind: evUnregister, client: receiver})

	// done closes once the hub has processed the unregister.
	select {
	case <-receiver.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unregister")
	}

	h.enqueue(hubEvent{kind: evSend, client: sender, send: SendMessagePayload{
		SenderID: 1, ReceiverID: 2, Body: "anyone home?",
	}})

	ack := nextEvent(t, sender)
	require.Equal(t, EventMessageSent, ack.Event)
	require.Empty(t, receiver.send, "closed connection must not receive deliveries")
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)
	stale := connect(t, h, 2)
	fresh := connect(t, h, 2)

	h.enqueue(hubEvent{kind: evSend, client: sender, send: SendMessagePayload{
		SenderID: 1, ReceiverID: 2, Body: "to the new tab",
	}})

	push := nextEvent(t, fresh)
	require.Equal(t, EventReceiveMessage, push.Event)
	require.Empty(t, stale.send, "superseded connection must not receive deliveries")
}

func TestHubMessagesKeepOrderPerSender(t *testing.T) {
	h := newTestHub(t)
	sender := connect(t, h, 1)
	receiver := connect(t, h, 2)

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		h.enqueue(hubEvent{kind: evSend, client: sender, send: SendMessagePayload{
			SenderID: 1, ReceiverID: 2, Body: b,
		}})
	}

	var lastID int64
	for _, want := range bodies {
		env := nextEvent(t, receiver)
		require.Equal(t, EventReceiveMessage, env.Event)
		m := decodeMessage(t, env)
		require.Equal(t, want, m.Body)
		require.Greater(t, m.ID, lastID)
		lastID = m.ID
	}
}
