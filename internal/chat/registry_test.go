package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(id string) *Client {
	return &Client{id: id, send: make(chan []byte, sendQueueSize), done: make(chan struct{})}
}

func TestRegistryAnnounceAndLookup(t *testing.T) {
	r := NewRegistry()
	a := testClient("a")

	_, ok := r.Lookup(1)
	require.False(t, ok)

	r.Announce(1, a)
	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, a, got)
	require.Equal(t, 1, r.Len())
}

func TestRegistryLastAnnouncementWins(t *testing.T) {
	r := NewRegistry()
	old := testClient("old")
	fresh := testClient("fresh")

	r.Announce(1, old)
	r.Announce(1, fresh)

	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, fresh, got)
	require.Equal(t, 1, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	a := testClient("a")
	b := testClient("b")
	r.Announce(1, a)
	r.Announce(2, b)

	r.Remove(a)
	_, ok := r.Lookup(1)
	require.False(t, ok)
	_, ok = r.Lookup(2)
	require.True(t, ok)
	require.Equal(t, 1, r.Len())
}

func TestRegistryRemoveSupersededConnectionKeepsCurrent(t *testing.T) {
	r := NewRegistry()
	old := testClient("old")
	fresh := testClient("fresh")
	r.Announce(1, old)
	r.Announce(1, fresh)

	// The stale connection closing must not knock the new one offline.
	r.Remove(old)
	got, ok := r.Lookup(1)
	require.True(t, ok)
	require.Same(t, fresh, got)
}

func TestRegistryOneConnectionForManyUsers(t *testing.T) {
	r := NewRegistry()
	c := testClient("c")
	r.Announce(1, c)
	r.Announce(2, c)

	// Remove drops a single entry per call; the handle scan stops at the
	// first match.
	r.Remove(c)
	require.Equal(t, 1, r.Len())
	r.Remove(c)
	require.Equal(t, 0, r.Len())
}
