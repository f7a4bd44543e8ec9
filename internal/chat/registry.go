package chat

// Registry is the presence map: user id to that user's live connection.
// It is owned by the Hub and only ever touched on the Hub's dispatch
// goroutine, so it needs no locking. It is process-lifetime state; a
// restart forgets all presence.
type Registry struct {
	online map[int64]*Client
}

func NewRegistry() *Registry {
	return &Registry{online: make(map[int64]*Client)}
}

// Announce records c as userID's live connection. A second announcement for
// the same user overwrites the first: last write wins, the superseded
// connection stays open but receives no further deliveries.
func (r *Registry) Announce(userID int64, c *Client) {
	r.online[userID] = c
}

// Lookup returns the user's current connection, if any.
func (r *Registry) Lookup(userID int64) (*Client, bool) {
	c, ok := r.online[userID]
	return c, ok
}

// Remove drops whichever entry points at this connection. A linear scan: a
// connection does not know which user (if any) it was announced for after a
// later announcement replaced it elsewhere. At most one entry matches since
// a handle is unique per connection.
func (r *Registry) Remove(c *Client) {
	for userID, cur := range r.online {
		if cur == c {
			delete(r.online, userID)
			return
		}
	}
}

// Len reports how many users are currently online.
func (r *Registry) Len() int {
	return len(r.online)
}
