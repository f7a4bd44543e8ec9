package store

import (
	"sync"
	"time"
)

// messageIDGen issues message ids: the unix-millisecond creation timestamp,
// bumped by one whenever the clock has not advanced past the last issued or
// stored id. Seeded from the highest persisted id at open so ids stay
// strictly increasing across restarts.
type messageIDGen struct {
	mu   sync.Mutex
	last int64
}

func (g *messageIDGen) seed(last int64) {
	g.mu.Lock()
	if last > g.last {
		g.last = last
	}
	g.mu.Unlock()
}

func (g *messageIDGen) next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
