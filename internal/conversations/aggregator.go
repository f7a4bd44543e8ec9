// Package conversations derives the per-user conversation list from the
// message log and the user directory. Nothing here is persisted or cached;
// every call recomputes from the store.
package conversations

import (
	"context"

	"github.com/saumyabaranwal/campus-connect/internal/models"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

type Aggregator struct {
	store store.DataStore
}

func New(ds store.DataStore) *Aggregator {
	return &Aggregator{store: ds}
}

// ConversationsFor returns one summary per distinct counterpart the user has
// exchanged messages with.
//
// Ordering is first-encounter order while scanning the log, NOT recency:
// the counterpart whose first message with this user is oldest comes first,
// whatever happened since. The chat page has always ordered the sidebar
// this way; keep it until product says otherwise.
//
// Counterparts missing from the user directory (deleted accounts) degrade
// to empty name/avatar instead of failing the request.
func (a *Aggregator) ConversationsFor(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	msgs, err := a.store.MessagesInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	// One pass: counterpart discovery order plus each counterpart's last
	// message. Last in append order, no timestamp comparison.
	order := make([]int64, 0)
	last := make(map[int64]models.Message)
	for _, m := range msgs {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		if _, seen := last[other]; !seen {
			order = append(order, other)
		}
		last[other] = m
	}

	summaries := make([]models.ConversationSummary, 0, len(order))
	for _, other := range order {
		s := models.ConversationSummary{
			UserID:      other,
			LastMessage: last[other].Body,
			Timestamp:   last[other].Timestamp,
		}
		u, err := a.store.GetUserByID(ctx, other)
		if err != nil {
			return nil, err
		}
		if u != nil {
			s.UserName = u.Name
			s.UserAvatar = u.Avatar
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
