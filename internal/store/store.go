package store

import (
	"context"
	"strings"

	"github.com/saumyabaranwal/campus-connect/internal/models"
)

// ListingFilter narrows ListListings results. Zero values match everything;
// Category "All" is treated as no filter, matching the legacy API.
type ListingFilter struct {
	Category string
	Search   string
}

// DataStore is the persistence contract shared by every backend. All
// backends return (nil, nil) for lookups that find nothing; callers decide
// whether absence is an error.
//
// Message guarantees, identical in every backend:
//   - AppendMessage assigns a strictly increasing integer id derived from
//     the creation timestamp, stamps the current UTC time, forces
//     Read=false, and persists durably before returning. A failed write
//     surfaces as a STORAGE error, never silently.
//   - ConversationBetween and MessagesInvolving return messages in append
//     order, which is also id order and chronological order.
type DataStore interface {
	Close()
	Ping(ctx context.Context) error

	// User directory
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Listings
	CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error)
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, error)
	ListingsBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error)

	// Message log
	AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	ConversationBetween(ctx context.Context, userA, userB int64) ([]models.Message, error)
	MessagesInvolving(ctx context.Context, userID int64) ([]models.Message, error)
}

// matchListing applies the filter the way the marketplace page expects:
// exact category match unless "All", case-insensitive substring search over
// title and description. Used by the backends without a query engine.
func matchListing(l *models.Listing, f ListingFilter) bool {
	if f.Category != "" && f.Category != "All" && l.Category != f.Category {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Title), q) &&
			!strings.Contains(strings.ToLower(l.Description), q) {
			return false
		}
	}
	return true
}

// involvesPair reports whether m belongs to the conversation between a and b,
// in either direction.
func involvesPair(m *models.Message, a, b int64) bool {
	return (m.SenderID == a && m.ReceiverID == b) ||
		(m.SenderID == b && m.ReceiverID == a)
}
