package models

import "time"

// Message is one direct message in the append-only log. IDs are unix
// milliseconds at creation time, bumped when needed so they stay strictly
// increasing; append order, id order and chronological order are the same
// ordering.
//
// Read is persisted but never updated anywhere. It stays false until a read
// receipt feature exists.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Body       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}
