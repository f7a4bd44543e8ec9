package models

import "time"

// ConversationSummary is the derived per-counterpart view returned by
// GET /api/conversations/{userId}. It is recomputed on every request and
// never persisted.
//
// UserName and UserAvatar are empty when the counterpart no longer exists in
// the user directory; the conversation entry itself still appears.
type ConversationSummary struct {
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName,omitempty"`
	UserAvatar  string    `json:"userAvatar,omitempty"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}
