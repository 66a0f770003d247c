package models

import "github.com/defibrain/advisory-engine/internal/types"

// ChatMessage represents one turn in the assistant conversation. IDs are
// strictly increasing and collision-free, derived from a monotonic clock.
type ChatMessage struct {
	ID     int64          `json:"id"`
	Role   types.ChatRole `json:"role"`
	Text   string         `json:"text"`
	SentAt string         `json:"sentAt"`
}

// ChatReply represents the assistant's answer to a single send, including the
// optional follow-up suggestions returned by the advisory service
type ChatReply struct {
	Message     ChatMessage `json:"message"`
	Suggestions []string    `json:"suggestions,omitempty"`
	AIPowered   bool        `json:"aiPowered"`
}
