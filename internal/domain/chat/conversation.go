package chat

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderName is used when a counterparty profile cannot be resolved.
const PlaceholderName = "User"

// Conversation is a derived view over the pair's message history.
// It is never persisted; the aggregator recomputes it on demand.
type Conversation struct {
	PartyID     uuid.UUID `json:"party_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Preview     string    `json:"preview"`
	LastAt      time.Time `json:"last_at"`
	Unread      int64     `json:"unread"`
}
