package events

import (
	"context"
	"time"
)

// Channels the messaging core publishes on.
const (
	ChannelMessageCreated = "chat.message.created"
	ChannelChatCleared    = "chat.cleared"
)

type Event struct {
	Type        string                 `json:"type"`
	SenderID    string                 `json:"sender_id,omitempty"`
	RecipientID string                 `json:"recipient_id,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

type Handler func(ctx context.Context, event Event) error

type Broker interface {
	Publish(ctx context.Context, channel string, event Event) error
	Subscribe(ctx context.Context, channel string, handler Handler) error
}
