package repository

import (
	"context"
	"time"

	"producer-chat/internal/domain/chat"
	"producer-chat/internal/domain/moderation"
	"producer-chat/internal/domain/user"

	"github.com/google/uuid"
)

// MessageRepository is the query surface the messaging core needs from the
// store: pair-scoped pages with a before-cursor, bulk read-marking, bulk
// pair deletion, and the two inbox aggregation queries.
type MessageRepository interface {
	Create(ctx context.Context, m *chat.Message) error

	// GetThreadPage returns up to limit messages between the two users,
	// newest first. A non-nil before bounds the page strictly below that
	// timestamp.
	GetThreadPage(ctx context.Context, userID, otherID uuid.UUID, before *time.Time, limit int) ([]chat.Message, error)

	// MarkThreadRead stamps every unread message from senderID to
	// recipientID and reports how many rows changed.
	MarkThreadRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) (int64, error)

	// DeleteThread removes the unordered pair's entire history in one
	// statement.
	DeleteThread(ctx context.Context, userID, otherID uuid.UUID) (int64, error)

	// GetLatestPerCounterparty returns the single most recent message for
	// each distinct counterparty of userID, newest conversation first.
	GetLatestPerCounterparty(ctx context.Context, userID uuid.UUID, limit int) ([]chat.Message, error)

	// CountUnreadBySender groups userID's unread inbound messages by sender.
	CountUnreadBySender(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int64, error)
}

type ProfileRepository interface {
	// ResolveProfiles resolves ids to display profiles. Unknown ids are
	// omitted; callers fill in placeholders.
	ResolveProfiles(ctx context.Context, ids []uuid.UUID) ([]user.Profile, error)
}

type ModerationRepository interface {
	CreateBlock(ctx context.Context, b *moderation.Block) error
	CreateReport(ctx context.Context, r *moderation.Report) error
}
