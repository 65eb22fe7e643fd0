package moderation

import (
	"time"

	"github.com/google/uuid"
)

type ReportReason string

const (
	ReasonSpam          ReportReason = "SPAM_PROMOTION"
	ReasonHarassment    ReportReason = "HARASSMENT"
	ReasonScam          ReportReason = "SCAM_FRAUD"
	ReasonInappropriate ReportReason = "INAPPROPRIATE_CONTENT"
	ReasonOther         ReportReason = "OTHER"
)

// ValidReason reports whether r is one of the fixed report reasons.
func ValidReason(r ReportReason) bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonScam, ReasonInappropriate, ReasonOther:
		return true
	}
	return false
}

// Block is a directed blocker->blocked pair. Insert-only: the messaging core
// never reads blocks back, and the store is not assumed to deduplicate.
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID uuid.UUID `gorm:"type:uuid;not null;index" json:"blocker_id"`
	BlockedID uuid.UUID `gorm:"type:uuid;not null" json:"blocked_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Block) TableName() string { return "chat_blocks" }

// Report is a write-only moderation record reviewed out of band.
type Report struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ReportedUserID uuid.UUID    `gorm:"type:uuid;not null" json:"reported_user_id"`
	ConversationID string       `gorm:"type:text" json:"conversation_id"`
	Reason         ReportReason `gorm:"type:varchar(32);not null" json:"reason"`
	Note           *string      `gorm:"type:text" json:"note,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Report) TableName() string { return "chat_reports" }
