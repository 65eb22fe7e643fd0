package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "IMAGE"
	AttachmentAudio AttachmentKind = "AUDIO"
	AttachmentFile  AttachmentKind = "FILE"
)

// KindForContentType classifies an attachment from its declared media type
// when the caller did not classify it explicitly.
func KindForContentType(contentType string) AttachmentKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return AttachmentImage
	case strings.HasPrefix(contentType, "audio/"):
		return AttachmentAudio
	default:
		return AttachmentFile
	}
}

// SupportTicketPrefix marks messages originating from a support ticket.
// A latest message carrying it overrides the counterparty's display name.
const SupportTicketPrefix = "[Ticket #"

const SupportDisplayName = "Customer Support"

// AttachmentPreview is shown in the inbox when the latest message has no text.
const AttachmentPreview = "[Attachment]"

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair,priority:1" json:"sender_id"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair,priority:2" json:"recipient_id"`
	Content        *string    `gorm:"type:text" json:"content,omitempty"`
	AttachmentURL  *string    `gorm:"type:text" json:"attachment_url,omitempty"`
	AttachmentType *string    `gorm:"type:varchar(16)" json:"attachment_type,omitempty"`
	AttachmentName *string    `gorm:"type:text" json:"attachment_name,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_messages_pair,priority:3,sort:desc" json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

func (Message) TableName() string { return "messages" }

// Text returns the message content, empty when nil.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

func (m Message) HasAttachment() bool {
	return m.AttachmentURL != nil && *m.AttachmentURL != ""
}

// Empty reports whether the message carries neither text nor attachment.
// Such a message must never be persisted.
func (m Message) Empty() bool {
	return m.Text() == "" && !m.HasAttachment()
}

// Preview is the inbox summary line for this message.
func (m Message) Preview() string {
	if text := m.Text(); text != "" {
		return text
	}
	if m.HasAttachment() {
		return AttachmentPreview
	}
	return ""
}

// FromSupportTicket reports whether the message text carries the reserved
// ticket prefix.
func (m Message) FromSupportTicket() bool {
	return strings.HasPrefix(m.Text(), SupportTicketPrefix)
}

// Counterparty returns the other end of the message relative to userID.
func (m Message) Counterparty(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
