package user

import (
	"github.com/google/uuid"
)

// Profile is a directory row: the marketplace owns this table, the messaging
// core only resolves it for display.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"type:text;not null" json:"display_name"`
	AvatarURL   *string   `gorm:"type:text" json:"avatar_url,omitempty"`
}

func (Profile) TableName() string { return "profiles" }
