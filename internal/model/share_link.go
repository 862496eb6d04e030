package model

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink is a workspace invite. The token doubles as the primary key.
type ShareLink struct {
	Token       uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"token"`
	WorkspaceID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"workspace_id"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}
