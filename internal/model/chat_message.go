package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
)

// ChatMessage is one entry of a workspace conversation. IDs are auto-incremented
// and define history order. ThreadUserID names the user whose exchange produced
// the message; UserID is the author and stays nil for assistant replies.
type ChatMessage struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID  uuid.UUID  `gorm:"type:varchar(36);not null;index:idx_chat_thread,priority:1" json:"workspace_id"`
	ThreadUserID uuid.UUID  `gorm:"type:varchar(36);not null;index:idx_chat_thread,priority:2" json:"thread_user_id"`
	MessageType  string     `gorm:"size:16;not null" json:"message_type"`
	UserID       *uuid.UUID `gorm:"type:varchar(36)" json:"user_id,omitempty"`
	Text         string     `gorm:"type:text;not null" json:"text"`
	CreatedAt    time.Time  `json:"created_at"`
}
