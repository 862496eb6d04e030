package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type User struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	FullName     string    `gorm:"size:128;not null" json:"full_name"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Organization string    `gorm:"size:128" json:"organization,omitempty"`
	WorkspaceID  uuid.UUID `gorm:"type:varchar(36);not null;index" json:"workspace_id"`
	Role         string    `gorm:"size:16;not null" json:"role"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}
