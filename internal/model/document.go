package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentInfo is one entry of a workspace's document index. The index is kept
// in object storage next to the documents, not in the database.
type DocumentInfo struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"fileName"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
