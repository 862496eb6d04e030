package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventDocumentUploaded   = "document.uploaded"
	EventEmbeddingsReplaced = "embeddings.replaced"
)

// WorkspaceEvent is broadcast to every replica so in-process caches can drop
// entries another replica changed.
type WorkspaceEvent struct {
	Kind        string    `json:"kind"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	DocumentID  uuid.UUID `json:"document_id"`
	Origin      string    `json:"origin"`
	OccurredAt  time.Time `json:"occurred_at"`
}
