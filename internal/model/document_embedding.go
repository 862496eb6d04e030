package model

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DocumentEmbedding stores one chunk of a processed document and its vector.
// Chunk indexes of a document are contiguous from 0.
type DocumentEmbedding struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	DocumentID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_document_chunk,priority:1" json:"document_id"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:idx_document_chunk,priority:2" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  Vector    `gorm:"not null" json:"-"`
}

// Vector is a pgvector column on postgres and a "[x,y,...]" text column elsewhere.
type Vector struct {
	pgvector.Vector
}

func NewVector(values []float32) Vector {
	return Vector{Vector: pgvector.NewVector(values)}
}

func (Vector) GormDataType() string {
	return "vector"
}

func (Vector) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "vector"
	}
	return "text"
}
