package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"autorag/internal/model"
)

const embeddingInsertBatch = 500

type DocumentEmbeddingRepository struct {
	db *gorm.DB
}

func NewDocumentEmbeddingRepository(db *gorm.DB) *DocumentEmbeddingRepository {
	return &DocumentEmbeddingRepository{db: db}
}

func (r *DocumentEmbeddingRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.DocumentEmbedding, error) {
	var chunks []model.DocumentEmbedding
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list document embeddings failed: %w", err)
	}
	return chunks, nil
}

// Replace deletes every chunk of the document and inserts chunks in one
// transaction.
func (r *DocumentEmbeddingRepository) Replace(ctx context.Context, documentID uuid.UUID, chunks []model.DocumentEmbedding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.DocumentEmbedding{}).Error; err != nil {
			return fmt.Errorf("delete document embeddings failed: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&chunks, embeddingInsertBatch).Error; err != nil {
			return fmt.Errorf("insert document embeddings failed: %w", err)
		}
		return nil
	})
}
