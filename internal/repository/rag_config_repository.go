package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autorag/internal/model"
)

type RagConfigRepository struct {
	db *gorm.DB
}

func NewRagConfigRepository(db *gorm.DB) *RagConfigRepository {
	return &RagConfigRepository{db: db}
}

func (r *RagConfigRepository) Get(ctx context.Context, workspaceID uuid.UUID) (*model.RagConfig, error) {
	var cfg model.RagConfig
	if err := r.db.WithContext(ctx).Where("id = ?", workspaceID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query rag config failed: %w", err)
	}
	return &cfg, nil
}

// Upsert inserts the config under its workspace id or overwrites every column
// of the existing row.
func (r *RagConfigRepository) Upsert(ctx context.Context, cfg *model.RagConfig) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(cfg).Error; err != nil {
		return fmt.Errorf("upsert rag config failed: %w", err)
	}
	return nil
}
