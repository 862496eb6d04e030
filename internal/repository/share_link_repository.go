package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"autorag/internal/model"
)

type ShareLinkRepository struct {
	db *gorm.DB
}

func NewShareLinkRepository(db *gorm.DB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

// Create returns ErrDuplicateKey when the workspace already has a link.
func (r *ShareLinkRepository) Create(ctx context.Context, link *model.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if err = translateCreateError(err); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("create share link failed: %w", err)
	}
	return nil
}

func (r *ShareLinkRepository) GetByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*model.ShareLink, error) {
	var link model.ShareLink
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query share link by workspace failed: %w", err)
	}
	return &link, nil
}

func (r *ShareLinkRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.ShareLink, error) {
	var link model.ShareLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query share link by token failed: %w", err)
	}
	return &link, nil
}

func (r *ShareLinkRepository) SetEnabled(ctx context.Context, token uuid.UUID, enabled bool) error {
	if err := r.db.WithContext(ctx).Model(&model.ShareLink{}).
		Where("token = ?", token).
		Update("enabled", enabled).Error; err != nil {
		return fmt.Errorf("update share link failed: %w", err)
	}
	return nil
}
