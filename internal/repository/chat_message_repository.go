package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"autorag/internal/model"
)

type ChatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

// ListThread returns a thread in ascending id order. A nil threadUserID
// selects the whole workspace. A positive limit keeps only the newest limit
// messages; zero returns the full thread.
func (r *ChatMessageRepository) ListThread(ctx context.Context, workspaceID uuid.UUID, threadUserID *uuid.UUID, limit int) ([]model.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if threadUserID != nil {
		q = q.Where("thread_user_id = ?", *threadUserID)
	}

	var messages []model.ChatMessage
	if limit <= 0 {
		if err := q.Order("id ASC").Find(&messages).Error; err != nil {
			return nil, fmt.Errorf("list chat messages failed: %w", err)
		}
		return messages, nil
	}

	if err := q.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
