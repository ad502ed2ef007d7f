package postgres

import (
	"context"
	"fmt"

	"chat-realtime/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// FindByID loads a message together with its sender and conversation.
func (r *MessageRepository) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Conversation").
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}
