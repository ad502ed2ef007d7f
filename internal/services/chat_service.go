package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
)

var (
	ErrEmptyMessage         = errors.New("message body is empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("sender is not a participant of the conversation")
)

type ConversationFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Conversation, error)
}

type MessageCreator interface {
	Create(ctx context.Context, message *models.Message) error
}

// MessageNotifier is told about every committed message.
type MessageNotifier interface {
	MessageCreated(ctx context.Context, messageID uint) error
}

type ChatService struct {
	conversations ConversationFinder
	messages      MessageCreator
	notifier      MessageNotifier
	logger        *slog.Logger
}

func NewChatService(conversations ConversationFinder, messages MessageCreator, notifier MessageNotifier, logger *slog.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		logger:        logger.With(slog.String("component", "chat_service")),
	}
}

// Send stores a message from senderID in the conversation and queues its
// push notification. A failed enqueue does not fail the send.
func (s *ChatService) Send(ctx context.Context, conversationID, senderID uint, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %d: %w", conversationID, err)
	}
	if !conversation.IsMember(senderID) {
		return nil, ErrNotParticipant
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if err := s.notifier.MessageCreated(ctx, message.ID); err != nil {
		s.logger.Warn("Message stored without notification", "messageID", message.ID, "error", err)
	}
	return message, nil
}
