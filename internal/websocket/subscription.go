package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
)

type DenyReason string

const (
	DenyNotFound  DenyReason = "not_found"
	DenyForbidden DenyReason = "forbidden"
)

type DeniedError struct {
	Reason DenyReason
	Topic  Topic
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("subscription to topic %d denied: %s", e.Topic, e.Reason)
}

// IsDenied reports whether err is a subscription denial with reason.
func IsDenied(err error, reason DenyReason) bool {
	var denied *DeniedError
	return errors.As(err, &denied) && denied.Reason == reason
}

type ConversationFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Conversation, error)
}

// Authorizer gates topic subscription on conversation membership and
// records successful subscriptions in the hub.
type Authorizer struct {
	conversations ConversationFinder
	hub           *Hub
	logger        *slog.Logger
}

func NewAuthorizer(conversations ConversationFinder, hub *Hub, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		conversations: conversations,
		hub:           hub,
		logger:        logger.With(slog.String("component", "subscription_authorizer")),
	}
}

// Authorize subscribes c to topic if c's identity is a member of the
// conversation. A repeated call for a held subscription returns the topic
// without touching the store.
func (a *Authorizer) Authorize(ctx context.Context, c *Client, topic Topic) (Topic, error) {
	if a.hub.IsSubscribed(c, topic) {
		return topic, nil
	}

	userID := c.Identity().ID
	conversation, err := a.conversations.FindByID(ctx, uint(topic))
	if errors.Is(err, repositories.ErrNotFound) {
		a.logger.Warn("Subscription denied", "reason", DenyNotFound, "userID", userID, "topicID", topic)
		return 0, &DeniedError{Reason: DenyNotFound, Topic: topic}
	}
	if err != nil {
		a.logger.Error("Conversation lookup failed", "userID", userID, "topicID", topic, "error", err)
		return 0, fmt.Errorf("lookup conversation %d: %w", topic, err)
	}

	if !conversation.IsMember(userID) {
		a.logger.Warn("Subscription denied", "reason", DenyForbidden, "userID", userID, "topicID", topic)
		return 0, &DeniedError{Reason: DenyForbidden, Topic: topic}
	}

	if _, err := a.hub.Subscribe(c, topic); err != nil {
		return 0, err
	}
	a.logger.Info("Subscription granted", "userID", userID, "topicID", topic)
	return topic, nil
}

// Unsubscribe removes c's subscription to topic if it has one.
func (a *Authorizer) Unsubscribe(c *Client, topic Topic) {
	if a.hub.Unsubscribe(c, topic) {
		a.logger.Debug("Subscription removed", "userID", c.Identity().ID, "topicID", topic)
	}
}
