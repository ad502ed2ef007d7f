package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repositories"
)

type MessageFinder interface {
	// FindByID returns the message with Sender and Conversation loaded.
	FindByID(ctx context.Context, id uint) (*models.Message, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Dispatcher decides whether a stored message warrants a push and sends
// it. It never returns an error: every run ends in an Outcome.
type Dispatcher struct {
	messages MessageFinder
	users    UserFinder
	provider Provider
	logger   *slog.Logger
}

func NewDispatcher(messages MessageFinder, users UserFinder, provider Provider, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		messages: messages,
		users:    users,
		provider: provider,
		logger:   logger.With(slog.String("component", "notification_dispatcher")),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, messageID uint) (outcome Outcome) {
	log := d.logger.With(slog.Uint64("messageID", uint64(messageID)))

	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(fmt.Errorf("dispatch panic: %v", r))
		}
		d.report(log, outcome)
	}()

	message, err := d.messages.FindByID(ctx, messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return Skipped(SkipNotFound)
	}
	if err != nil {
		return Failed(fmt.Errorf("load message: %w", err))
	}

	recipientID, ok := message.Conversation.OtherParticipant(message.SenderID)
	if !ok {
		return Skipped(SkipNoRecipient)
	}
	// Checked ahead of the recipient's settings so a self-addressed
	// message is always reported as such.
	if recipientID == message.SenderID {
		return Skipped(SkipSelfSend)
	}

	recipient, err := d.users.FindByID(ctx, recipientID)
	if errors.Is(err, repositories.ErrNotFound) {
		return Skipped(SkipNoRecipient)
	}
	if err != nil {
		return Failed(fmt.Errorf("load recipient: %w", err))
	}

	switch {
	case !recipient.HasPushToken():
		return Skipped(SkipNoToken)
	case !recipient.NotificationsEnabled():
		return Skipped(SkipDisabled)
	}

	sender, err := d.sender(ctx, message)
	if err != nil {
		return Failed(fmt.Errorf("load sender: %w", err))
	}

	notification := BuildNotification(message, sender, *recipient.PushToken)
	if err := d.provider.Send(ctx, notification); err != nil {
		return Failed(err)
	}
	return Delivered(notification)
}

func (d *Dispatcher) sender(ctx context.Context, message *models.Message) (*models.User, error) {
	if message.Sender.ID == message.SenderID {
		return &message.Sender, nil
	}
	return d.users.FindByID(ctx, message.SenderID)
}

func (d *Dispatcher) report(log *slog.Logger, outcome Outcome) {
	switch outcome.Status {
	case StatusDelivered:
		log.Info("Notification delivered")
	case StatusSkipped:
		log.Info("Notification skipped", "reason", outcome.Reason)
	case StatusFailed:
		log.Error("Notification failed", "error", outcome.Err)
	}
}
