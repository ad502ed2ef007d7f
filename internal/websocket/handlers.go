package websocket

import (
	"context"
	"log/slog"
	"time"
)

type topicHandler func(ctx context.Context, c *Client, topic Topic)

// FrameHandler routes inbound client frames. Every topic-scoped action
// other than subscribe runs behind requireSubscription.
type FrameHandler struct {
	authorizer *Authorizer
	hub        *Hub
	now        func() time.Time
	logger     *slog.Logger
}

func NewFrameHandler(authorizer *Authorizer, hub *Hub, logger *slog.Logger) *FrameHandler {
	return &FrameHandler{
		authorizer: authorizer,
		hub:        hub,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "frame_handler")),
	}
}

var _ MessageHandler = (*FrameHandler)(nil)

func (h *FrameHandler) Handle(ctx context.Context, c *Client, frame ClientFrame) {
	topic := frame.Topic()

	switch frame.Action {
	case ActionSubscribe:
		h.subscribe(ctx, c, topic)
	case ActionUnsubscribe:
		h.authorizer.Unsubscribe(c, topic)
	case ActionTyping:
		h.requireSubscription(h.presence(EventTyping))(ctx, c, topic)
	case ActionStopTyping:
		h.requireSubscription(h.presence(EventStopTyping))(ctx, c, topic)
	default:
		h.logger.Warn("Unknown action", "action", frame.Action, "clientID", c.ID())
	}
}

// Denials are not reported back to the client.
func (h *FrameHandler) subscribe(ctx context.Context, c *Client, topic Topic) {
	if _, err := h.authorizer.Authorize(ctx, c, topic); err != nil {
		return
	}
	h.hub.SendTo(c, NewSubscribedEvent(topic))
}

func (h *FrameHandler) requireSubscription(next topicHandler) topicHandler {
	return func(ctx context.Context, c *Client, topic Topic) {
		if !h.hub.IsSubscribed(c, topic) {
			h.logger.Debug("Dropping event for unsubscribed topic", "clientID", c.ID(), "userID", c.Identity().ID, "topicID", topic)
			return
		}
		next(ctx, c, topic)
	}
}

func (h *FrameHandler) presence(eventType EventType) topicHandler {
	return func(_ context.Context, c *Client, topic Topic) {
		h.hub.Publish(topic, NewPresenceEvent(eventType, topic, c.Identity(), h.now()))
	}
}
