package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-realtime/internal/models"

	"github.com/go-playground/validator/v10"
)

// Topic is the broadcast channel of one conversation. Its value is the
// conversation id.
type Topic uint

// Action is what a client asks for in an inbound frame.
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
	ActionTyping      Action = "typing"
	ActionStopTyping  Action = "stop_typing"
)

// EventType identifies a server-originated frame.
type EventType string

const (
	EventTyping     EventType = "typing"
	EventStopTyping EventType = "stop_typing"
	EventSubscribed EventType = "subscribed"
	EventError      EventType = "error"
)

func (t EventType) String() string {
	return string(t)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ClientFrame is the only shape a client may send. Typing frames carry no
// payload beyond the topic; the sender is always the connection identity.
type ClientFrame struct {
	Action  Action `json:"action" validate:"required,oneof=subscribe unsubscribe typing stop_typing"`
	TopicID uint   `json:"topic_id" validate:"required,gt=0"`
}

func (f *ClientFrame) Validate() error {
	return validate.Struct(f)
}

func (f *ClientFrame) Topic() Topic {
	return Topic(f.TopicID)
}

// ParseClientFrame decodes and validates one inbound text frame.
func ParseClientFrame(data []byte) (ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ClientFrame{}, fmt.Errorf("invalid frame: %w", err)
	}
	if err := frame.Validate(); err != nil {
		return ClientFrame{}, fmt.Errorf("invalid frame: %w", err)
	}
	return frame, nil
}

// Event is a transient server-originated payload. The router treats it as
// opaque and forwards the encoded form unchanged.
type Event struct {
	Type      EventType           `json:"type"`
	Topic     Topic               `json:"topic,omitempty"`
	User      *models.UserSummary `json:"user,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
	Code      string              `json:"code,omitempty"`
}

// NewPresenceEvent builds a typing or stop_typing event for identity.
func NewPresenceEvent(eventType EventType, topic Topic, identity models.Identity, at time.Time) Event {
	user := identity.Summary()
	return Event{
		Type:      eventType,
		Topic:     topic,
		User:      &user,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

func NewSubscribedEvent(topic Topic) Event {
	return Event{Type: EventSubscribed, Topic: topic}
}

func NewErrorEvent(code string) Event {
	return Event{Type: EventError, Code: code}
}
