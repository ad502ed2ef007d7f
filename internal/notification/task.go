package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var ErrQueueClosed = errors.New("queue closed")

// Task asks for one message's recipient to be notified. Its payload is only
// the message id, so re-enqueueing an equivalent task is always safe.
type Task struct {
	ID         string    `json:"id"`
	MessageID  uint      `json:"message_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewTask(messageID uint) Task {
	return Task{ID: uuid.NewString(), MessageID: messageID, EnqueuedAt: time.Now().UTC()}
}

func (t Task) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

func UnmarshalTask(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if t.MessageID == 0 {
		return Task{}, errors.New("decode task: missing message_id")
	}
	return t, nil
}

// Queue is a plain FIFO of tasks shared by producers and the worker pool.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Dequeue blocks until a task is available, ctx is done or the queue
	// is closed (ErrQueueClosed).
	Dequeue(ctx context.Context) (Task, error)
	Close() error
}

// Notifier is the producer side: the persistence layer calls
// MessageCreated after a message row is committed.
type Notifier struct {
	queue  Queue
	logger *slog.Logger
}

func NewNotifier(queue Queue, logger *slog.Logger) *Notifier {
	return &Notifier{queue: queue, logger: logger.With(slog.String("component", "notifier"))}
}

func (n *Notifier) MessageCreated(ctx context.Context, messageID uint) error {
	task := NewTask(messageID)
	if err := n.queue.Enqueue(ctx, task); err != nil {
		n.logger.Error("Failed to enqueue notification task", "messageID", messageID, "error", err)
		return fmt.Errorf("enqueue notification for message %d: %w", messageID, err)
	}
	n.logger.Debug("Notification task enqueued", "taskID", task.ID, "messageID", messageID)
	return nil
}
