package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// KafkaQueue publishes tasks to a topic and consumes them through a
// consumer group. Offsets are committed on read, which makes delivery at
// most once per group.
type KafkaQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

func NewKafkaQueue(brokers []string, topic, groupID string) *KafkaQueue {
	return &KafkaQueue{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
	}
}

var _ Queue = (*KafkaQueue)(nil)

func (q *KafkaQueue) Enqueue(ctx context.Context, task Task) error {
	data, err := task.Marshal()
	if err != nil {
		return err
	}
	// Keyed by message id so redelivered equivalents land on one partition.
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(task.MessageID), 10)),
		Value: data,
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return ErrQueueClosed
		}
		return fmt.Errorf("kafka write %s: %w", q.writer.Topic, err)
	}
	return nil
}

func (q *KafkaQueue) Dequeue(ctx context.Context) (Task, error) {
	msg, err := q.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Task{}, ErrQueueClosed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Task{}, ctxErr
		}
		return Task{}, fmt.Errorf("kafka read: %w", err)
	}

	task, err := UnmarshalTask(msg.Value)
	if err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return task, nil
}

func (q *KafkaQueue) Close() error {
	return errors.Join(q.writer.Close(), q.reader.Close())
}
