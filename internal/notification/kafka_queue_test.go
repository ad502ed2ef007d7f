package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBroker = "localhost:9092"

func kafkaForTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Kafka test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := kafka.DialContext(ctx, "tcp", testBroker)
	if err != nil {
		t.Skip("Kafka is not available, skipping test")
	}
	conn.Close()
}

func TestKafkaQueueRoundTrip(t *testing.T) {
	kafkaForTest(t)

	suffix := uuid.NewString()
	q := NewKafkaQueue([]string{testBroker}, "test-notifications-"+suffix, "test-group-"+suffix)
	t.Cleanup(func() { q.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := NewTask(99)
	require.NoError(t, q.Enqueue(ctx, sent))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, uint(99), got.MessageID)
}

func TestKafkaQueueDequeueAfterClose(t *testing.T) {
	q := NewKafkaQueue([]string{testBroker}, "unused", "unused")
	require.NoError(t, q.Close())

	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}
