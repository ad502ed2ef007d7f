package notification

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidTask = errors.New("invalid task payload")

// RedisQueue keeps tasks in a Redis list: LPUSH to enqueue, BRPOP to
// dequeue. The client is shared and is not closed by the queue.
type RedisQueue struct {
	rdb         *redis.Client
	key         string
	pollTimeout time.Duration
	closed      atomic.Bool
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, pollTimeout: time.Second}
}

var _ Queue = (*RedisQueue)(nil)

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	data, err := task.Marshal()
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", q.key, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if q.closed.Load() {
			return Task{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}

		res, err := q.rdb.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Task{}, ctxErr
			}
			return Task{}, fmt.Errorf("redis brpop %s: %w", q.key, err)
		}

		// res is [key, value]
		task, err := UnmarshalTask([]byte(res[1]))
		if err != nil {
			return Task{}, fmt.Errorf("%w: %v", ErrInvalidTask, err)
		}
		return task, nil
	}
}

func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}
