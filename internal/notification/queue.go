package notification

import (
	"fmt"

	"chat-realtime/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewQueue builds the configured queue backend. rdb is only used by the
// redis backend and may be nil otherwise.
func NewQueue(cfg config.NotificationConfig, kafkaCfg config.KafkaConfig, rdb *redis.Client) (Queue, error) {
	switch cfg.Queue {
	case "memory", "":
		return NewMemoryQueue(cfg.QueueSize), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis queue needs a redis client")
		}
		return NewRedisQueue(rdb, cfg.QueueKey), nil
	case "kafka":
		return NewKafkaQueue(kafkaCfg.Brokers, kafkaCfg.Topic, kafkaCfg.GroupID), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Queue)
	}
}
