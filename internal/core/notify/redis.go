package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tcping/internal/pkg/logger"
)

// Publisher *redis.Client 的发布能力
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier 通过 PUBLISH 投递事件，载荷与 webhook 相同
type RedisNotifier struct {
	client  Publisher
	channel string
}

func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, message, destination string) error {
	data, err := json.Marshal(&WebhookPayload{
		Message:     message,
		Destination: destination,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = n.client.Publish(ctx, n.channel, data).Err()
	if err != nil {
		err = fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	logger.LogNotifyEvent("redis", destination, message, err)
	return err
}
