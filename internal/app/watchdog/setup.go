package watchdog

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tcping/internal/config"
	"tcping/internal/core/notify"
	core "tcping/internal/core/watchdog"
	"tcping/internal/pkg/logger"
)

// SetupRedis 按需创建 Redis 客户端
// 状态存储或发布通知任一使用 Redis 时才连接
func SetupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	useStore := cfg.Store != nil && cfg.Store.Type == "redis"
	usePubSub := cfg.Notify != nil && cfg.Notify.RedisPubSub != nil && cfg.Notify.RedisPubSub.Enabled
	if !useStore && !usePubSub {
		return nil, nil
	}
	if cfg.Store == nil || cfg.Store.Redis == nil {
		return nil, fmt.Errorf("redis is required but store.redis is not configured")
	}

	rc := cfg.Store.Redis
	client := redis.NewClient(&redis.Options{
		Addr:        rc.Addr,
		Password:    rc.Password,
		DB:          rc.DB,
		DialTimeout: rc.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", rc.Addr, err)
	}

	logger.LogSystemEvent("Setup", "Redis", "connected to "+rc.Addr, logger.InfoLevel, nil)
	return client, nil
}

// SetupStore 创建主机状态存储
func SetupStore(cfg *config.Config, client *redis.Client) (core.StateStore, error) {
	if cfg.Store == nil || cfg.Store.Type == "" || cfg.Store.Type == "memory" {
		return core.NewMemoryStore(), nil
	}
	if cfg.Store.Type == "redis" {
		if client == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return core.NewRedisStore(client, cfg.Store.Redis.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
}

// SetupNotifier 按配置组合通知渠道
func SetupNotifier(cfg *config.Config, client *redis.Client) notify.Notifier {
	multi := notify.NewMultiNotifier()
	nc := cfg.Notify
	if nc == nil {
		multi.Add(notify.NewLogNotifier())
		return multi
	}

	if nc.Log {
		multi.Add(notify.NewLogNotifier())
	}
	if nc.Webhook != nil && nc.Webhook.URL != "" {
		multi.Add(notify.NewWebhookNotifier(nc.Webhook.URL, nc.Webhook.Timeout, nc.Webhook.MaxRetries, nc.Webhook.RetryDelay))
	}
	if nc.RedisPubSub != nil && nc.RedisPubSub.Enabled && client != nil {
		multi.Add(notify.NewRedisNotifier(client, nc.RedisPubSub.Channel))
	}

	logger.LogSystemEvent("Setup", "Notifier", fmt.Sprintf("%d notifier(s) configured", multi.Len()), logger.InfoLevel, nil)
	return multi
}
