package watchdog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV RedisStore 需要的命令子集，*redis.Client 满足该接口
type RedisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore 把主机状态存到 Redis，多个进程可以共享同一份状态
// 删除只针对 prefix+ip 的精确 key，不做模式匹配
type RedisStore struct {
	client RedisKV
	prefix string
}

func NewRedisStore(client RedisKV, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(host string) string {
	return s.prefix + host
}

func (s *RedisStore) Set(ctx context.Context, key string, state HostState) error {
	if err := s.client.Set(ctx, s.key(key), string(state), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(key), err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (HostState, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", s.key(key), err)
	}
	state := HostState(val)
	if !state.Valid() {
		return "", false, fmt.Errorf("redis get %s: invalid state %q", s.key(key), val)
	}
	return state, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key(key), err)
	}
	return nil
}
