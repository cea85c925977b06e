package watchdog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 基于 map 的 RedisKV
type fakeRedis struct {
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.data[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	kv := newFakeRedis()
	s := NewRedisStore(kv, "tcping:state:")

	_, ok, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "10.0.0.1", StateUp))
	assert.Equal(t, "1", kv.data["tcping:state:10.0.0.1"])

	state, ok, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateUp, state)

	kv.data["tcping:state:10.0.0.11"] = "0"
	require.NoError(t, s.Delete(ctx, "10.0.0.1"))
	assert.NotContains(t, kv.data, "tcping:state:10.0.0.1")
	assert.Contains(t, kv.data, "tcping:state:10.0.0.11")
}

func TestRedisStore_InvalidValue(t *testing.T) {
	kv := newFakeRedis()
	kv.data["p:10.0.0.1"] = "maybe"
	_, ok, err := NewRedisStore(kv, "p:").Get(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_BackendError(t *testing.T) {
	kv := newFakeRedis()
	kv.err = errors.New("connection refused")
	s := NewRedisStore(kv, "p:")

	assert.Error(t, s.Set(context.Background(), "h", StateDown))
	_, _, err := s.Get(context.Background(), "h")
	assert.Error(t, err)
	assert.Error(t, s.Delete(context.Background(), "h"))
}

func TestRedisStore_WithMonitor(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(newFakeRedis(), "tcping:state:")
	rec := &recorder{}
	m := NewMonitor(s, rec, "", time.Second, staticHosts("10.0.0.1"), nil)

	require.NoError(t, s.Set(ctx, "10.0.0.1", StateUp))
	m.Survey(ctx)
	require.NoError(t, s.Set(ctx, "10.0.0.1", StateDown))
	m.Survey(ctx)

	assert.Equal(t, []string{"Host 10.0.0.1 is online already", "Host: 10.0.0.1 is offline now"}, rec.Messages())
}
