package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier().Notify(context.Background(), "Host: 10.0.0.1 is online now", "42"))
}

func TestMultiNotifier_DeliversToAll(t *testing.T) {
	var got []string
	rec := NotifierFunc(func(ctx context.Context, message, destination string) error {
		got = append(got, destination+"|"+message)
		return nil
	})
	failing := NotifierFunc(func(ctx context.Context, message, destination string) error {
		return errors.New("boom")
	})

	m := NewMultiNotifier(failing, rec)
	m.Add(rec)
	assert.Equal(t, 3, m.Len())

	err := m.Notify(context.Background(), "msg", "chan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"chan|msg", "chan|msg"}, got)

	assert.NoError(t, NewMultiNotifier(rec).Notify(context.Background(), "m", "d"))
}

func TestWebhookNotifier_Success(t *testing.T) {
	var payload WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, 0, 0)
	require.NoError(t, n.Notify(context.Background(), "Host 10.0.0.1 is online already", "ops"))
	assert.Equal(t, "Host 10.0.0.1 is online already", payload.Message)
	assert.Equal(t, "ops", payload.Destination)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, 3, time.Millisecond)
	require.NoError(t, n.Notify(context.Background(), "m", "d"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad destination", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, 3, time.Millisecond)
	err := n.Notify(context.Background(), "m", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second, 1, time.Millisecond)
	err := n.Notify(context.Background(), "m", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "tcping:events")

	require.NoError(t, n.Notify(context.Background(), "Host: 10.0.0.1 is offline now", "ops"))
	assert.Equal(t, "tcping:events", pub.channel)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(pub.message, &payload))
	assert.Equal(t, "Host: 10.0.0.1 is offline now", payload.Message)

	pub.err = errors.New("connection refused")
	err := n.Notify(context.Background(), "m", "d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tcping:events")
}
