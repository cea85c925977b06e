package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tcping/internal/pkg/logger"
	"tcping/internal/pkg/version"
)

// WebhookPayload POST 到 webhook 的请求体
type WebhookPayload struct {
	Message     string    `json:"message"`
	Destination string    `json:"destination"`
	Timestamp   time.Time `json:"timestamp"`
}

// WebhookNotifier 以 JSON POST 投递事件
type WebhookNotifier struct {
	client     *http.Client
	url        string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(url string, timeout time.Duration, maxRetries int, retryDelay time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{
			Timeout: timeout,
		},
		url:        url,
		userAgent:  "tcping/" + version.GetVersion(),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, message, destination string) error {
	err := n.post(ctx, &WebhookPayload{
		Message:     message,
		Destination: destination,
		Timestamp:   time.Now(),
	})
	logger.LogNotifyEvent("webhook", destination, message, err)
	return err
}

// post 发送请求，网络错误和 5xx 会重试，4xx 直接失败
func (n *WebhookNotifier) post(ctx context.Context, payload *WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i <= n.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", n.userAgent)

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
		default:
			return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
		}
	}
	return lastErr
}
