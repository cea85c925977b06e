// Package notify 将看门狗事件投递给外部通知渠道
package notify

import (
	"context"
	"errors"
	"fmt"

	"tcping/internal/pkg/logger"
)

// Notifier 外部通知接口
// destination 对核心是不透明的渠道标识 (chat id / 频道名等)
type Notifier interface {
	Notify(ctx context.Context, message, destination string) error
}

// NotifierFunc 函数适配器
type NotifierFunc func(ctx context.Context, message, destination string) error

func (f NotifierFunc) Notify(ctx context.Context, message, destination string) error {
	return f(ctx, message, destination)
}

// LogNotifier 只写日志，作为默认通知渠道
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, message, destination string) error {
	logger.LogNotifyEvent("log", destination, message, nil)
	return nil
}

// MultiNotifier 依次投递到全部渠道，单个渠道失败不影响其它渠道
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Add 追加渠道
func (m *MultiNotifier) Add(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Len 渠道数量
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

func (m *MultiNotifier) Notify(ctx context.Context, message, destination string) error {
	var errs []error
	for i, n := range m.notifiers {
		if err := n.Notify(ctx, message, destination); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
