package watchdog

import (
	"context"
	"sync"
	"time"

	"tcping/internal/core/notify"
	"tcping/internal/pkg/logger"
)

// DefaultSurveyInterval 监视器轮询间隔
const DefaultSurveyInterval = 1 * time.Second

// Monitor 周期性读取每个已注册主机的状态，检测上线/下线跳变
// 轮询间隔内的快速抖动可能被完全错过
type Monitor struct {
	store       StateStore
	notifier    notify.Notifier
	destination string
	interval    time.Duration
	hosts       func() []string
	history     *EventHistory
	now         func() time.Time

	// baseline 只在监视器 goroutine 中访问
	baseline map[string]HostState

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor hosts 返回当前已注册的 key 列表
func NewMonitor(store StateStore, notifier notify.Notifier, destination string, interval time.Duration, hosts func() []string, history *EventHistory) *Monitor {
	if interval <= 0 {
		interval = DefaultSurveyInterval
	}
	if history == nil {
		history = NewEventHistory(100)
	}
	return &Monitor{
		store:       store,
		notifier:    notifier,
		destination: destination,
		interval:    interval,
		hosts:       hosts,
		history:     history,
		now:         time.Now,
		baseline:    make(map[string]HostState),
	}
}

// Survey 执行一轮检查，返回本轮产生的事件
// 状态不存在或读取失败视为无变化
func (m *Monitor) Survey(ctx context.Context) []TransitionEvent {
	var events []TransitionEvent

	for _, host := range m.hosts() {
		state, ok, err := m.store.Get(ctx, host)
		if err != nil {
			logger.Warnf("watchdog: read state for %s failed: %v", host, err)
			continue
		}
		if !ok {
			continue
		}

		prev, seen := m.baseline[host]
		if !seen {
			m.baseline[host] = state
			if state == StateUp {
				events = append(events, TransitionEvent{Host: host, Kind: EventAlreadyOnline, Current: state, At: m.now()})
			}
			continue
		}
		if state == prev {
			continue
		}

		m.baseline[host] = state
		kind := EventOffline
		if state == StateUp {
			kind = EventOnline
		}
		events = append(events, TransitionEvent{Host: host, Kind: kind, Previous: prev, Current: state, At: m.now()})
	}

	for _, ev := range events {
		m.emit(ctx, ev)
	}
	return events
}

func (m *Monitor) emit(ctx context.Context, ev TransitionEvent) {
	m.history.Add(ev)
	logger.LogWatchdogEvent(ev.Host, string(ev.Kind), string(ev.Previous), string(ev.Current))

	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, ev.Message(), m.destination); err != nil {
		logger.Warnf("watchdog: notify %q failed: %v", ev.Message(), err)
	}
}

// History 事件历史
func (m *Monitor) History() *EventHistory {
	return m.history
}

// Start 启动轮询循环
func (m *Monitor) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)

	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			m.Survey(ctx)
			select {
			case <-ctx.Done():
				logger.LogSystemEvent("Watchdog", "MonitorStopped", "monitor was stopped", logger.InfoLevel, nil)
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop 发出停止信号并等待循环退出
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
