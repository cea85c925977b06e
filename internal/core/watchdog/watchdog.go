// Package watchdog 持续监控一组主机的 TCP 端口可达性
//
// 每个主机一个 Daemon 写状态，一个 Monitor 读状态并把跳变事件交给通知渠道。
// 两者之间只通过 StateStore 交换数据。
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tcping/internal/core/notify"
	"tcping/internal/core/probe"
	"tcping/internal/pkg/logger"
)

// 守护进程默认参数
const (
	DefaultTimeout     = 500 * time.Millisecond
	DefaultInterval    = 5 * time.Second
	DefaultHistorySize = 100
)

var (
	// ErrHostAlreadyWatched 同一个地址只能注册一次
	ErrHostAlreadyWatched = errors.New("host is already watched")
	// ErrShutdown 已经关闭
	ErrShutdown = errors.New("watchdog is shut down")
)

// Options 看门狗参数
type Options struct {
	Timeout        time.Duration
	Interval       time.Duration
	SurveyInterval time.Duration
	Destination    string
	HistorySize    int
	Opener         SessionOpener
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.SurveyInterval <= 0 {
		o.SurveyInterval = DefaultSurveyInterval
	}
	if o.HistorySize <= 0 {
		o.HistorySize = DefaultHistorySize
	}
	if o.Opener == nil {
		o.Opener = OpenProbeSession
	}
}

// Watchdog 管理全部守护进程和唯一的监视器
type Watchdog struct {
	opts    Options
	store   StateStore
	monitor *Monitor

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	daemons map[string]*Daemon
	order   []string
	started bool
	closed  bool
}

// New 创建看门狗，守护进程在 AddHost 时立即启动，监视器在 Start 时启动
func New(store StateStore, notifier notify.Notifier, opts Options) *Watchdog {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	w := &Watchdog{
		opts:    opts,
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
		daemons: make(map[string]*Daemon),
	}
	w.monitor = NewMonitor(store, notifier, opts.Destination, opts.SurveyInterval, w.Keys, NewEventHistory(opts.HistorySize))
	return w
}

// AddHost 注册主机: 解析地址，写入初始状态 "0"，启动守护进程
func (w *Watchdog) AddHost(ctx context.Context, host string, port int) (*Daemon, error) {
	cfg := probe.Config{
		Host:     host,
		Port:     port,
		Count:    probe.InfiniteCount,
		Timeout:  w.opts.Timeout,
		Interval: w.opts.Interval,
	}

	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return nil, ErrShutdown
	}

	d, err := newDaemon(ctx, host, cfg, w.store, w.opts.Opener)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		d.runner.Close()
		return nil, ErrShutdown
	}
	if _, ok := w.daemons[d.Key()]; ok {
		d.runner.Close()
		return nil, fmt.Errorf("%s (%s): %w", host, d.Key(), ErrHostAlreadyWatched)
	}
	if err := w.store.Set(ctx, d.Key(), StateDown); err != nil {
		d.runner.Close()
		return nil, fmt.Errorf("init state for %s: %w", d.Key(), err)
	}

	w.daemons[d.Key()] = d
	w.order = append(w.order, d.Key())
	d.Start(w.ctx)

	logger.LogSystemEvent("Watchdog", "AddHost", fmt.Sprintf("watching %s (%s) port %d", host, d.Key(), port), logger.InfoLevel, nil)
	return d, nil
}

// Keys 已注册主机的 key，按注册顺序
func (w *Watchdog) Keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Hosts 全部主机的状态
func (w *Watchdog) Hosts() []HostStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]HostStatus, 0, len(w.order))
	for _, key := range w.order {
		out = append(out, w.daemons[key].Status())
	}
	return out
}

// Events 最近的事件
func (w *Watchdog) Events() []TransitionEvent {
	return w.monitor.History().List()
}

// Start 启动监视器
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	w.monitor.Start(w.ctx)
}

// deleteState 使用独立的 context，关闭超时后仍然删除状态
func (w *Watchdog) deleteState(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	return w.store.Delete(ctx, key)
}

// Shutdown 优雅关闭:
// 1. 通知全部守护进程停止
// 2. 至少等待 timeout+interval，让进行中的探测结束
// 3. 停止监视器
// 4. 删除本进程注册过的主机状态 (精确 key)
// ctx 到期时仍在探测的守护进程，其 key 在退出后再删除，避免被最后一次写入重新创建
func (w *Watchdog) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	daemons := make([]*Daemon, 0, len(w.order))
	for _, key := range w.order {
		daemons = append(daemons, w.daemons[key])
	}
	w.mu.Unlock()

	logger.LogSystemEvent("Watchdog", "Shutdown", "started graceful shutdown", logger.InfoLevel, nil)

	for _, d := range daemons {
		d.Stop()
	}

	drain := time.NewTimer(w.opts.Timeout + w.opts.Interval)
	defer drain.Stop()

	var errs []error
	for _, d := range daemons {
		select {
		case <-d.Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("wait daemon %s: %w", d.Key(), ctx.Err()))
		}
		if ctx.Err() != nil {
			break
		}
	}
	select {
	case <-drain.C:
	case <-ctx.Done():
	}

	w.monitor.Stop()
	w.cancel()

	for _, d := range daemons {
		select {
		case <-d.Done():
			if err := w.deleteState(d.Key()); err != nil {
				errs = append(errs, err)
			}
		default:
			errs = append(errs, fmt.Errorf("daemon %s still probing, state removed when it exits", d.Key()))
			go func(d *Daemon) {
				<-d.Done()
				if err := w.deleteState(d.Key()); err != nil {
					logger.Warnf("watchdog: delete state for %s failed: %v", d.Key(), err)
				}
			}(d)
		}
	}

	logger.LogSystemEvent("Watchdog", "Shutdown", "done", logger.InfoLevel, nil)
	return errors.Join(errs...)
}
