package watchdog

import (
	"context"
	"sync"
	"time"

	"tcping/internal/core/lib/network/netraw"
	"tcping/internal/core/lib/network/qos"
	"tcping/internal/core/probe"
	"tcping/internal/pkg/logger"
)

// storeWriteTimeout 单次状态写入的超时
const storeWriteTimeout = 2 * time.Second

// Runner 守护进程驱动的探测会话，*probe.Session 满足该接口
type Runner interface {
	Run(ctx context.Context) *probe.Stats
	Target() netraw.Endpoint
	Close() error
}

// SessionOpener 创建探测会话，opts 中包含守护进程的结果回调
type SessionOpener func(ctx context.Context, cfg probe.Config, opts ...probe.Option) (Runner, error)

// OpenProbeSession 默认的会话创建方式: Raw Socket
func OpenProbeSession(ctx context.Context, cfg probe.Config, opts ...probe.Option) (Runner, error) {
	s, err := probe.Open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// HostStatus 守护进程的对外状态
type HostStatus struct {
	Host      string          `json:"host"`
	Address   string          `json:"address"`
	Port      int             `json:"port"`
	State     string          `json:"state"`
	Attempts  int             `json:"attempts"`
	Matches   int             `json:"matches"`
	LastSeen  *time.Time      `json:"last_seen,omitempty"`
	LastRTTms int64           `json:"last_rtt_ms"`
	RTT       qos.RttSnapshot `json:"rtt"`
	Running   bool            `json:"running"`
}

// Daemon 单个主机的无限探测循环，每次探测都覆盖写入该主机的状态
// 停止是协作式的: 进行中的探测最多再等待 timeout
type Daemon struct {
	host   string
	key    string
	port   int
	store  StateStore
	rtt    *qos.RttEstimator
	runner Runner

	mu       sync.RWMutex
	state    HostState
	attempts int
	matches  int
	lastSeen time.Time
	lastRTT  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// newDaemon 打开会话并返回未启动的守护进程
// 状态 key 为解析后的 IP
func newDaemon(ctx context.Context, host string, cfg probe.Config, store StateStore, open SessionOpener) (*Daemon, error) {
	d := &Daemon{
		host:  host,
		port:  cfg.Port,
		store: store,
		rtt:   qos.NewRttEstimator(),
		state: StateDown,
		done:  make(chan struct{}),
	}

	runner, err := open(ctx, cfg, probe.WithHandler(d.record))
	if err != nil {
		return nil, err
	}
	d.runner = runner
	d.key = runner.Target().IP.String()
	return d, nil
}

// Key 状态存储中的 key (解析后的 IP)
func (d *Daemon) Key() string {
	return d.key
}

// Host 注册时使用的主机名
func (d *Daemon) Host() string {
	return d.host
}

// Start 启动探测循环
func (d *Daemon) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		defer d.runner.Close()

		logger.LogWatchdogEvent(d.key, "daemon_started", "", string(StateDown))
		d.runner.Run(ctx)
		logger.LogWatchdogEvent(d.key, "daemon_stopped", "", "")
	}()
}

// Stop 发出停止信号，不等待
func (d *Daemon) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	d.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Done 循环退出后关闭
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// record 每次探测结束的回调，在守护进程自己的 goroutine 中执行
func (d *Daemon) record(out probe.Outcome) {
	state := StateFromMatch(out.Matched)

	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := d.store.Set(ctx, d.key, state); err != nil {
		logger.Warnf("watchdog: write state for %s failed: %v", d.key, err)
	}

	if out.Matched {
		d.rtt.Update(out.RTT)
	}

	d.mu.Lock()
	d.state = state
	d.attempts++
	if out.Matched {
		d.matches++
		d.lastSeen = time.Now()
		d.lastRTT = out.RTT
	}
	d.mu.Unlock()
}

// Status 当前状态快照
func (d *Daemon) Status() HostStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := HostStatus{
		Host:      d.host,
		Address:   d.key,
		Port:      d.port,
		State:     d.state.String(),
		Attempts:  d.attempts,
		Matches:   d.matches,
		LastRTTms: probe.NoSample,
		RTT:       d.rtt.Snapshot(),
	}
	if !d.lastSeen.IsZero() {
		seen := d.lastSeen
		st.LastSeen = &seen
		st.LastRTTms = d.lastRTT.Milliseconds()
	}
	select {
	case <-d.done:
	default:
		st.Running = d.cancel != nil
	}
	return st
}
