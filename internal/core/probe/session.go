package probe

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"tcping/internal/core/lib/network/netraw"
	"tcping/internal/pkg/logger"
	"tcping/internal/pkg/utils"
)

const (
	// 源端口随机范围 (IANA 动态端口)
	sourcePortLow  = 49152
	sourcePortHigh = 65535

	// 序列号上限，足以避免相邻探测碰撞，不追求密码学随机
	maxSequence = 1234567

	frameBufferSize = 2048
)

// Conn 会话使用的 Raw Socket 能力
// *netraw.RawSocket 实现了该接口，测试中可替换
type Conn interface {
	Send(dst net.IP, port int, segment []byte) error
	WaitReadable(timeout time.Duration) (bool, error)
	Receive(buffer []byte) (int, net.IP, error)
	Close() error
}

// Outcome 一次探测的结果: Matched 或 TimedOut
type Outcome struct {
	Target     netraw.Endpoint
	Seq        uint32
	Matched    bool
	RTT        time.Duration // 取整到毫秒，仅 Matched 时有效
	Unexpected bool          // 读到了报文但不是期望的 SYN-ACK
	Err        error         // 发送/等待失败，按超时处理
}

// AttemptHandler 每次探测结束后的回调
type AttemptHandler func(Outcome)

// Option 会话选项
type Option func(*Session)

// WithHandler 设置探测回调
func WithHandler(h AttemptHandler) Option {
	return func(s *Session) { s.handler = h }
}

// WithSequence 替换序列号生成器
func WithSequence(gen func() uint32) Option {
	return func(s *Session) { s.nextSeq = gen }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSequence 均匀随机的初始序列号
func NewSequence() uint32 {
	return uint32(rand.Intn(maxSequence + 1))
}

// Session 一个探测会话，独占一个 Raw Socket 和一份统计
type Session struct {
	cfg     Config
	conn    Conn
	src     netraw.Endpoint
	dst     netraw.Endpoint
	stats   *Stats
	handler AttemptHandler
	nextSeq func() uint32
	now     func() time.Time
	buf     []byte
}

// Open 校验参数，创建 Raw Socket，解析目标并选定源端点
func Open(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !netraw.Supported() {
		return nil, newError(KindPlatform, ExitPlatform, "", ErrUnsupportedPlatform)
	}

	sock, err := netraw.NewRawSocket(netraw.ProtocolTCP)
	if err != nil {
		return nil, newError(KindSocket, ExitSocket, "unable to create raw socket", err)
	}

	srcIP, err := netraw.DiscoverSourceIP()
	if err != nil {
		sock.Close()
		return nil, newError(KindSocket, ExitSocket, "unable to discover source address", err)
	}

	dstIP, err := utils.ResolveIPv4(ctx, cfg.Host)
	if err != nil {
		sock.Close()
		return nil, newError(KindResolution, ExitResolution, "resolve "+cfg.Host, err)
	}

	srcPort, err := sock.BindRandomPort(sourcePortLow, sourcePortHigh)
	if err != nil {
		sock.Close()
		return nil, newError(KindSocket, ExitSocket, "bind source port", err)
	}

	src := netraw.Endpoint{IP: srcIP, Port: srcPort}
	dst := netraw.Endpoint{IP: dstIP, Port: cfg.Port}
	return NewSession(sock, src, dst, cfg, opts...), nil
}

// NewSession 基于已有连接构建会话
func NewSession(conn Conn, src, dst netraw.Endpoint, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		conn:    conn,
		src:     src,
		dst:     dst,
		stats:   NewStats(),
		handler: func(Outcome) {},
		nextSeq: NewSequence,
		now:     time.Now,
		buf:     make([]byte, frameBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Target 目标端点 (已解析)
func (s *Session) Target() netraw.Endpoint {
	return s.dst
}

// Stats 会话统计
func (s *Session) Stats() *Stats {
	return s.stats
}

// Close 释放 Raw Socket
func (s *Session) Close() error {
	return s.conn.Close()
}

// Attempt 执行一次探测: Idle -> Sent -> {Matched | TimedOut}
// 唯一的阻塞点是可读等待，最长 cfg.Timeout。
// 可读后只读取一帧: 不是期望的 SYN-ACK 时本次直接判为超时，不再继续等待。
func (s *Session) Attempt() Outcome {
	seq := s.nextSeq()
	out := Outcome{Target: s.dst, Seq: seq}

	segment, err := netraw.BuildSYNSegment(s.src, s.dst, seq)
	if err != nil {
		out.Err = fmt.Errorf("build segment: %w", err)
		return out
	}

	start := s.now()
	if err := s.conn.Send(s.dst.IP, s.dst.Port, segment); err != nil {
		out.Err = err
		return out
	}
	s.stats.RecordSent()

	ready, err := s.conn.WaitReadable(s.cfg.Timeout)
	if err != nil {
		out.Err = err
		return out
	}
	if !ready {
		return out
	}

	n, _, err := s.conn.Receive(s.buf)
	if err != nil {
		out.Err = fmt.Errorf("receive: %w", err)
		return out
	}

	reply, err := netraw.ParseTCPReply(s.buf[:n])
	if err != nil || reply.Ack != seq+1 || !reply.IsSynAck() {
		out.Unexpected = true
		return out
	}

	out.Matched = true
	out.RTT = roundMillis(s.now().Sub(start))
	s.stats.RecordMatch(out.RTT.Milliseconds())
	return out
}

// Run 最多执行 cfg.Count 次探测，两次之间休眠 cfg.Interval。
// 取消是协作式的: 每次探测结束和每次休眠时检查 ctx，进行中的探测会等到超时。
func (s *Session) Run(ctx context.Context) *Stats {
	for i := 0; i < s.cfg.Count; i++ {
		if ctx.Err() != nil {
			break
		}

		out := s.Attempt()
		logger.LogProbeEvent(out.Target.String(), out.Seq, out.Matched, out.RTT)
		s.handler(out)

		if i == s.cfg.Count-1 {
			break
		}
		if !sleepCtx(ctx, s.cfg.Interval) {
			break
		}
	}
	return s.stats
}

// roundMillis 取整到毫秒，恰好 .5 时取偶数
func roundMillis(d time.Duration) time.Duration {
	ms := math.RoundToEven(float64(d) / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// sleepCtx 休眠 d，被取消时返回 false
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
