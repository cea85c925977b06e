package watchdog

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"tcping/internal/core/lib/network/netraw"
	"tcping/internal/core/probe"
)

var testSrc = netraw.Endpoint{IP: net.ParseIP("10.0.0.2").To4(), Port: 50000}

// fakeLink 控制假连接是否回应 SYN-ACK
type fakeLink struct {
	up atomic.Bool
}

type fakeConn struct {
	link   *fakeLink
	dst    netraw.Endpoint
	seq    uint32
	closed atomic.Bool
}

func (c *fakeConn) Send(dst net.IP, port int, segment []byte) error {
	c.seq = binary.BigEndian.Uint32(segment[4:])
	return nil
}

func (c *fakeConn) WaitReadable(timeout time.Duration) (bool, error) {
	return c.link.up.Load(), nil
}

func (c *fakeConn) Receive(buffer []byte) (int, net.IP, error) {
	seg, err := netraw.BuildTCPSegment(c.dst, testSrc, 1, c.seq+1, netraw.FlagSYN|netraw.FlagACK, 65535)
	if err != nil {
		return 0, nil, err
	}
	frame, err := netraw.BuildIPv4Packet(c.dst.IP, testSrc.IP, netraw.ProtocolTCP, seg)
	if err != nil {
		return 0, nil, err
	}
	return copy(buffer, frame), c.dst.IP, nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeOpener 只接受 IPv4 字面量，其它主机名按解析失败处理
func fakeOpener(link *fakeLink) (SessionOpener, *[]*fakeConn) {
	var mu sync.Mutex
	conns := &[]*fakeConn{}
	open := func(ctx context.Context, cfg probe.Config, opts ...probe.Option) (Runner, error) {
		ip := net.ParseIP(cfg.Host).To4()
		if ip == nil {
			return nil, &probe.Error{Kind: probe.KindResolution, ExitCode: probe.ExitResolution, Op: "resolve " + cfg.Host, Err: fmt.Errorf("no such host")}
		}
		dst := netraw.Endpoint{IP: ip, Port: cfg.Port}
		conn := &fakeConn{link: link, dst: dst}

		mu.Lock()
		*conns = append(*conns, conn)
		mu.Unlock()
		return probe.NewSession(conn, testSrc, dst, cfg, opts...), nil
	}
	return open, conns
}

// recorder 记录通知
type recorder struct {
	mu       sync.Mutex
	messages []string
	dests    []string
}

func (r *recorder) Notify(ctx context.Context, message, destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	r.dests = append(r.dests, destination)
	return nil
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recorder) Contains(msg string) bool {
	for _, m := range r.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}
