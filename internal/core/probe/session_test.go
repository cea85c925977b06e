package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcping/internal/core/lib/network/netraw"
)

var (
	testSrc = netraw.Endpoint{IP: net.ParseIP("10.0.0.2").To4(), Port: 50000}
	testDst = netraw.Endpoint{IP: net.ParseIP("10.0.0.9").To4(), Port: 80}
)

// fakeConn 按脚本回应每个发送的 SYN
type fakeConn struct {
	respond func(seq uint32) []byte // 返回 nil 表示超时
	sendErr error
	sent    [][]byte
	pending []byte
	closed  bool
}

func (c *fakeConn) Send(dst net.IP, port int, segment []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), segment...))
	c.pending = nil
	if c.respond != nil {
		c.pending = c.respond(binary.BigEndian.Uint32(segment[4:]))
	}
	return nil
}

func (c *fakeConn) WaitReadable(timeout time.Duration) (bool, error) {
	return c.pending != nil, nil
}

func (c *fakeConn) Receive(buffer []byte) (int, net.IP, error) {
	n := copy(buffer, c.pending)
	c.pending = nil
	return n, testDst.IP, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func replyFrame(t *testing.T, ack uint32, flags uint8) []byte {
	t.Helper()
	seg, err := netraw.BuildTCPSegment(testDst, testSrc, 9000, ack, flags, 65535)
	require.NoError(t, err)
	frame, err := netraw.BuildIPv4Packet(testDst.IP, testSrc.IP, netraw.ProtocolTCP, seg)
	require.NoError(t, err)
	return frame
}

func steppingClock(step time.Duration) func() time.Time {
	now := time.Unix(1700000000, 0)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func testConfig(count int) Config {
	return Config{Host: "10.0.0.9", Port: 80, Count: count, Timeout: 10 * time.Millisecond, Interval: time.Millisecond}
}

func TestAttempt_TimedOut(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(conn, testSrc, testDst, testConfig(1), WithSequence(func() uint32 { return 420 }))

	out := s.Attempt()
	assert.False(t, out.Matched)
	assert.False(t, out.Unexpected)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, s.Stats().Sent)
	assert.Equal(t, 0, s.Stats().Received)

	require.Len(t, conn.sent, 1)
	assert.Len(t, conn.sent[0], netraw.TCPHeaderLen)
	assert.Equal(t, uint32(420), binary.BigEndian.Uint32(conn.sent[0][4:]))
}

func TestAttempt_Matched(t *testing.T) {
	conn := &fakeConn{}
	conn.respond = func(seq uint32) []byte { return replyFrame(t, seq+1, netraw.FlagSYN|netraw.FlagACK) }

	s := NewSession(conn, testSrc, testDst, testConfig(1),
		WithSequence(func() uint32 { return 1000 }),
		WithClock(steppingClock(12400*time.Microsecond)),
	)

	out := s.Attempt()
	assert.True(t, out.Matched)
	assert.Equal(t, 12*time.Millisecond, out.RTT)
	assert.Equal(t, uint32(1000), out.Seq)
	assert.Equal(t, 1, s.Stats().Received)
	assert.Equal(t, []int64{12}, s.Stats().Samples())
}

func TestRoundMillis(t *testing.T) {
	assert.Equal(t, 12*time.Millisecond, roundMillis(12400*time.Microsecond))
	assert.Equal(t, 13*time.Millisecond, roundMillis(12600*time.Microsecond))
	assert.Equal(t, 12*time.Millisecond, roundMillis(12500*time.Microsecond))
	assert.Equal(t, 14*time.Millisecond, roundMillis(13500*time.Microsecond))
}

func TestAttempt_UnexpectedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame func(seq uint32) []byte
	}{
		{"wrong ack", func(seq uint32) []byte { return replyFrame(t, seq+2, netraw.FlagSYN|netraw.FlagACK) }},
		{"rst", func(seq uint32) []byte { return replyFrame(t, seq+1, netraw.FlagRST|netraw.FlagACK) }},
		{"own syn", func(seq uint32) []byte { return replyFrame(t, 0, netraw.FlagSYN) }},
		{"garbage", func(seq uint32) []byte { return []byte{0x45, 0x00, 0x01} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{respond: tt.frame}
			s := NewSession(conn, testSrc, testDst, testConfig(1))

			out := s.Attempt()
			assert.False(t, out.Matched)
			assert.True(t, out.Unexpected)
			assert.Equal(t, 1, s.Stats().Sent)
			assert.Equal(t, 0, s.Stats().Received)
		})
	}
}

func TestAttempt_SendError(t *testing.T) {
	conn := &fakeConn{sendErr: errors.New("network unreachable")}
	s := NewSession(conn, testSrc, testDst, testConfig(1))

	out := s.Attempt()
	assert.False(t, out.Matched)
	assert.Error(t, out.Err)
	assert.Equal(t, 0, s.Stats().Sent)
}

func TestRun_Count(t *testing.T) {
	var n int
	conn := &fakeConn{respond: func(seq uint32) []byte {
		n++
		if n%2 == 0 {
			return nil
		}
		return replyFrame(t, seq+1, netraw.FlagSYN|netraw.FlagACK)
	}}

	var outcomes []Outcome
	s := NewSession(conn, testSrc, testDst, testConfig(4), WithHandler(func(o Outcome) {
		outcomes = append(outcomes, o)
	}))

	stats := s.Run(context.Background())
	assert.Len(t, outcomes, 4)
	assert.Equal(t, 4, stats.Sent)
	assert.Equal(t, 2, stats.Received)
	assert.Equal(t, 50, stats.Loss())
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &fakeConn{}
	s := NewSession(conn, testSrc, testDst, testConfig(InfiniteCount))
	assert.Equal(t, 0, s.Run(ctx).Sent)

	ctx, cancel = context.WithCancel(context.Background())
	cfg := testConfig(InfiniteCount)
	cfg.Interval = time.Hour
	s = NewSession(conn, testSrc, testDst, cfg, WithHandler(func(Outcome) { cancel() }))

	done := make(chan *Stats)
	go func() { done <- s.Run(ctx) }()

	select {
	case stats := <-done:
		assert.Equal(t, 1, stats.Sent)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not observe cancellation during sleep")
	}
}

func TestOpen_RejectsConfigBeforeSocket(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code int
	}{
		{"port zero", Config{Host: "h", Port: 0, Count: 1, Timeout: time.Second, Interval: time.Second}, ExitNonPositive},
		{"port 65535", Config{Host: "h", Port: 65535, Count: 1, Timeout: time.Second, Interval: time.Second}, ExitPortRange},
		{"count zero", Config{Host: "h", Port: 80, Count: 0, Timeout: time.Second, Interval: time.Second}, ExitNonPositive},
		{"negative timeout", Config{Host: "h", Port: 80, Count: 1, Timeout: -time.Second, Interval: time.Second}, ExitNonPositive},
		{"zero interval", Config{Host: "h", Port: 80, Count: 1, Timeout: time.Second, Interval: 0}, ExitNonPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindConfiguration))
			assert.Equal(t, tt.code, ExitCodeOf(err))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig("example.com").Validate())

	cfg := DefaultConfig("example.com")
	cfg.Port = 1
	assert.NoError(t, cfg.Validate())
	cfg.Port = 65534
	assert.NoError(t, cfg.Validate())
	cfg.Port = 65539
	assert.ErrorIs(t, cfg.Validate(), ErrPortRange)
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCodeOf(nil))
	assert.Equal(t, 1, ExitCodeOf(errors.New("plain")))

	err := newError(KindResolution, ExitResolution, "resolve x", errors.New("no such host"))
	assert.Equal(t, ExitResolution, ExitCodeOf(err))
	assert.Equal(t, "resolve x: no such host", err.Error())
}

func TestOpen_Loopback(t *testing.T) {
	if os.Geteuid() != 0 || !netraw.Supported() {
		t.Skip("raw socket requires root on linux")
	}

	cfg := Config{Host: "127.0.0.1", Port: 9, Count: 1, Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	stats := s.Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Received)
}
