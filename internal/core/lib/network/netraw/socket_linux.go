//go:build linux
// +build linux

package netraw

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// RawSocket 封装 Linux 下的 Raw Socket 操作
// 不设置 IP_HDRINCL: 发送时只提供 TCP 头部，IP 头部由内核填充；
// 接收到的帧包含 IP 头部。
type RawSocket struct {
	fd       int
	protocol int
}

// NewRawSocket 创建一个新的 Raw Socket (需要 root 或 CAP_NET_RAW)
// protocol: 协议号 (e.g., unix.IPPROTO_TCP)
func NewRawSocket(protocol int) (*RawSocket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, protocol)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw socket: %w", err)
	}

	return &RawSocket{
		fd:       fd,
		protocol: protocol,
	}, nil
}

// Close 关闭 Socket
func (s *RawSocket) Close() error {
	return unix.Close(s.fd)
}

// BindRandomPort 在 [low, high] 范围内随机挑选端口绑定，直到成功
// 返回选中的端口，作为探测包的源端口
func (s *RawSocket) BindRandomPort(low, high int) (int, error) {
	if low <= 0 || high < low || high > 65535 {
		return 0, fmt.Errorf("invalid port range [%d, %d]", low, high)
	}

	attempts := high - low + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		port := low + rand.Intn(high-low+1)
		if err := unix.Bind(s.fd, &unix.SockaddrInet4{Port: port}); err != nil {
			lastErr = err
			continue
		}
		return port, nil
	}
	return 0, fmt.Errorf("no bindable port in [%d, %d]: %w", low, high, lastErr)
}

// Send 发送 TCP 段
// Raw Socket 会忽略端口，这里仍然填入目标端口
func (s *RawSocket) Send(dst net.IP, port int, segment []byte) error {
	ip4 := dst.To4()
	if ip4 == nil {
		return fmt.Errorf("destination %v is not ipv4", dst)
	}

	addr := unix.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip4)

	if err := unix.Sendto(s.fd, segment, 0, &addr); err != nil {
		return fmt.Errorf("sendto failed: %w", err)
	}
	return nil
}

// WaitReadable 阻塞等待 Socket 可读，最长 timeout
// 返回 false 表示超时
func (s *RawSocket) WaitReadable(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}

	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}

		// 向上取整，亚毫秒的剩余时间不会变成非阻塞的 poll(0)
		ms := int((remaining + time.Millisecond - 1) / time.Millisecond)
		n, err := unix.Poll(fds, ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll failed: %w", err)
		}
		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

// Receive 读取一帧
// 返回: 读取的字节数, 来源 IP, 错误
func (s *RawSocket) Receive(buffer []byte) (int, net.IP, error) {
	n, from, err := unix.Recvfrom(s.fd, buffer, 0)
	if err != nil {
		return 0, nil, err
	}

	var srcIP net.IP
	if addr, ok := from.(*unix.SockaddrInet4); ok {
		srcIP = net.IP(addr.Addr[:])
	}

	return n, srcIP, nil
}

// Supported 当前平台是否支持 Raw Socket 探测
func Supported() bool {
	return true
}
