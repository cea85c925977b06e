//go:build !linux

package netraw

import (
	"fmt"
	"net"
	"runtime"
	"time"
)

// 非 Linux 平台占位实现
// Darwin 需要 BPF，Windows 的 Winsock2 限制了 TCP Raw Socket，均不支持

type RawSocket struct{}

func NewRawSocket(protocol int) (*RawSocket, error) {
	return nil, fmt.Errorf("raw socket not supported on %s", runtime.GOOS)
}

func (s *RawSocket) Close() error {
	return nil
}

func (s *RawSocket) BindRandomPort(low, high int) (int, error) {
	return 0, fmt.Errorf("not supported")
}

func (s *RawSocket) Send(dst net.IP, port int, segment []byte) error {
	return fmt.Errorf("not supported")
}

func (s *RawSocket) WaitReadable(timeout time.Duration) (bool, error) {
	return false, fmt.Errorf("not supported")
}

func (s *RawSocket) Receive(buffer []byte) (int, net.IP, error) {
	return 0, nil, fmt.Errorf("not supported")
}

func Supported() bool {
	return false
}
