package netraw

import (
	"fmt"
	"net"
)

// routeProbeAddr 仅用于让内核选出路由源地址，UDP connect 不会发出任何报文
const routeProbeAddr = "1.1.1.1:53"

// DiscoverSourceIP 获取本机出口 IPv4 地址
func DiscoverSourceIP() (net.IP, error) {
	conn, err := net.Dial("udp4", routeProbeAddr)
	if err != nil {
		return nil, fmt.Errorf("discover source ip: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, fmt.Errorf("discover source ip: unexpected local addr %v", conn.LocalAddr())
	}
	return addr.IP.To4(), nil
}
