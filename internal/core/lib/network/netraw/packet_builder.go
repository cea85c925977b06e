package netraw

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"
)

// TCP Flags
const (
	FlagFIN uint8 = 0x01
	FlagSYN uint8 = 0x02
	FlagRST uint8 = 0x04
	FlagPSH uint8 = 0x08
	FlagACK uint8 = 0x10
	FlagURG uint8 = 0x20
)

const (
	// TCPHeaderLen 不带 Options 的 TCP 头部长度
	TCPHeaderLen = 20
	// DefaultWindow 探测包通告的接收窗口
	DefaultWindow uint16 = 2048
	// ProtocolTCP IP 协议号
	ProtocolTCP = 6

	pseudoHeaderLen = 12
	dataOffsetByte  = (TCPHeaderLen / 4) << 4 // 0x50
)

// Endpoint 传输层端点 (IP + Port)
type Endpoint struct {
	IP   net.IP
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:[%d]", e.IP, e.Port)
}

// TCPReply 从接收帧中解析出的 TCP 头部关键字段
type TCPReply struct {
	Src     net.IP
	SrcPort int
	DstPort int
	Seq     uint32
	Ack     uint32
	Flags   uint8
}

// IsSynAck SYN 与 ACK 同时置位
func (r *TCPReply) IsSynAck() bool {
	return r.Flags&(FlagSYN|FlagACK) == FlagSYN|FlagACK
}

// BuildIPv4Packet 构建 IPv4 头部和负载
func BuildIPv4Packet(src, dst net.IP, protocol int, payload []byte) ([]byte, error) {
	header := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(payload),
		ID:       rand.Intn(65535),
		TTL:      64,
		Protocol: protocol,
		Src:      src,
		Dst:      dst,
	}

	h, err := header.Marshal()
	if err != nil {
		return nil, err
	}

	return append(h, payload...), nil
}

// Checksum 计算 16-bit One's Complement Checksum
// 按网络字节序累加 16 位字，奇数长度补零，进位反复折叠后取反
func Checksum(data []byte) uint16 {
	var (
		sum    uint32
		length = len(data)
		index  int
	)

	for length > 1 {
		sum += uint32(binary.BigEndian.Uint16(data[index:]))
		index += 2
		length -= 2
	}

	if length > 0 {
		sum += uint32(data[index]) << 8
	}

	for (sum >> 16) > 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}

	return uint16(^sum)
}

// VerifyChecksum 接收端校验: 含校验和字段在内的折叠和应为全 1
func VerifyChecksum(data []byte) bool {
	return Checksum(data) == 0
}

// PseudoHeader 构建 TCP 校验和使用的伪首部
func PseudoHeader(srcIP, dstIP net.IP, length int) ([]byte, error) {
	src, dst := srcIP.To4(), dstIP.To4()
	if src == nil || dst == nil {
		return nil, fmt.Errorf("pseudo header requires ipv4 addresses (src=%v dst=%v)", srcIP, dstIP)
	}

	ph := make([]byte, pseudoHeaderLen)
	copy(ph[0:4], src)
	copy(ph[4:8], dst)
	ph[8] = 0 // Reserved
	ph[9] = ProtocolTCP
	binary.BigEndian.PutUint16(ph[10:], uint16(length))
	return ph, nil
}

// BuildTCPSegment 构建不带 Options 和负载的 20 字节 TCP 头部，并写入校验和
func BuildTCPSegment(src, dst Endpoint, seq, ack uint32, flags uint8, window uint16) ([]byte, error) {
	ph, err := PseudoHeader(src.IP, dst.IP, TCPHeaderLen)
	if err != nil {
		return nil, err
	}

	h := make([]byte, TCPHeaderLen)
	binary.BigEndian.PutUint16(h[0:], uint16(src.Port))
	binary.BigEndian.PutUint16(h[2:], uint16(dst.Port))
	binary.BigEndian.PutUint32(h[4:], seq)
	binary.BigEndian.PutUint32(h[8:], ack)
	// Byte 12: Data Offset(4) | Reserved(4)
	// Byte 13: CWR | ECE | URG | ACK | PSH | RST | SYN | FIN
	h[12] = dataOffsetByte
	h[13] = flags
	binary.BigEndian.PutUint16(h[14:], window)
	// h[16:18] 校验和占位, h[18:20] Urgent Pointer = 0

	buf := make([]byte, 0, len(ph)+len(h))
	buf = append(buf, ph...)
	buf = append(buf, h...)
	binary.BigEndian.PutUint16(h[16:], Checksum(buf))

	return h, nil
}

// BuildSYNSegment 构建 SYN 探测包
func BuildSYNSegment(src, dst Endpoint, seq uint32) ([]byte, error) {
	return BuildTCPSegment(src, dst, seq, 0, FlagSYN, DefaultWindow)
}

// ParseTCPReply 解析 Raw Socket 读到的一帧 (IPv4 头 + TCP 头)
func ParseTCPReply(frame []byte) (*TCPReply, error) {
	packet := gopacket.NewPacket(frame, layers.LayerTypeIPv4, gopacket.NoCopy)

	ipLayer, _ := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if ipLayer == nil {
		return nil, fmt.Errorf("parse ipv4 header: %v", decodeError(packet))
	}
	if ipLayer.Protocol != layers.IPProtocolTCP {
		return nil, fmt.Errorf("unexpected ip protocol %d", ipLayer.Protocol)
	}

	tcp, _ := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if tcp == nil {
		return nil, fmt.Errorf("parse tcp header: %v", decodeError(packet))
	}

	return &TCPReply{
		Src:     ipLayer.SrcIP,
		SrcPort: int(tcp.SrcPort),
		DstPort: int(tcp.DstPort),
		Seq:     tcp.Seq,
		Ack:     tcp.Ack,
		Flags:   tcpFlags(tcp),
	}, nil
}

func decodeError(packet gopacket.Packet) error {
	if el := packet.ErrorLayer(); el != nil {
		return el.Error()
	}
	return fmt.Errorf("layer missing")
}

func tcpFlags(tcp *layers.TCP) uint8 {
	var f uint8
	for _, b := range []struct {
		set  bool
		flag uint8
	}{
		{tcp.FIN, FlagFIN}, {tcp.SYN, FlagSYN}, {tcp.RST, FlagRST},
		{tcp.PSH, FlagPSH}, {tcp.ACK, FlagACK}, {tcp.URG, FlagURG},
	} {
		if b.set {
			f |= b.flag
		}
	}
	return f
}
