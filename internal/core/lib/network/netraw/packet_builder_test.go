package netraw

import (
	"encoding/binary"
	"encoding/hex"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_FixedVector(t *testing.T) {
	pseudo, _ := hex.DecodeString("ac1dd2acb2f8e92100060014")
	header, _ := hex.DecodeString("c0030050000001a40000000050020800")

	data := append(append([]byte{}, pseudo...), header...)
	// 按网络字节序求和得 0xcb06；按小端主机序读同一组字节则是 0x06cb (1739)，线上字节相同
	assert.Equal(t, uint16(0xcb06), Checksum(data))
	assert.Equal(t, []byte{0xcb, 0x06}, binary.BigEndian.AppendUint16(nil, Checksum(data)))
	assert.Equal(t, uint16(1739), binary.LittleEndian.Uint16(binary.BigEndian.AppendUint16(nil, Checksum(data))))

	// 末字节为 0, 去掉后奇数长度补零, 结果不变
	assert.Equal(t, Checksum(data), Checksum(data[:len(data)-1]))
}

func TestChecksum_FoldsCarries(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0xffff},
		{"single word", []byte{0x00, 0x01}, 0xfffe},
		{"carry", []byte{0xff, 0xff, 0x00, 0x01}, 0xfffe},
		{"odd length", []byte{0x01}, 0xfeff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.data))
		})
	}
}

func TestBuildSYNSegment_Golden(t *testing.T) {
	src := Endpoint{IP: net.ParseIP("172.22.90.211"), Port: 49155}
	dst := Endpoint{IP: net.ParseIP("178.248.233.33"), Port: 80}

	seg, err := BuildSYNSegment(src, dst, 420)
	require.NoError(t, err)

	want := []byte{
		0xc0, 0x03, 0x00, 0x50, 0x00, 0x00, 0x01, 0xa4, 0x00, 0x00,
		0x00, 0x00, 0x50, 0x02, 0x08, 0x00, 0x42, 0xe7, 0x00, 0x00,
	}
	assert.Equal(t, want, seg)
	assert.Len(t, seg, TCPHeaderLen)
}

func TestBuildSYNSegment_ReceiverChecksum(t *testing.T) {
	src := Endpoint{IP: net.ParseIP("10.0.0.2"), Port: 50000}
	dst := Endpoint{IP: net.ParseIP("93.184.216.34"), Port: 443}

	for _, seq := range []uint32{0, 1, 420, 1234567} {
		seg, err := BuildSYNSegment(src, dst, seq)
		require.NoError(t, err)

		ph, err := PseudoHeader(src.IP, dst.IP, len(seg))
		require.NoError(t, err)
		assert.True(t, VerifyChecksum(append(ph, seg...)), "seq=%d", seq)
		assert.Equal(t, seq, binary.BigEndian.Uint32(seg[4:]))
		assert.Equal(t, FlagSYN, seg[13])
	}
}

func TestBuildTCPSegment_RejectsIPv6(t *testing.T) {
	src := Endpoint{IP: net.ParseIP("::1"), Port: 50000}
	dst := Endpoint{IP: net.ParseIP("127.0.0.1"), Port: 80}

	_, err := BuildSYNSegment(src, dst, 1)
	assert.Error(t, err)
}

func TestParseTCPReply(t *testing.T) {
	local := Endpoint{IP: net.ParseIP("10.0.0.2").To4(), Port: 50000}
	remote := Endpoint{IP: net.ParseIP("10.0.0.9").To4(), Port: 80}

	seg, err := BuildTCPSegment(remote, local, 777, 421, FlagSYN|FlagACK, 65535)
	require.NoError(t, err)
	frame, err := BuildIPv4Packet(remote.IP, local.IP, ProtocolTCP, seg)
	require.NoError(t, err)

	reply, err := ParseTCPReply(frame)
	require.NoError(t, err)
	assert.True(t, reply.IsSynAck())
	assert.Equal(t, uint32(421), reply.Ack)
	assert.Equal(t, uint32(777), reply.Seq)
	assert.Equal(t, 80, reply.SrcPort)
	assert.Equal(t, 50000, reply.DstPort)
	assert.True(t, reply.Src.Equal(remote.IP))
}

func TestParseTCPReply_Malformed(t *testing.T) {
	_, err := ParseTCPReply([]byte{0x45, 0x00})
	assert.Error(t, err)

	udp, err := BuildIPv4Packet(net.IPv4(1, 1, 1, 1), net.IPv4(2, 2, 2, 2), 17, make([]byte, 8))
	require.NoError(t, err)
	_, err = ParseTCPReply(udp)
	assert.Error(t, err)
}

func TestParseTCPReply_Flags(t *testing.T) {
	local := Endpoint{IP: net.ParseIP("10.0.0.2").To4(), Port: 50000}
	remote := Endpoint{IP: net.ParseIP("10.0.0.9").To4(), Port: 443}

	for _, flags := range []uint8{FlagSYN, FlagRST | FlagACK, FlagFIN | FlagPSH | FlagACK, FlagSYN | FlagACK | FlagURG} {
		seg, err := BuildTCPSegment(remote, local, 1, 2, flags, 1024)
		require.NoError(t, err)
		frame, err := BuildIPv4Packet(remote.IP, local.IP, ProtocolTCP, seg)
		require.NoError(t, err)

		reply, err := ParseTCPReply(frame)
		require.NoError(t, err)
		assert.Equal(t, flags, reply.Flags)
	}
}

func TestParseTCPReply_TruncatedTCP(t *testing.T) {
	frame, err := BuildIPv4Packet(net.IPv4(1, 1, 1, 1), net.IPv4(2, 2, 2, 2), ProtocolTCP, make([]byte, 6))
	require.NoError(t, err)
	_, err = ParseTCPReply(frame)
	assert.Error(t, err)
}

func TestTCPReply_IsSynAck(t *testing.T) {
	assert.True(t, (&TCPReply{Flags: 0x12}).IsSynAck())
	assert.False(t, (&TCPReply{Flags: FlagRST | FlagACK}).IsSynAck())
	assert.False(t, (&TCPReply{Flags: FlagSYN}).IsSynAck())
}
