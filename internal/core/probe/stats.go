package probe

import (
	"math"
	"strconv"
)

// NoSample 没有样本时 Avg/Min/Max 的取值
const NoSample = -1

// Stats 单个会话的统计信息，归会话所有，不跨会话共享
type Stats struct {
	samples  []int64 // 往返时间，毫秒
	Sent     int
	Received int
}

// NewStats 创建空统计
func NewStats() *Stats {
	return &Stats{}
}

// RecordSent 记录一次发送
func (s *Stats) RecordSent() {
	s.Sent++
}

// RecordMatch 记录一次成功匹配
func (s *Stats) RecordMatch(rttMillis int64) {
	s.Received++
	s.samples = append(s.samples, rttMillis)
}

// Samples 返回样本副本
func (s *Stats) Samples() []int64 {
	out := make([]int64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Average 平均往返时间，取整到毫秒，恰好 .5 时取偶数
func (s *Stats) Average() int64 {
	if s.Received == 0 {
		return NoSample
	}
	var sum int64
	for _, v := range s.samples {
		sum += v
	}
	return int64(math.RoundToEven(float64(sum) / float64(s.Received)))
}

// Min 最小往返时间
func (s *Stats) Min() int64 {
	if len(s.samples) == 0 {
		return NoSample
	}
	m := s.samples[0]
	for _, v := range s.samples[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max 最大往返时间
func (s *Stats) Max() int64 {
	if len(s.samples) == 0 {
		return NoSample
	}
	m := s.samples[0]
	for _, v := range s.samples[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Loss 丢包率 (整数百分比)
func (s *Stats) Loss() int {
	if s.Sent == 0 {
		return 0
	}
	return 100 * (s.Sent - s.Received) / s.Sent
}

// Summary 可序列化的统计摘要
type Summary struct {
	Average  int64   `json:"avg_ms"`
	Min      int64   `json:"min_ms"`
	Max      int64   `json:"max_ms"`
	Sent     int     `json:"sent"`
	Received int     `json:"received"`
	Loss     int     `json:"loss_percent"`
	Samples  []int64 `json:"samples_ms"`
}

// Summary 生成摘要
func (s *Stats) Summary() Summary {
	return Summary{
		Average:  s.Average(),
		Min:      s.Min(),
		Max:      s.Max(),
		Sent:     s.Sent,
		Received: s.Received,
		Loss:     s.Loss(),
		Samples:  s.Samples(),
	}
}

// Headers 实现 reporter.TabularData
func (s *Stats) Headers() []string {
	return []string{"Avg", "Min", "Max", "Sent", "Received", "Packet loss"}
}

// Rows 实现 reporter.TabularData
func (s *Stats) Rows() [][]string {
	return [][]string{{
		strconv.FormatInt(s.Average(), 10) + "ms",
		strconv.FormatInt(s.Min(), 10) + "ms",
		strconv.FormatInt(s.Max(), 10) + "ms",
		strconv.Itoa(s.Sent),
		strconv.Itoa(s.Received),
		strconv.Itoa(s.Loss()) + "%",
	}}
}
