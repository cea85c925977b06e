package options

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tcping/internal/core/probe"
)

// CountInfinite 命令行中表示无限次探测的取值
const CountInfinite = "inf"

// PingOptions 对应 ping 子命令的参数
// Timeout 和 Interval 以秒为单位，允许小数
type PingOptions struct {
	Host     string
	Port     int
	Count    string
	Timeout  float64
	Interval float64
	Output   OutputOptions
}

func NewPingOptions() *PingOptions {
	return &PingOptions{
		Port:     probe.DefaultPort,
		Count:    CountInfinite,
		Timeout:  probe.DefaultTimeout.Seconds(),
		Interval: probe.DefaultInterval.Seconds(),
	}
}

// ParseCount 解析次数，"inf" 表示无限
func ParseCount(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == CountInfinite {
		return probe.InfiniteCount, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: must be a number or %q", s, CountInfinite)
	}
	return n, nil
}

// Validate 校验参数，返回的 *probe.Error 携带退出码
func (o *PingOptions) Validate() error {
	if o.Host == "" {
		return fmt.Errorf("host is required")
	}
	cfg, err := o.ToConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// ToConfig 转换为探测会话配置
func (o *PingOptions) ToConfig() (probe.Config, error) {
	count, err := ParseCount(o.Count)
	if err != nil {
		return probe.Config{}, err
	}
	return probe.Config{
		Host:     o.Host,
		Port:     o.Port,
		Count:    count,
		Timeout:  seconds(o.Timeout),
		Interval: seconds(o.Interval),
	}, nil
}

// seconds 秒转为 time.Duration，正数最小取 1ms (poll 的精度)
func seconds(v float64) time.Duration {
	d := time.Duration(v * float64(time.Second))
	if v > 0 && d < time.Millisecond {
		return time.Millisecond
	}
	return d
}
