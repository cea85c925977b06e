package probe

import (
	"math"
	"time"
)

const (
	// InfiniteCount 无限次探测
	InfiniteCount = math.MaxInt

	// MaxPort 允许的最大端口 (65535 不可用)
	MaxPort = 65534

	DefaultPort     = 80
	DefaultTimeout  = 500 * time.Millisecond
	DefaultInterval = 500 * time.Millisecond
)

// Config 一次探测会话的参数，由调用方持有
type Config struct {
	Host     string
	Port     int
	Count    int
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultConfig 与命令行默认值一致
func DefaultConfig(host string) Config {
	return Config{
		Host:     host,
		Port:     DefaultPort,
		Count:    InfiniteCount,
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
	}
}

// Validate 在创建任何 Socket 之前校验参数
// 先检查正数约束 (退出码 2)，再检查端口范围 (退出码 3)
func (c Config) Validate() error {
	if c.Port <= 0 || c.Count <= 0 || c.Timeout <= 0 || c.Interval <= 0 {
		return newError(KindConfiguration, ExitNonPositive, "", ErrNonPositive)
	}
	if c.Port > MaxPort {
		return newError(KindConfiguration, ExitPortRange, "", ErrPortRange)
	}
	return nil
}
