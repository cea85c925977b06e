package qos

import (
	"sync"
	"time"
)

const (
	defaultInitialRTO = 1 * time.Second        // 初始超时 (RTO)
	minRTO            = 100 * time.Millisecond // 最小 RTO
	maxRTO            = 10 * time.Second       // 最大 RTO
	alpha             = 0.125                  // 平滑因子 1/8 (RFC 6298)
	beta              = 0.25                   // 偏差因子 1/4 (RFC 6298)
)

// RttSnapshot 估算器某一时刻的状态
type RttSnapshot struct {
	SRTT    time.Duration `json:"srtt"`
	RTTVar  time.Duration `json:"rttvar"`
	RTO     time.Duration `json:"rto"`
	Samples int           `json:"samples"`
}

// RttEstimator 按 RFC 6298 平滑单个主机的往返时间
// Watchdog 为每个主机维护一个实例，供状态接口展示链路质量
type RttEstimator struct {
	mu      sync.RWMutex
	srtt    time.Duration
	rttvar  time.Duration
	rto     time.Duration
	samples int
}

// NewRttEstimator 创建一个新的 RTT 估算器
func NewRttEstimator() *RttEstimator {
	return &RttEstimator{
		rto: defaultInitialRTO,
	}
}

// Update 根据一次成功探测的 RTT 更新估算状态
func (e *RttEstimator) Update(rtt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.samples == 0 {
		// RFC 6298 2.2: SRTT <- R, RTTVAR <- R/2
		e.srtt = rtt
		e.rttvar = rtt / 2
	} else {
		// RFC 6298 2.3
		delta := e.srtt - rtt
		if delta < 0 {
			delta = -delta
		}
		e.rttvar = time.Duration((1-beta)*float64(e.rttvar) + beta*float64(delta))
		e.srtt = time.Duration((1-alpha)*float64(e.srtt) + alpha*float64(rtt))
	}
	e.samples++

	// RTO <- SRTT + 4*RTTVAR, 时钟粒度 G 忽略
	e.rto = e.srtt + 4*e.rttvar
	if e.rto < minRTO {
		e.rto = minRTO
	} else if e.rto > maxRTO {
		e.rto = maxRTO
	}
}

// Snapshot 返回当前状态的副本
func (e *RttEstimator) Snapshot() RttSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return RttSnapshot{
		SRTT:    e.srtt,
		RTTVar:  e.rttvar,
		RTO:     e.rto,
		Samples: e.samples,
	}
}
