package watchdog

import (
	"context"
	"sync"
)

// HostState 主机可达状态，取值与持久化内容一致
type HostState string

const (
	StateDown HostState = "0" // 未收到匹配的 SYN-ACK
	StateUp   HostState = "1" // 收到匹配的 SYN-ACK
)

// StateFromMatch 探测结果转换为状态
func StateFromMatch(matched bool) HostState {
	if matched {
		return StateUp
	}
	return StateDown
}

// Valid 是否为合法取值
func (s HostState) Valid() bool {
	return s == StateDown || s == StateUp
}

func (s HostState) String() string {
	switch s {
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	default:
		return "unknown"
	}
}

// StateStore 按解析后的 IP 存放每个主机的状态
// 每个 key 只有一个写者 (对应的 Daemon) 和一个读者 (Monitor)，最后一次写入胜出
type StateStore interface {
	Set(ctx context.Context, key string, state HostState) error
	// Get 返回 ok=false 表示状态不存在
	Get(ctx context.Context, key string) (HostState, bool, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore 进程内状态存储 (默认)
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]HostState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]HostState)}
}

func (s *MemoryStore) Set(ctx context.Context, key string, state HostState) error {
	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (HostState, bool, error) {
	s.mu.RLock()
	state, ok := s.states[key]
	s.mu.RUnlock()
	return state, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
	return nil
}

// Len 当前存储的主机数
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
