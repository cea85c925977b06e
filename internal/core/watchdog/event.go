package watchdog

import (
	"fmt"
	"sync"
	"time"
)

// EventKind 事件类型
type EventKind string

const (
	EventAlreadyOnline EventKind = "already_online" // 首次观测即在线，不是状态跳变
	EventOnline        EventKind = "online"         // Down -> Up
	EventOffline       EventKind = "offline"        // Up -> Down
)

// TransitionEvent 监视器检测到的事件
type TransitionEvent struct {
	Host     string    `json:"host"`
	Kind     EventKind `json:"kind"`
	Previous HostState `json:"previous,omitempty"`
	Current  HostState `json:"current"`
	At       time.Time `json:"at"`
}

// Message 投递给通知渠道的文本
func (e TransitionEvent) Message() string {
	switch e.Kind {
	case EventAlreadyOnline:
		return fmt.Sprintf("Host %s is online already", e.Host)
	case EventOnline:
		return fmt.Sprintf("Host: %s is online now", e.Host)
	default:
		return fmt.Sprintf("Host: %s is offline now", e.Host)
	}
}

// EventHistory 固定容量的事件环形缓冲
type EventHistory struct {
	mu     sync.Mutex
	events []TransitionEvent
	next   int
	full   bool
}

func NewEventHistory(capacity int) *EventHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventHistory{events: make([]TransitionEvent, capacity)}
}

func (h *EventHistory) Add(ev TransitionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[h.next] = ev
	h.next = (h.next + 1) % len(h.events)
	if h.next == 0 {
		h.full = true
	}
}

// List 按发生顺序返回事件 (旧的在前)
func (h *EventHistory) List() []TransitionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		out := make([]TransitionEvent, h.next)
		copy(out, h.events[:h.next])
		return out
	}
	out := make([]TransitionEvent, 0, len(h.events))
	out = append(out, h.events[h.next:]...)
	out = append(out, h.events[:h.next]...)
	return out
}
