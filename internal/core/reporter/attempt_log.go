package reporter

import (
	"strconv"
	"sync"
	"time"

	"tcping/internal/core/probe"
)

// AttemptRecord 单次探测记录，用于导出
type AttemptRecord struct {
	Time    time.Time `json:"time"`
	Target  string    `json:"target"`
	Seq     uint32    `json:"seq"`
	Matched bool      `json:"matched"`
	RTTms   int64     `json:"rtt_ms"`
}

// AttemptLog 收集会话中的全部探测结果
type AttemptLog struct {
	mu      sync.Mutex
	records []AttemptRecord
	now     func() time.Time
}

func NewAttemptLog() *AttemptLog {
	return &AttemptLog{now: time.Now}
}

func (l *AttemptLog) ReportAttempt(out probe.Outcome) {
	rec := AttemptRecord{
		Time:    l.now(),
		Target:  out.Target.String(),
		Seq:     out.Seq,
		Matched: out.Matched,
		RTTms:   probe.NoSample,
	}
	if out.Matched {
		rec.RTTms = out.RTT.Milliseconds()
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
}

// ReportStats 无需处理，导出在会话结束后进行
func (l *AttemptLog) ReportStats(*probe.Stats) error {
	return nil
}

// Records 返回记录副本
func (l *AttemptLog) Records() []AttemptRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AttemptRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *AttemptLog) Headers() []string {
	return []string{"Time", "Target", "Seq", "Status", "RTT(ms)"}
}

func (l *AttemptLog) Rows() [][]string {
	records := l.Records()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "timeout"
		if rec.Matched {
			status = "ok"
		}
		rows = append(rows, []string{
			rec.Time.Format("2006-01-02 15:04:05.000"),
			rec.Target,
			strconv.FormatUint(uint64(rec.Seq), 10),
			status,
			strconv.FormatInt(rec.RTTms, 10),
		})
	}
	return rows
}
