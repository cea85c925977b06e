package reporter

import (
	"tcping/internal/core/probe"
)

// TabularData 是一个可以被渲染为表格的数据接口
// probe.Stats 和 AttemptLog 都实现了它
type TabularData interface {
	Headers() []string
	Rows() [][]string
}

// Reporter 定义探测结果的输出行为
type Reporter interface {
	// ReportAttempt 输出单次探测结果
	ReportAttempt(out probe.Outcome)
	// ReportStats 输出会话统计
	ReportStats(stats *probe.Stats) error
}

// MultiReporter 同时向多个目标输出 (e.g., Console + AttemptLog)
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{
		reporters: reporters,
	}
}

func (m *MultiReporter) ReportAttempt(out probe.Outcome) {
	for _, r := range m.reporters {
		r.ReportAttempt(out)
	}
}

func (m *MultiReporter) ReportStats(stats *probe.Stats) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.ReportStats(stats); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
