package reporter

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"

	"tcping/internal/core/probe"
)

// ConsoleReporter 控制台输出
type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterWithWriter 输出到指定 Writer (测试用)
func NewConsoleReporterWithWriter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// ReportAttempt 打印单次探测的状态行
func (r *ConsoleReporter) ReportAttempt(out probe.Outcome) {
	if out.Matched {
		fmt.Fprintf(r.out, "OK! Got response from %s : seq = %d, time = %dms\n",
			out.Target, out.Seq, out.RTT.Milliseconds())
		return
	}
	fmt.Fprintf(r.out, "Unable to get a response from target host: %s\n", out.Target)
}

// ReportStats 打印统计表格
func (r *ConsoleReporter) ReportStats(stats *probe.Stats) error {
	fmt.Fprintln(r.out)
	return r.printTable(stats)
}

func (r *ConsoleReporter) printTable(data TabularData) error {
	return r.printTableFromData(data.Headers(), data.Rows())
}

func (r *ConsoleReporter) printTableFromData(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)

	err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(true).
		WithWriter(r.out).
		WithData(tableData).
		Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
