package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"tcping/internal/config"
	"tcping/internal/core/options"
	"tcping/internal/core/probe"
	"tcping/internal/core/reporter"
)

// newPingCmd 单次测量: 发送 count 个 SYN，打印逐次结果和统计表
func newPingCmd() *cobra.Command {
	opts := options.NewPingOptions()

	cmd := &cobra.Command{
		Use:   "ping <host>",
		Short: "对目标端口进行 SYN 探测并输出延迟/丢包统计",
		Long: `对目标端口持续发送 TCP SYN，收到匹配的 SYN-ACK 视为成功。
Ctrl-C 结束时输出已收集的统计信息，退出码为 0。

退出码:
  1 平台不支持   2 参数非正数   3 端口超出范围
  4 无法创建 Raw Socket   5 域名解析失败`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Host = args[0]
			if cfg, err := loadConfig(); err == nil {
				applyProbeDefaults(cmd, opts, cfg.Probe)
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return runPing(opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.Port, "port", "p", opts.Port, "目标端口")
	flags.Float64VarP(&opts.Timeout, "timeout", "t", opts.Timeout, "等待响应的超时 (秒)")
	flags.StringVarP(&opts.Count, "count", "c", opts.Count, "探测次数 (inf 表示无限)")
	flags.Float64VarP(&opts.Interval, "interval", "i", opts.Interval, "探测间隔 (秒)")
	flags.StringVar(&opts.Output.OutputJson, "output-json", "", "将统计和逐次结果保存为 JSON")
	flags.StringVar(&opts.Output.OutputCsv, "output-csv", "", "将逐次结果保存为 CSV")

	return cmd
}

// applyProbeDefaults 未显式指定的参数使用配置文件中的值
func applyProbeDefaults(cmd *cobra.Command, opts *options.PingOptions, pc *config.ProbeConfig) {
	if pc == nil {
		return
	}
	flags := cmd.Flags()
	if !flags.Changed("port") && pc.Port > 0 {
		opts.Port = pc.Port
	}
	if !flags.Changed("timeout") && pc.Timeout > 0 {
		opts.Timeout = pc.Timeout.Seconds()
	}
	if !flags.Changed("interval") && pc.Interval > 0 {
		opts.Interval = pc.Interval.Seconds()
	}
	if !flags.Changed("count") && pc.Count > 0 {
		opts.Count = strconv.Itoa(pc.Count)
	}
}

func runPing(opts *options.PingOptions) error {
	cfg, err := opts.ToConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := reporter.NewConsoleReporter()
	attempts := reporter.NewAttemptLog()
	rep := reporter.NewMultiReporter(console)
	if opts.Output.Enabled() {
		rep = reporter.NewMultiReporter(console, attempts)
	}

	session, err := probe.Open(ctx, cfg, probe.WithHandler(rep.ReportAttempt))
	if err != nil {
		return err
	}
	defer session.Close()

	stats := session.Run(ctx)
	if err := rep.ReportStats(stats); err != nil {
		pterm.Warning.Println(err)
	}

	if opts.Output.OutputJson != "" {
		report := &reporter.SessionReport{
			Target:   session.Target().String(),
			Summary:  stats.Summary(),
			Attempts: attempts.Records(),
		}
		if err := reporter.SaveJsonResult(opts.Output.OutputJson, report); err != nil {
			pterm.Error.Println(err)
		} else {
			pterm.Success.Printf("Results saved to %s\n", opts.Output.OutputJson)
		}
	}
	if opts.Output.OutputCsv != "" {
		if err := reporter.SaveCsvResult(opts.Output.OutputCsv, attempts); err != nil {
			pterm.Error.Println(err)
		} else {
			pterm.Success.Printf("Results saved to %s\n", opts.Output.OutputCsv)
		}
	}
	return nil
}
