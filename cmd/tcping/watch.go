/*
 * @description: Watchdog 模式子命令
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	appwatchdog "tcping/internal/app/watchdog"
	"tcping/internal/config"
	"tcping/internal/pkg/logger"
)

// shutdownGrace 关闭流程在 timeout+interval 之外额外允许的时间
const shutdownGrace = 5 * time.Second

type watchFlags struct {
	port        int
	destination string
	listen      bool
	store       string
}

func newWatchCmd() *cobra.Command {
	f := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch [host...]",
		Short: "持续监控主机上下线并发送通知",
		Long: `以守护方式为每个主机启动一个探测循环，并由监视器每秒检查一次状态,
主机上线/下线时通过配置的通知渠道 (日志/Webhook/Redis) 发送消息。

命令行中的主机会追加到配置文件 watchdog.targets 之后。

示例:
  tcping watch example.com 10.0.0.1 --port 22 --destination ops
  tcping watch --config ./configs/config.yaml --listen`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyWatchFlags(cmd, cfg, f, args)
			if len(cfg.Watchdog.Targets) == 0 {
				return fmt.Errorf("no hosts to watch: pass hosts as arguments or set watchdog.targets")
			}
			initServiceLogger(cmd, cfg.Log)
			return runWatch(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.port, "port", "p", 80, "命令行主机的目标端口")
	flags.StringVarP(&f.destination, "destination", "d", "", "通知目标 (覆盖 notify.destination)")
	flags.BoolVar(&f.listen, "listen", false, "启用 HTTP 状态接口 (覆盖 server.enabled)")
	flags.StringVar(&f.store, "store", "", "状态存储 memory/redis (覆盖 store.type)")

	return cmd
}

func applyWatchFlags(cmd *cobra.Command, cfg *config.Config, f *watchFlags, hosts []string) {
	for _, h := range hosts {
		cfg.Watchdog.Targets = append(cfg.Watchdog.Targets, config.WatchTarget{Host: h, Port: f.port})
	}
	if f.destination != "" {
		cfg.Notify.Destination = f.destination
	}
	if cmd.Flags().Changed("listen") {
		cfg.Server.Enabled = f.listen
	}
	if f.store != "" {
		cfg.Store.Type = f.store
	}
}

// initServiceLogger 常驻模式使用配置文件中的日志设置，--log-level 优先
func initServiceLogger(cmd *cobra.Command, lc *config.LogConfig) {
	if lc == nil {
		return
	}
	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
		lc.Level = flag.Value.String()
	}
	if _, err := logger.InitLogger(lc); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
	}
}

func runWatch(cfg *config.Config) error {
	ctx := context.Background()

	app, err := appwatchdog.NewApp(ctx, cfg, viperConfigFile())
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		app.Stop(ctx)
		return err
	}
	pterm.Success.Printf("Watching %d host(s)\n", len(app.Watchdog().Keys()))

	// 等待中断信号以优雅地关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pterm.Info.Println("Started graceful shutdown")

	stopCtx, cancel := context.WithTimeout(ctx, cfg.Watchdog.Timeout+cfg.Watchdog.Interval+shutdownGrace)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}

	pterm.Info.Println("Done!")
	return nil
}
