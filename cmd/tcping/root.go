/*
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tcping/internal/config"
	"tcping/internal/core/probe"
	"tcping/internal/pkg/logger"
)

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcping",
	Short: "tcping 基于 TCP SYN 的端口可达性探测工具",
	Long: `tcping 通过 Raw Socket 发送 TCP SYN 并匹配 SYN-ACK 来测量端口可达性和往返时间,
不完成三次握手。需要 root 权限 (或 CAP_NET_RAW)，仅支持 Linux。

示例:
  1.单次测量
	tcping ping example.com --port 443 --count 5
  2.持续监控主机上下线
	tcping watch example.com 10.0.0.1 --port 22
  3.查看生效配置
	tcping config dump --config ./configs/config.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRun: 全局初始化逻辑，确保所有子命令都能使用日志
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger(cmd)
	},
}

// Execute 执行命令，错误按类型映射为退出码
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] tcping crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(probe.ExitCodeOf(err))
	}
}

func init() {
	cobra.OnInitialize(initEnv)

	// 全局 Flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别 (debug, info, warn, error)")

	// 绑定 Viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// initEnv 加载 .env，已存在的环境变量不会被覆盖
func initEnv() {
	if err := config.NewEnvManager(config.DefaultEnvPrefix).LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}
}

// loadConfig 读取配置文件和环境变量，CLI 已绑定的 Flags 优先
func loadConfig() (*config.Config, error) {
	return config.NewConfigLoaderWithViper(viper.GetViper(), cfgFile).LoadConfig()
}

// initCLILogger 初始化 CLI 模式下的日志
// 单次探测默认只输出 Fatal，终端上只保留探测结果
func initCLILogger(cmd *cobra.Command) {
	flag := cmd.Flags().Lookup("log-level")
	level := "fatal"
	if flag != nil && flag.Changed {
		level = flag.Value.String()
	}

	switch level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	case "warn", "error", "fatal":
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	logConfig := &config.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stderr",
		Caller: false,
	}

	if _, err := logger.InitLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
	}
}
