package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置相关命令",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "以 YAML 输出合并默认值、配置文件和环境变量后的生效配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			if used := viperConfigFile(); used != "" {
				fmt.Printf("# source: %s\n", used)
			}
			fmt.Print(string(out))
			return nil
		},
	})

	return cmd
}

// viperConfigFile 实际读取的配置文件，未读取时为空
func viperConfigFile() string {
	return viper.ConfigFileUsed()
}
