package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix 环境变量前缀
const DefaultEnvPrefix = "TCPING"

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configPath string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
// configPath 可以是配置文件，也可以是配置目录
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// NewConfigLoaderWithViper 使用外部 viper 实例 (CLI 已绑定 Flags)
func NewConfigLoaderWithViper(v *viper.Viper, configPath string) *ConfigLoader {
	cl := NewConfigLoader(configPath, "")
	cl.viper = v
	return cl
}

// Viper 返回底层 viper 实例
func (cl *ConfigLoader) Viper() *viper.Viper {
	return cl.viper
}

// LoadConfig 加载配置
// 配置文件不存在时使用默认值 + 环境变量
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.viper.AutomaticEnv()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		if envPath := os.Getenv(cl.envPrefix + "_CONFIG_PATH"); envPath != "" {
			cl.configPath = envPath
		}
	}

	// 显式指定文件时必须存在
	if info, err := os.Stat(cl.configPath); err == nil && !info.IsDir() {
		cl.viper.SetConfigFile(cl.configPath)
		return cl.viper.ReadInConfig()
	} else if cl.configPath != "" && err != nil {
		return fmt.Errorf("config file %s: %w", cl.configPath, err)
	}

	if cl.configPath != "" {
		cl.viper.AddConfigPath(cl.configPath)
	}
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")

	// 先尝试环境特定的配置文件
	cl.viper.SetConfigName(fmt.Sprintf("config.%s", cl.getEnvironment()))
	err := cl.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	cl.viper.SetConfigName("config")
	err = cl.viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// GetConfigPath 返回实际使用的配置文件
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// getEnvironment 获取运行环境
func (cl *ConfigLoader) getEnvironment() string {
	env := os.Getenv(cl.envPrefix + "_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development"
	}
	return env
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "tcping")
	cl.viper.SetDefault("app.environment", "development")
	cl.viper.SetDefault("app.debug", false)

	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.file_path", "./logs/tcping.log")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 5)
	cl.viper.SetDefault("log.max_age", 30)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", false)

	cl.viper.SetDefault("probe.port", 80)
	cl.viper.SetDefault("probe.timeout", "500ms")
	cl.viper.SetDefault("probe.interval", "500ms")
	cl.viper.SetDefault("probe.count", 0)

	cl.viper.SetDefault("watchdog.timeout", "500ms")
	cl.viper.SetDefault("watchdog.interval", "5s")
	cl.viper.SetDefault("watchdog.survey_interval", "1s")
	cl.viper.SetDefault("watchdog.event_history", 100)
	cl.viper.SetDefault("watchdog.hot_reload", true)

	cl.viper.SetDefault("notify.log", true)
	cl.viper.SetDefault("notify.webhook.timeout", "10s")
	cl.viper.SetDefault("notify.webhook.max_retries", 3)
	cl.viper.SetDefault("notify.webhook.retry_delay", "2s")
	cl.viper.SetDefault("notify.redis_pubsub.channel", "tcping:events")

	cl.viper.SetDefault("store.type", "memory")
	cl.viper.SetDefault("store.redis.addr", "127.0.0.1:6379")
	cl.viper.SetDefault("store.redis.db", 0)
	cl.viper.SetDefault("store.redis.key_prefix", "tcping:state:")
	cl.viper.SetDefault("store.redis.dial_timeout", "5s")

	cl.viper.SetDefault("server.enabled", false)
	cl.viper.SetDefault("server.host", "127.0.0.1")
	cl.viper.SetDefault("server.port", 8787)
	cl.viper.SetDefault("server.mode", "release")
}

// validateConfig 验证配置
func (cl *ConfigLoader) validateConfig(config *Config) error {
	if config.Watchdog == nil || config.Probe == nil || config.Store == nil {
		return fmt.Errorf("incomplete config")
	}

	if config.Watchdog.Timeout <= 0 || config.Watchdog.Interval <= 0 || config.Watchdog.SurveyInterval <= 0 {
		return fmt.Errorf("watchdog timeout, interval and survey_interval must be positive")
	}

	for _, t := range config.Watchdog.Targets {
		if t.Host == "" {
			return fmt.Errorf("watchdog target without host")
		}
		if t.Port < 1 || t.Port >= 65535 {
			return fmt.Errorf("watchdog target %s: port %d out of range", t.Host, t.Port)
		}
	}

	switch strings.ToLower(config.Store.Type) {
	case "memory":
	case "redis":
		if config.Store.Redis == nil || config.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for redis store")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", config.Store.Type)
	}

	if config.Server != nil && config.Server.Enabled && (config.Server.Port <= 0 || config.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	return nil
}
