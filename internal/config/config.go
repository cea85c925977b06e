/**
 * tcping 配置定义
 * @description: 探测、Watchdog、通知、状态存储、HTTP 服务等全部配置项
 */
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	// 应用配置
	App *AppConfig `yaml:"app" mapstructure:"app"`

	// 日志配置
	Log *LogConfig `yaml:"log" mapstructure:"log"`

	// 单次探测默认参数
	Probe *ProbeConfig `yaml:"probe" mapstructure:"probe"`

	// Watchdog 配置
	Watchdog *WatchdogConfig `yaml:"watchdog" mapstructure:"watchdog"`

	// 通知配置
	Notify *NotifyConfig `yaml:"notify" mapstructure:"notify"`

	// 主机状态存储配置
	Store *StoreConfig `yaml:"store" mapstructure:"store"`

	// HTTP 状态服务配置
	Server *ServerConfig `yaml:"server" mapstructure:"server"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 调试模式
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error/fatal)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// ProbeConfig 单次探测默认参数 (命令行参数优先)
type ProbeConfig struct {
	Port     int           `yaml:"port" mapstructure:"port"`         // 目标端口
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`   // 单次等待响应超时
	Interval time.Duration `yaml:"interval" mapstructure:"interval"` // 两次探测间隔
	Count    int           `yaml:"count" mapstructure:"count"`       // 探测次数 (0 表示无限)
}

// WatchTarget Watchdog 监控目标
type WatchTarget struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// WatchdogConfig Watchdog 配置
type WatchdogConfig struct {
	Targets        []WatchTarget `yaml:"targets" mapstructure:"targets"`                 // 监控目标
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`                 // 每次探测超时
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`               // 每次探测间隔
	SurveyInterval time.Duration `yaml:"survey_interval" mapstructure:"survey_interval"` // Monitor 轮询间隔
	EventHistory   int           `yaml:"event_history" mapstructure:"event_history"`     // 保留的状态变更事件数
	HotReload      bool          `yaml:"hot_reload" mapstructure:"hot_reload"`           // 配置文件变更时追加新目标
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Destination string         `yaml:"destination" mapstructure:"destination"` // 通知目标 (对通知方不透明的频道 ID)
	Log         bool           `yaml:"log" mapstructure:"log"`                 // 是否写入日志
	Webhook     *WebhookConfig `yaml:"webhook" mapstructure:"webhook"`         // Webhook 通知
	RedisPubSub *PubSubConfig  `yaml:"redis_pubsub" mapstructure:"redis_pubsub"`
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	URL        string        `yaml:"url" mapstructure:"url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// PubSubConfig Redis 发布通知配置
type PubSubConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// StoreConfig 主机状态存储配置
type StoreConfig struct {
	Type  string       `yaml:"type" mapstructure:"type"` // memory / redis
	Redis *RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	Password    string        `yaml:"password" mapstructure:"password"`
	DB          int           `yaml:"db" mapstructure:"db"`
	KeyPrefix   string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// ServerConfig HTTP 状态服务配置
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"` // 是否启用
	Host    string `yaml:"host" mapstructure:"host"`       // 监听地址
	Port    int    `yaml:"port" mapstructure:"port"`       // 监听端口
	Mode    string `yaml:"mode" mapstructure:"mode"`       // gin 运行模式 (debug/release/test)
}

// Addr 监听地址
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Dump 以 YAML 格式输出当前配置
func (c *Config) Dump() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
