// 日志管理器
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"tcping/internal/config"
)

// TimestampFormat 日志时间格式，毫秒精度
const TimestampFormat = "2006-01-02 15:04:05.000"

// 日志级别别名，调用方无需直接引入 logrus
const (
	InfoLevel = logrus.InfoLevel
	WarnLevel = logrus.WarnLevel
)

// LoggerManager 日志管理器
type LoggerManager struct {
	logger *logrus.Logger
}

// LoggerInstance 全局日志实例，未初始化时所有辅助函数静默
var LoggerInstance *LoggerManager

// InitLogger 按配置创建 logrus 实例并设为全局实例
// 非法级别回退到 info，非法格式或输出返回错误
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	formatter, err := newFormatter(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to set log formatter: %w", err)
	}
	out, err := openOutput(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set log output: %w", err)
	}

	l := logrus.New()
	l.SetFormatter(formatter)
	l.SetOutput(out)
	l.SetReportCaller(cfg.Caller)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		l.Warnf("Invalid log level '%s', using 'info' as default", cfg.Level)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	LoggerInstance = &LoggerManager{logger: l}
	return LoggerInstance, nil
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyFunc: "function",
			},
		}, nil
	case "text", "":
		return &logrus.TextFormatter{TimestampFormat: TimestampFormat, FullTimestamp: true}, nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", format)
}

// openOutput stdout / stderr / file (lumberjack 轮转)
// file 输出且级别为 debug 时同时写 stderr，避免和 ping 的 pterm 输出混在 stdout
func openOutput(cfg *config.LogConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file":
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file path is required when output is file")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // 天
		Compress:   cfg.Compress,
	}
	if strings.EqualFold(cfg.Level, "debug") {
		return io.MultiWriter(os.Stderr, rotator), nil
	}
	return rotator, nil
}

// Infof 记录格式化信息日志
func Infof(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Infof(format, args...)
	}
}

// Warnf 记录格式化警告日志
func Warnf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Warnf(format, args...)
	}
}

// Errorf 记录格式化错误日志
func Errorf(format string, args ...interface{}) {
	if LoggerInstance != nil {
		LoggerInstance.logger.Errorf(format, args...)
	}
}
