// 结构化日志辅助函数
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录状态接口的 HTTP 请求
	AccessLog LogType = "access"
	// SystemLog 系统日志 - 记录组件启停
	SystemLog LogType = "system"
	// ProbeLog 探测日志 - 记录单次 SYN 探测
	ProbeLog LogType = "probe"
	// WatchdogLog Watchdog 日志 - 记录主机状态变化
	WatchdogLog LogType = "watchdog"
	// NotifyLog 通知日志 - 记录通知投递
	NotifyLog LogType = "notify"
)

// LogSystemEvent 记录系统事件
func LogSystemEvent(component, event, message string, level logrus.Level, extraFields map[string]interface{}) {
	if LoggerInstance == nil {
		return
	}

	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	LoggerInstance.logger.WithFields(fields).Log(level, fmt.Sprintf("%s - %s: %s", component, event, message))
}

// LogProbeEvent 记录一次探测结果
func LogProbeEvent(target string, seq uint32, matched bool, rtt time.Duration) {
	if LoggerInstance == nil {
		return
	}

	entry := LoggerInstance.logger.WithFields(logrus.Fields{
		"type":    ProbeLog,
		"target":  target,
		"seq":     seq,
		"matched": matched,
		"rtt_ms":  rtt.Milliseconds(),
	})
	if matched {
		entry.Debug("probe matched")
	} else {
		entry.Debug("probe timed out")
	}
}

// LogWatchdogEvent 记录 Watchdog 主机状态事件
func LogWatchdogEvent(host, event, previous, current string) {
	if LoggerInstance == nil {
		return
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":     WatchdogLog,
		"host":     host,
		"event":    event,
		"previous": previous,
		"current":  current,
	}).Info(fmt.Sprintf("Watchdog %s: %s", event, host))
}

// LogNotifyEvent 记录通知投递
func LogNotifyEvent(notifier, destination, message string, err error) {
	if LoggerInstance == nil {
		return
	}

	entry := LoggerInstance.logger.WithFields(logrus.Fields{
		"type":        NotifyLog,
		"notifier":    notifier,
		"destination": destination,
	})
	if err != nil {
		entry.WithError(err).Warn(fmt.Sprintf("notify failed: %s", message))
		return
	}
	entry.Info(message)
}

// LogAccessRequest 记录 gin 请求
func LogAccessRequest(c *gin.Context, startTime time.Time, clientIP string) {
	if LoggerInstance == nil {
		return
	}

	LoggerInstance.logger.WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": time.Since(startTime).Milliseconds(),
		"client_ip":     clientIP,
		"user_agent":    c.Request.UserAgent(),
	}).Info("HTTP request")
}
