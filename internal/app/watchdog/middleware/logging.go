package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"tcping/internal/pkg/logger"
	"tcping/internal/pkg/utils"
)

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	// 跳过日志的路径
	SkipPaths []string
	// 慢请求阈值，超过时额外记录警告
	SlowRequestThreshold time.Duration
}

// LoggingMiddleware 记录 HTTP 访问日志
type LoggingMiddleware struct {
	config *LoggingConfig
	skip   map[string]struct{}
}

// NewLoggingMiddleware 创建日志中间件
func NewLoggingMiddleware(config *LoggingConfig) *LoggingMiddleware {
	if config == nil {
		config = &LoggingConfig{
			SkipPaths:            []string{"/health", "/ping"},
			SlowRequestThreshold: 2 * time.Second,
		}
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}
	return &LoggingMiddleware{config: config, skip: skip}
}

// Handler 日志处理器
func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		startTime := time.Now()
		c.Next()

		clientIP := utils.GetClientIP(c)
		logger.LogAccessRequest(c, startTime, clientIP)

		if d := time.Since(startTime); m.config.SlowRequestThreshold > 0 && d > m.config.SlowRequestThreshold {
			logger.Warnf("slow request: %s %s took %v", c.Request.Method, c.Request.URL.Path, d)
		}
	}
}
