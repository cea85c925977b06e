// Package router Watchdog 的 HTTP 状态接口
package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tcping/internal/app/watchdog/middleware"
	"tcping/internal/core/probe"
	"tcping/internal/core/watchdog"
	"tcping/internal/pkg/monitor"
	"tcping/internal/pkg/version"
)

// addHostTimeout 注册主机 (含域名解析) 的超时
const addHostTimeout = 10 * time.Second

// HostRegistry 路由依赖的看门狗能力，*watchdog.Watchdog 满足该接口
type HostRegistry interface {
	AddHost(ctx context.Context, host string, port int) (*watchdog.Daemon, error)
	Hosts() []watchdog.HostStatus
	Events() []watchdog.TransitionEvent
}

// RouterConfig 路由配置
type RouterConfig struct {
	// gin 运行模式 (debug/release/test)
	Mode string
	// 日志中间件配置，nil 使用默认值
	Logging *middleware.LoggingConfig
}

// AddHostRequest POST /api/v1/hosts 请求体
type AddHostRequest struct {
	Host string `json:"host" binding:"required"`
	Port int    `json:"port"`
}

// Router Watchdog 路由器
type Router struct {
	engine   *gin.Engine
	registry HostRegistry
	started  time.Time
}

// NewRouter 创建路由器
func NewRouter(registry HostRegistry, config *RouterConfig) *Router {
	if config == nil {
		config = &RouterConfig{Mode: gin.ReleaseMode}
	}
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	r := &Router{
		engine:   gin.New(),
		registry: registry,
		started:  time.Now(),
	}

	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.NewLoggingMiddleware(config.Logging).Handler())

	r.registerRoutes()
	return r
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	// 健康检查路由
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/ping", r.handlePing)
	r.engine.GET("/version", r.handleVersion)

	api := r.engine.Group("/api/v1")
	api.GET("/hosts", r.handleListHosts)
	api.POST("/hosts", r.handleAddHost)
	api.GET("/events", r.handleListEvents)
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) handleHealth(c *gin.Context) {
	hosts := r.registry.Hosts()
	up := 0
	for _, h := range hosts {
		if h.State == watchdog.StateUp.String() {
			up++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "tcping-watchdog",
		"hosts":     len(hosts),
		"hosts_up":  up,
		"system":    monitor.GetSystemMetrics(),
	})
}

func (r *Router) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().Unix(),
	})
}

func (r *Router) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetInfo())
}

func (r *Router) handleListHosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hosts": r.registry.Hosts(),
	})
}

func (r *Router) handleListEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"events": r.registry.Events(),
	})
}

func (r *Router) handleAddHost(c *gin.Context) {
	var req AddHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Port == 0 {
		req.Port = probe.DefaultPort
	}
	if req.Port < 1 || req.Port > probe.MaxPort {
		c.JSON(http.StatusBadRequest, gin.H{"error": probe.ErrPortRange.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), addHostTimeout)
	defer cancel()

	d, err := r.registry.AddHost(ctx, req.Host, req.Port)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, d.Status())
	case errors.Is(err, watchdog.ErrHostAlreadyWatched):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, watchdog.ErrShutdown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case probe.IsKind(err, probe.KindResolution), probe.IsKind(err, probe.KindConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
