// Package watchdog 组装常驻的 Watchdog 服务: 状态存储、通知、看门狗、HTTP 接口和配置热加载
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"tcping/internal/app/watchdog/router"
	"tcping/internal/config"
	"tcping/internal/core/probe"
	core "tcping/internal/core/watchdog"
	"tcping/internal/pkg/logger"
)

// App Watchdog 应用
type App struct {
	config     *config.Config
	configFile string
	redis      *redis.Client
	watchdog   *core.Watchdog
	router     *router.Router
	httpServer *http.Server
	watcher    *config.ConfigWatcher
}

// Option App 选项
type Option func(*core.Options)

// WithOpener 替换探测会话的创建方式
func WithOpener(open core.SessionOpener) Option {
	return func(o *core.Options) { o.Opener = open }
}

// NewApp 创建应用，configFile 为空时不启用热加载
func NewApp(ctx context.Context, cfg *config.Config, configFile string, opts ...Option) (*App, error) {
	if cfg.Watchdog == nil {
		cfg.Watchdog = &config.WatchdogConfig{}
	}
	if cfg.Notify == nil {
		cfg.Notify = &config.NotifyConfig{Log: true}
	}

	client, err := SetupRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := SetupStore(cfg, client)
	if err != nil {
		if client != nil {
			client.Close()
		}
		return nil, err
	}

	wdOpts := core.Options{
		Timeout:        cfg.Watchdog.Timeout,
		Interval:       cfg.Watchdog.Interval,
		SurveyInterval: cfg.Watchdog.SurveyInterval,
		HistorySize:    cfg.Watchdog.EventHistory,
		Destination:    cfg.Notify.Destination,
	}
	for _, opt := range opts {
		opt(&wdOpts)
	}

	app := &App{
		config:     cfg,
		configFile: configFile,
		redis:      client,
		watchdog:   core.New(store, SetupNotifier(cfg, client), wdOpts),
	}

	if cfg.Server != nil && cfg.Server.Enabled {
		app.router = router.NewRouter(app.watchdog, &router.RouterConfig{Mode: cfg.Server.Mode})
		app.httpServer = &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           app.router.GetEngine(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return app, nil
}

// Watchdog 看门狗实例
func (a *App) Watchdog() *core.Watchdog {
	return a.watchdog
}

// Router HTTP 路由，未启用服务时为 nil
func (a *App) Router() *router.Router {
	return a.router
}

// Start 注册配置中的主机，启动监视器、HTTP 服务和配置监听
// 单个主机注册失败只记录日志；平台或 Raw Socket 错误对所有主机都一样，直接返回。
// 全部失败时返回最后一个错误，保留其退出码。
func (a *App) Start(ctx context.Context) error {
	added := 0
	var lastErr error
	for _, t := range a.config.Watchdog.Targets {
		if _, err := a.watchdog.AddHost(ctx, t.Host, t.Port); err != nil {
			if probe.IsKind(err, probe.KindSocket) || probe.IsKind(err, probe.KindPlatform) {
				return fmt.Errorf("watch %s:%d: %w", t.Host, t.Port, err)
			}
			logger.Errorf("watchdog: add %s:%d failed: %v", t.Host, t.Port, err)
			lastErr = err
			continue
		}
		added++
	}
	if added == 0 && lastErr != nil {
		return fmt.Errorf("none of the %d configured targets could be watched: %w", len(a.config.Watchdog.Targets), lastErr)
	}

	a.watchdog.Start()

	if a.httpServer != nil {
		go func() {
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Failed to start HTTP server: %v", err)
			}
		}()
		logger.Infof("watchdog API listening on %s", a.httpServer.Addr)
	}

	if a.configFile != "" && a.config.Watchdog.HotReload {
		if err := a.startConfigWatcher(); err != nil {
			logger.Warnf("config hot reload disabled: %v", err)
		}
	}

	logger.Infof("watchdog started with %d host(s)", added)
	return nil
}

// Stop 停止全部组件，看门狗按关闭流程清理状态
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
		}
	}
	if err := a.watchdog.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
