package watchdog

import (
	"context"
	"fmt"
	"time"

	"tcping/internal/config"
	"tcping/internal/pkg/logger"
)

const reloadAddTimeout = 10 * time.Second

func (a *App) startConfigWatcher() error {
	w, err := config.NewConfigWatcher(a.configFile, a.config)
	if err != nil {
		return err
	}
	w.OnError(func(err error) {
		logger.Warnf("config reload failed: %v", err)
	})
	w.AddCallback(a.onConfigChange)

	if err := w.Start(); err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// onConfigChange 只追加新出现的目标，已注册主机不会被移除
func (a *App) onConfigChange(oldConfig, newConfig *config.Config) error {
	for _, t := range NewTargets(oldConfig, newConfig) {
		ctx, cancel := context.WithTimeout(context.Background(), reloadAddTimeout)
		_, err := a.watchdog.AddHost(ctx, t.Host, t.Port)
		cancel()
		if err != nil {
			logger.Warnf("hot reload: add %s:%d failed: %v", t.Host, t.Port, err)
			continue
		}
		logger.LogSystemEvent("Watchdog", "HotReload", fmt.Sprintf("added %s:%d", t.Host, t.Port), logger.InfoLevel, nil)
	}
	return nil
}

// NewTargets 返回 newConfig 中有而 oldConfig 中没有的目标
func NewTargets(oldConfig, newConfig *config.Config) []config.WatchTarget {
	if newConfig == nil || newConfig.Watchdog == nil {
		return nil
	}

	seen := make(map[config.WatchTarget]struct{})
	if oldConfig != nil && oldConfig.Watchdog != nil {
		for _, t := range oldConfig.Watchdog.Targets {
			seen[t] = struct{}{}
		}
	}

	var out []config.WatchTarget
	for _, t := range newConfig.Watchdog.Targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
