package main

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcping/internal/config"
	"tcping/internal/core/options"
	"tcping/internal/core/probe"
)

func TestPingCmd_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"port zero", []string{"example.com", "--port", "0"}, probe.ExitNonPositive},
		{"port 65535", []string{"example.com", "-p", "65535"}, probe.ExitPortRange},
		{"zero timeout", []string{"example.com", "--timeout", "0"}, probe.ExitNonPositive},
		{"negative interval", []string{"example.com", "-i", "-0.5"}, probe.ExitNonPositive},
		{"zero count", []string{"example.com", "-c", "0"}, probe.ExitNonPositive},
		{"bad count", []string{"example.com", "-c", "many"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newPingCmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SilenceUsage = true

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, tt.code, probe.ExitCodeOf(err))
		})
	}
}

func TestPingCmd_RequiresHost(t *testing.T) {
	cmd := newPingCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}

func TestApplyProbeDefaults(t *testing.T) {
	cmd := newPingCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "8080"}))

	opts := options.NewPingOptions()
	opts.Port = 8080
	applyProbeDefaults(cmd, opts, &config.ProbeConfig{
		Port:     22,
		Timeout:  2 * time.Second,
		Interval: 250 * time.Millisecond,
		Count:    3,
	})

	assert.Equal(t, 8080, opts.Port)
	assert.Equal(t, 2.0, opts.Timeout)
	assert.Equal(t, 0.25, opts.Interval)
	assert.Equal(t, "3", opts.Count)

	opts = options.NewPingOptions()
	applyProbeDefaults(newPingCmd(), opts, &config.ProbeConfig{})
	assert.Equal(t, options.CountInfinite, opts.Count)
}

func TestApplyWatchFlags(t *testing.T) {
	cfg := &config.Config{
		Watchdog: &config.WatchdogConfig{Targets: []config.WatchTarget{{Host: "a", Port: 80}}},
		Notify:   &config.NotifyConfig{},
		Server:   &config.ServerConfig{},
		Store:    &config.StoreConfig{Type: "memory"},
	}

	cmd := newWatchCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--listen", "--port", "22", "--destination", "ops", "--store", "redis"}))

	f := &watchFlags{port: 22, destination: "ops", listen: true, store: "redis"}
	applyWatchFlags(cmd, cfg, f, []string{"b", "c"})

	assert.Equal(t, []config.WatchTarget{{Host: "a", Port: 80}, {Host: "b", Port: 22}, {Host: "c", Port: 22}}, cfg.Watchdog.Targets)
	assert.Equal(t, "ops", cfg.Notify.Destination)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "redis", cfg.Store.Type)
}
