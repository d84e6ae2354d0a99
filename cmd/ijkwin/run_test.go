// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijkwin/ijkwin/internal/config"
	"github.com/ijkwin/ijkwin/internal/observability"
	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/window"
	"github.com/ijkwin/ijkwin/pkg/errutil"
)

// closingQueue closes the window right after the first control event, so a
// run with a startup plugin loads it and exits.
type closingQueue struct {
	*window.Queue
}

func (q closingQueue) Post(ctx context.Context, ev window.Event) error {
	if err := q.Queue.Post(ctx, ev); err != nil {
		return err
	}
	if ev.Kind == window.KindControl {
		return q.Queue.Post(ctx, window.Event{Kind: window.KindClose})
	}
	return nil
}

type fakeObsServer struct {
	started, stopped bool
	status           observability.StatusFunc
	registrars       int
	startErr         error
}

func (s *fakeObsServer) Start() (<-chan error, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.started = true
	return make(chan error), nil
}

func (s *fakeObsServer) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func (s *fakeObsServer) Addr() string { return "127.0.0.1:0" }

func runCmd(deps *RunDeps, args ...string) *cobra.Command {
	cmd := NewRunCmd()
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runWithDeps(cmd, deps)
	}
	cmd.SetArgs(args)
	return cmd
}

func TestRun_LoadsStartupPluginAndExits(t *testing.T) {
	dir, catalog := pluginTree(t)
	queue := window.NewQueue(8)
	deps := &RunDeps{
		NativeFactory: func(*config.Config, *slog.Logger) (window.Native, error) {
			return closingQueue{queue}, nil
		},
	}

	cmd := runCmd(deps,
		"--backend", "headless",
		"--plugin-dir", dir,
		"--catalog", catalog,
		"--load", "1",
		"--frame-wait-ms", "0",
		"--log-level", "error",
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Equal(t, "loaded Cube", queue.Status())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	dir, catalog := pluginTree(t)
	obs := &fakeObsServer{}
	deps := &RunDeps{
		NativeFactory: func(*config.Config, *slog.Logger) (window.Native, error) {
			return window.NewQueue(8), nil
		},
		ObservabilityServerFactory: func(_ string, status observability.StatusFunc, registrars ...observability.Registrar) ObservabilityServer {
			obs.status = status
			obs.registrars = len(registrars)
			return obs
		},
	}

	cmd := runCmd(deps,
		"--backend", "headless",
		"--plugin-dir", dir,
		"--catalog", catalog,
		"--metrics-addr", "127.0.0.1:0",
		"--log-level", "error",
	)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.True(t, obs.started)
	assert.True(t, obs.stopped)
	assert.Equal(t, 3, obs.registrars)
	st := obs.status()
	assert.False(t, st.Ready(), "not ready once the window is gone")
	assert.False(t, st.Plugin.Loaded)
}

func TestRun_ObservabilityStartFailure(t *testing.T) {
	dir, catalog := pluginTree(t)
	queue := window.NewQueue(8)
	deps := &RunDeps{
		NativeFactory: func(*config.Config, *slog.Logger) (window.Native, error) {
			return queue, nil
		},
		ObservabilityServerFactory: func(string, observability.StatusFunc, ...observability.Registrar) ObservabilityServer {
			return &fakeObsServer{startErr: errors.New("address in use")}
		},
	}

	cmd := runCmd(deps,
		"--backend", "headless",
		"--plugin-dir", dir,
		"--catalog", catalog,
		"--metrics-addr", "127.0.0.1:1",
		"--log-level", "error",
	)
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")

	err = queue.Post(context.Background(), window.Event{Kind: window.KindPaint})
	errutil.AssertErrorCode(t, err, window.CodeQueueClosed)
}

func TestRun_InvalidStartupIndex(t *testing.T) {
	dir, catalog := pluginTree(t)
	opened := false
	deps := &RunDeps{
		NativeFactory: func(*config.Config, *slog.Logger) (window.Native, error) {
			opened = true
			return window.NewQueue(8), nil
		},
	}

	cmd := runCmd(deps,
		"--backend", "headless",
		"--plugin-dir", dir,
		"--catalog", catalog,
		"--load", "7",
		"--log-level", "error",
	)
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeInvalidID)
	assert.False(t, opened, "no window is opened for a bad startup index")
}

func TestRun_InvalidConfig(t *testing.T) {
	pluginTree(t)

	cmd := runCmd(nil, "--backend", "x11")
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, config.CodeInvalidConfig)
}

func TestInitialLoad(t *testing.T) {
	catalog, err := plugin.ParseCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)

	cfg := config.Default()

	_, ok, err := initialLoad(cfg, catalog)
	require.NoError(t, err)
	assert.False(t, ok)

	cfg.Load = config.LoadDebug
	c, ok, err := initialLoad(cfg, catalog)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, window.OpDebug, c.Op)
	assert.False(t, c.Toggle)

	cfg.Load = 0
	c, ok, err = initialLoad(cfg, catalog)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, window.OpLoad, c.Op)
	assert.Equal(t, "Triangle", c.Descriptor.Name())

	cfg.Load = 0
	_, _, err = initialLoad(cfg, nil)
	errutil.AssertErrorCode(t, err, plugin.CodeInvalidID)
}

func TestHostStatus(t *testing.T) {
	dir, _ := pluginTree(t)
	platform := window.NewPlatform(nil)
	p := plugin.New(plugin.WithDir(dir), plugin.WithOpener(newOpener(slog.Default())))
	var running atomic.Bool
	status := hostStatus(&running, platform, p, nil)

	st := status()
	assert.False(t, st.Ready())
	assert.False(t, st.Building)
	assert.False(t, st.Plugin.Loaded)

	require.NoError(t, platform.Acquire())
	running.Store(true)
	require.NoError(t, p.Load(context.Background(), plugin.NewDescriptor("Cube", "cube", "ijk", "1.2.0", ""), 1))

	st = status()
	assert.True(t, st.Ready())
	assert.Equal(t, 1, st.Windows)
	assert.Equal(t, "Cube", st.Plugin.Name)
	assert.Equal(t, []string{plugin.OnLoad.Symbol()}, st.Plugin.Resolved)

	require.NoError(t, p.Reset(context.Background()))
	assert.False(t, status().Plugin.Loaded)
}
