// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ijkwin/ijkwin/internal/build"
	"github.com/ijkwin/ijkwin/internal/config"
	"github.com/ijkwin/ijkwin/internal/logging"
	"github.com/ijkwin/ijkwin/internal/observability"
	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/plugin/lua"
	"github.com/ijkwin/ijkwin/internal/window"
	"github.com/ijkwin/ijkwin/internal/window/terminal"
	"github.com/ijkwin/ijkwin/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the window and route events into the plugin",
		Long: `Open the window, optionally load a plugin, and pump events into its
callbacks until the window closes or EXIT is entered at the prompt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithDeps(cmd, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// loadConfig reads the config file and flags of cmd and validates them.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the default logger. With toFile the resolved log
// file is used when configured; the returned close func releases it.
func setupLogging(cfg *config.Config, toFile bool) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if toFile {
		path, err := cfg.ResolveLogFile()
		if err != nil {
			return nil, nil, err
		}
		if path != "" {
			f, err := logging.OpenFile(path)
			if err != nil {
				return nil, nil, err
			}
			w = f
			closeFn = func() {
				if closeErr := f.Close(); closeErr != nil {
					slog.Debug("error closing log file", "path", path, "error", closeErr)
				}
			}
		}
	}

	logger := logging.Setup("ijkwin", version, cfg.LogFormat, w, logging.WithLevel(level))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// newNative opens the configured window backend.
func newNative(cfg *config.Config, logger *slog.Logger) (window.Native, error) {
	if cfg.Backend == config.BackendHeadless {
		return window.NewQueue(window.DefaultQueueSize), nil
	}
	return terminal.Open(logger)
}

// newOpener loads native libraries and falls back to Lua scripts of the
// same base name.
func newOpener(logger *slog.Logger) plugin.Opener {
	return plugin.AutoOpener(plugin.NativeOpener{}, lua.NewOpener(logger))
}

// loadCatalog reads the catalog; a missing or empty catalog only disables
// the LOAD command.
func loadCatalog(cfg *config.Config, logger *slog.Logger) *plugin.Catalog {
	catalog, err := plugin.LoadCatalog(cfg.Catalog)
	if err != nil {
		errutil.LogWarn(logger, "plugin catalog unavailable", err)
		return nil
	}
	logger.Info("plugin catalog loaded", "path", cfg.Catalog, "entries", catalog.Len(), "skipped", catalog.Skipped())
	return catalog
}

// initialLoad returns the control that loads cfg.Load at startup.
func initialLoad(cfg *config.Config, catalog *plugin.Catalog) (window.Control, bool, error) {
	switch cfg.Load {
	case config.LoadNone:
		return window.Control{}, false, nil
	case config.LoadDebug:
		return window.Debug(false), true, nil
	}
	desc, ok := catalog.At(cfg.Load)
	if !ok {
		return window.Control{}, false, plugin.ErrInvalidID(cfg.Load)
	}
	return window.Load(cfg.Load, desc), true, nil
}

func runWithDeps(cmd *cobra.Command, deps *RunDeps) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	flags, err := cfg.ControlFlags()
	if err != nil {
		return err
	}
	catalog := loadCatalog(cfg, logger)
	defer catalog.Release()

	startup, hasStartup, err := initialLoad(cfg, catalog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	platform := window.NewPlatform(logger)
	defer func() {
		if closeErr := platform.Close(); closeErr != nil {
			errutil.LogWarn(logger, "error closing platform", closeErr)
		}
	}()

	native, err := deps.NativeFactory(cfg, logger)
	if err != nil {
		return oops.With("backend", cfg.Backend).Wrapf(err, "open window")
	}

	p := plugin.New(
		plugin.WithDir(cfg.PluginDir),
		plugin.WithOpener(deps.OpenerFactory(logger)),
		plugin.WithLogger(logger),
	)

	opts := []window.Option{
		window.WithPlatform(platform),
		window.WithFlags(flags),
		window.WithCatalog(catalog),
		window.WithDebugDescriptor(cfg.DebugDescriptor()),
		window.WithFrameWait(cfg.FrameWaitDuration()),
		window.WithLogger(logger),
	}

	var builder *build.Builder
	if cfg.BuildEnabled() {
		builder, err = build.New(cfg.Build(), postCompletion(native), build.WithLogger(logger))
		if err != nil {
			return closeAfter(native, err)
		}
		opts = append(opts, window.WithBuilder(builder))
	}

	router, err := window.New(native, p, opts...)
	if err != nil {
		return closeAfter(native, err)
	}

	var running atomic.Bool
	status := hostStatus(&running, platform, p, builder)
	obsServer, err := startObservability(ctx, cfg, deps, status)
	if err != nil {
		return errors.Join(err, router.Destroy(ctx))
	}

	if hasStartup {
		if err := native.Post(ctx, window.ControlEvent(startup)); err != nil {
			errutil.LogWarn(logger, "posting startup plugin failed", err)
		}
	}

	logger.Info("ijkwin starting",
		"backend", cfg.Backend,
		"plugin_dir", cfg.PluginDir,
		"flags", flags.String(),
		"build", cfg.BuildEnabled(),
	)

	running.Store(true)
	runErr := router.Run(ctx)
	running.Store(false)

	if builder != nil {
		builder.Wait()
	}
	if obsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			errutil.LogWarn(logger, "error stopping observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// postCompletion turns build completions into CopyComplete controls on the
// router's queue.
func postCompletion(native window.Native) build.PostFunc {
	return func(ctx context.Context, c build.Completion) error {
		return native.Post(ctx, window.ControlEvent(window.CopyComplete(c.JobID, c.Success)))
	}
}

// hostStatus reports the host state from the HTTP goroutines. Each source is
// safe for concurrent reads.
func hostStatus(running *atomic.Bool, platform *window.Platform, p *plugin.Plugin, builder *build.Builder) observability.StatusFunc {
	return func() observability.HostStatus {
		return observability.HostStatus{
			Running:  running.Load(),
			Windows:  platform.Windows(),
			Building: builder != nil && builder.Busy(),
			Plugin:   p.Status(),
		}
	}
}

func startObservability(ctx context.Context, cfg *config.Config, deps *RunDeps, status observability.StatusFunc) (ObservabilityServer, error) {
	if cfg.MetricsAddr == "" {
		return nil, nil
	}
	server := deps.ObservabilityServerFactory(cfg.MetricsAddr, status,
		plugin.RegisterMetrics,
		window.RegisterMetrics,
		build.RegisterMetrics,
	)
	errCh, err := server.Start()
	if err != nil {
		return nil, oops.With("addr", cfg.MetricsAddr).Wrapf(err, "start observability server")
	}
	if s, ok := server.(*observability.Server); ok {
		s.Metrics().SetBuildInfo(version, commit)
	}
	go monitorServerErrors(ctx, errCh, "observability")
	slog.Info("observability server started", "addr", server.Addr())
	return server, nil
}

// monitorServerErrors logs a server failure. The window keeps running
// without metrics.
func monitorServerErrors(ctx context.Context, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server error", "server", serverName, "error", err)
		}
	case <-ctx.Done():
	}
}

func closeAfter(native window.Native, err error) error {
	return errors.Join(err, native.Close())
}
