// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/ijkwin/ijkwin/internal/config"
	"github.com/ijkwin/ijkwin/internal/observability"
	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/window"
)

// RunDeps contains injectable dependencies for the run command.
// All fields with nil values will use their default implementations.
type RunDeps struct {
	// NativeFactory creates the window backend.
	// Default: newNative (tcell terminal or headless queue)
	NativeFactory func(cfg *config.Config, logger *slog.Logger) (window.Native, error)

	// OpenerFactory creates the plugin binary opener.
	// Default: newOpener (native library, falling back to Lua script)
	OpenerFactory func(logger *slog.Logger) plugin.Opener

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, status observability.StatusFunc, registrars ...observability.Registrar) ObservabilityServer
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *RunDeps) withDefaults() *RunDeps {
	out := RunDeps{}
	if d != nil {
		out = *d
	}
	if out.NativeFactory == nil {
		out.NativeFactory = newNative
	}
	if out.OpenerFactory == nil {
		out.OpenerFactory = newOpener
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, status observability.StatusFunc, registrars ...observability.Registrar) ObservabilityServer {
			return observability.NewServer(addr, status, registrars...)
		}
	}
	return &out
}
