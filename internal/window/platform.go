// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"log/slog"
	"sync"
)

// Platform is the process-wide windowing context shared by all routers. It
// counts open windows and is torn down exactly once with Close.
type Platform struct {
	mu      sync.Mutex
	windows int
	closed  bool
	logger  *slog.Logger
}

// NewPlatform creates a platform. A nil logger uses slog.Default().
func NewPlatform(logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{logger: logger}
}

// Acquire registers a window. It fails after Close.
func (p *Platform) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlatformClosed()
	}
	p.windows++
	return nil
}

// Release unregisters a window.
func (p *Platform) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.windows == 0 {
		p.logger.Warn("platform release without matching acquire")
		return
	}
	p.windows--
}

// Windows returns the number of registered windows.
func (p *Platform) Windows() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.windows
}

// Close tears the platform down. Later calls are no-ops.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.windows > 0 {
		p.logger.Warn("platform closed with open windows", "windows", p.windows)
	}
	return nil
}
