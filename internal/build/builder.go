// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package build runs the out-of-process plugin build pipeline: one build job
// at a time on a worker goroutine, reporting back through a posted
// completion.
package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ijkwin/ijkwin/pkg/errutil"
)

var tracer = otel.Tracer("ijkwin/build")

// Defaults for Config.
const (
	DefaultUnlockRetries = 127
	DefaultUnlockDelay   = 10 * time.Millisecond
)

// Config describes the external tools of the pipeline.
type Config struct {
	// Dir is the working directory of every tool.
	Dir string
	// BuildCommand builds the debug plugin incrementally.
	BuildCommand []string
	// RebuildCommand builds it from scratch. Defaults to BuildCommand.
	RebuildCommand []string
	// CopyCommand moves the built binary into the plugin directory. Empty
	// means the build writes there directly.
	CopyCommand []string
	// SymbolsPath is the debug symbol file the host may hold locked while
	// the plugin is loaded. Empty skips the unlock step.
	SymbolsPath string
	// UnlockRetries is how many times a failed unlock attempt is retried.
	// Nil means DefaultUnlockRetries; zero makes a single attempt.
	UnlockRetries *uint64
	// UnlockDelay is the pause between unlock attempts. Zero means
	// DefaultUnlockDelay.
	UnlockDelay time.Duration
}

// Completion is posted exactly once per accepted build request.
type Completion struct {
	JobID   string
	Rebuild bool
	Success bool
	Err     error
}

// PostFunc hands a completion to the router. It is called from the worker
// goroutine.
type PostFunc func(ctx context.Context, c Completion) error

// Unlocker makes one attempt at releasing the debug symbol lock.
type Unlocker func(ctx context.Context, path string) error

// Builder runs at most one build job at a time.
type Builder struct {
	cfg    Config
	post   PostFunc
	runner Runner
	unlock Unlocker
	logger *slog.Logger

	busy atomic.Bool
	wg   sync.WaitGroup
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner sets how tools are run. Default ExecRunner.
func WithRunner(r Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithUnlocker sets the unlock attempt. Default TryUnlock.
func WithUnlocker(u Unlocker) Option {
	return func(b *Builder) {
		b.unlock = u
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// New creates a builder posting completions through post.
func New(cfg Config, post PostFunc, opts ...Option) (*Builder, error) {
	if post == nil {
		return nil, ErrInvalidParams("post")
	}
	if len(cfg.BuildCommand) == 0 {
		return nil, ErrInvalidParams("build command")
	}
	if len(cfg.RebuildCommand) == 0 {
		cfg.RebuildCommand = cfg.BuildCommand
	}
	if cfg.UnlockRetries == nil {
		n := uint64(DefaultUnlockRetries)
		cfg.UnlockRetries = &n
	}
	if cfg.UnlockDelay <= 0 {
		cfg.UnlockDelay = DefaultUnlockDelay
	}
	b := &Builder{
		cfg:    cfg,
		post:   post,
		unlock: TryUnlock,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.runner == nil {
		b.runner = ExecRunner{Logger: b.logger}
	}
	return b, nil
}

// Busy reports whether a job is running.
func (b *Builder) Busy() bool {
	return b.busy.Load()
}

// Request starts a build job on a new goroutine unless one is already
// running, in which case it does nothing and returns false.
func (b *Builder) Request(ctx context.Context, rebuild bool) bool {
	if !b.busy.CompareAndSwap(false, true) {
		BuildsTotal.WithLabelValues(mode(rebuild), StatusDropped).Inc()
		return false
	}
	job := Completion{JobID: ulid.Make().String(), Rebuild: rebuild}
	b.logger.Info("build started", "job", job.JobID, "mode", mode(rebuild))

	b.wg.Add(1)
	go b.work(ctx, job)
	return true
}

// Wait blocks until running jobs have posted their completion.
func (b *Builder) Wait() {
	b.wg.Wait()
}

// Copy runs the copy tool. The router calls it after unloading the plugin.
func (b *Builder) Copy(ctx context.Context) error {
	if len(b.cfg.CopyCommand) == 0 {
		return nil
	}
	if err := b.runner.Run(ctx, b.cfg.Dir, b.cfg.CopyCommand); err != nil {
		return ErrCopyFailed(b.cfg.CopyCommand, err)
	}
	return nil
}

// work unlocks the symbols, runs the build tool and posts the completion.
// The guard is cleared only after posting.
func (b *Builder) work(ctx context.Context, job Completion) {
	defer b.wg.Done()
	defer b.busy.Store(false)

	ctx, span := tracer.Start(ctx, "build.job", trace.WithAttributes(
		attribute.String("build.job_id", job.JobID),
		attribute.String("build.mode", mode(job.Rebuild)),
	))
	defer span.End()
	start := time.Now()

	if err := b.unlockSymbols(ctx); err != nil {
		errutil.LogWarn(b.logger, "continuing build with locked debug symbols", err)
	}

	argv := b.cfg.BuildCommand
	if job.Rebuild {
		argv = b.cfg.RebuildCommand
	}
	if err := b.runner.Run(ctx, b.cfg.Dir, argv); err != nil {
		job.Err = ErrBuildFailed(argv, err)
		span.RecordError(job.Err)
		span.SetStatus(codes.Error, job.Err.Error())
		errutil.LogError(b.logger, "build failed", job.Err)
	} else {
		job.Success = true
	}

	status := StatusSuccess
	if !job.Success {
		status = StatusError
	}
	BuildsTotal.WithLabelValues(mode(job.Rebuild), status).Inc()
	BuildDuration.WithLabelValues(mode(job.Rebuild)).Observe(time.Since(start).Seconds())
	b.logger.Info("build finished", "job", job.JobID, "success", job.Success, "duration", time.Since(start))

	if err := b.post(ctx, job); err != nil {
		errutil.LogError(b.logger, "posting build completion failed", err)
	}
}

// unlockSymbols makes one unlock attempt plus up to UnlockRetries retries.
func (b *Builder) unlockSymbols(ctx context.Context) error {
	path := b.cfg.SymbolsPath
	if path == "" {
		return nil
	}
	var attempts uint64
	backoff := retry.WithMaxRetries(*b.cfg.UnlockRetries, retry.NewConstant(b.cfg.UnlockDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := b.unlock(ctx, path); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return ErrUnlockFailed(path, attempts, err)
	}
	return nil
}

// TryUnlock checks that path can be opened for writing, which fails while
// another process holds the symbol file locked. A missing file is unlocked.
func TryUnlock(_ context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0) //nolint:gosec // path comes from the operator's configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err //nolint:wrapcheck // wrapped by unlockSymbols
	}
	return f.Close()
}
