// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package build

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/samber/oops"
)

// maxOutputTail bounds the tool output attached to errors.
const maxOutputTail = 2048

// Runner runs an external tool to completion. Only the exit status is part
// of the contract.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs tools as child processes.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run executes argv in dir. The combined output is logged at debug level and
// its tail is attached to the error on failure.
func (r ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return ErrInvalidParams("argv")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- build tools come from the operator's configuration
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	logger.Debug("tool finished",
		"command", strings.Join(argv, " "),
		"dir", dir,
		"output", out.String(),
		"error", err)
	if err != nil {
		return withOutput(err, out.Bytes())
	}
	return nil
}

func withOutput(err error, out []byte) error {
	tail := strings.TrimSpace(string(out))
	if len(tail) > maxOutputTail {
		tail = "..." + tail[len(tail)-maxOutputTail:]
	}
	return oops.With("output", tail).Wrap(err)
}
