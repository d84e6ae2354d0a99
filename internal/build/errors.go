// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package build

import (
	"strings"

	"github.com/samber/oops"
)

// Error codes for build failures.
const (
	CodeInvalidParams = "INVALID_PARAMS"
	CodeBuildFailed   = "BUILD_FAILED"
	CodeCopyFailed    = "COPY_FAILED"
	CodeUnlockFailed  = "UNLOCK_FAILED"
)

// ErrInvalidParams creates an error for a missing required argument.
func ErrInvalidParams(param string) error {
	return oops.Code(CodeInvalidParams).
		With("param", param).
		Errorf("invalid parameter: %s", param)
}

// ErrBuildFailed creates an error for a failed build tool run.
func ErrBuildFailed(argv []string, cause error) error {
	return oops.Code(CodeBuildFailed).
		With("command", strings.Join(argv, " ")).
		Wrapf(cause, "build tool failed")
}

// ErrCopyFailed creates an error for a failed copy tool run.
func ErrCopyFailed(argv []string, cause error) error {
	return oops.Code(CodeCopyFailed).
		With("command", strings.Join(argv, " ")).
		Wrapf(cause, "copy tool failed")
}

// ErrUnlockFailed creates an error for debug symbols that stayed locked.
func ErrUnlockFailed(path string, attempts uint64, cause error) error {
	return oops.Code(CodeUnlockFailed).
		With("path", path).
		With("attempts", attempts).
		Wrapf(cause, "debug symbols still locked")
}
