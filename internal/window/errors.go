// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"github.com/samber/oops"
)

// Error codes for window and router failures.
const (
	CodeInvalidParams  = "INVALID_PARAMS"
	CodeInvalidFlag    = "INVALID_FLAG"
	CodeInvalidCommand = "INVALID_COMMAND"
	CodeInvalidState   = "INVALID_STATE"
	CodeNoCatalog      = "NO_CATALOG"
	CodeNoBuilder      = "NO_BUILDER"
	CodeUnsupported    = "UNSUPPORTED"
	CodePlatformClosed = "PLATFORM_CLOSED"
	CodeQueueClosed    = "QUEUE_CLOSED"
)

// ErrInvalidParams creates an error for a missing required argument.
func ErrInvalidParams(param string) error {
	return oops.Code(CodeInvalidParams).
		With("param", param).
		Errorf("invalid parameter: %s", param)
}

// ErrInvalidFlag creates an error for a control flag pattern that is
// malformed or matches nothing.
func ErrInvalidFlag(pattern string, cause error) error {
	builder := oops.Code(CodeInvalidFlag).With("pattern", pattern)
	if cause != nil {
		return builder.Wrapf(cause, "invalid control flag pattern %q", pattern)
	}
	return builder.Errorf("control flag pattern %q matches no flag", pattern)
}

// ErrInvalidCommand creates an error for a malformed command line.
func ErrInvalidCommand(text, usage string) error {
	return oops.Code(CodeInvalidCommand).
		With("command", text).
		With("usage", usage).
		Errorf("invalid command %q, usage: %s", text, usage)
}

// ErrInvalidState creates an error for an operation the router's state
// does not allow.
func ErrInvalidState(op string, state State) error {
	return oops.Code(CodeInvalidState).
		With("operation", op).
		With("state", state.String()).
		Errorf("cannot %s in state %s", op, state)
}

// ErrNoCatalog creates an error for a catalog lookup without a catalog.
func ErrNoCatalog() error {
	return oops.Code(CodeNoCatalog).Errorf("no plugin catalog configured")
}

// ErrNoBuilder creates an error for a build request without a builder.
func ErrNoBuilder() error {
	return oops.Code(CodeNoBuilder).Errorf("no plugin builder configured")
}

// ErrUnsupported creates an error for a feature the native window lacks.
func ErrUnsupported(feature string) error {
	return oops.Code(CodeUnsupported).
		With("feature", feature).
		Errorf("native window does not support %s", feature)
}

// ErrPlatformClosed creates an error for acquiring a closed platform.
func ErrPlatformClosed() error {
	return oops.Code(CodePlatformClosed).Errorf("platform is closed")
}

// ErrQueueClosed creates an error for posting to a closed window.
func ErrQueueClosed() error {
	return oops.Code(CodeQueueClosed).Errorf("window event queue is closed")
}
