// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"github.com/samber/oops"
)

// Error codes returned by plugin lifecycle and catalog operations.
const (
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeInvalidID       = "INVALID_ID"
	CodeAlreadyLoaded   = "ALREADY_LOADED"
	CodeNotLoaded       = "NOT_LOADED"
	CodeOperationFailed = "OPERATION_FAILED"
	CodeCatalogNotFound = "CATALOG_NOT_FOUND"
	CodeCatalogEmpty    = "CATALOG_EMPTY"
)

// ErrInvalidParams reports a missing or empty required argument.
func ErrInvalidParams(param string) error {
	return oops.Code(CodeInvalidParams).
		With("param", param).
		Errorf("invalid parameter: %s", param)
}

// ErrInvalidID reports use of the reserved NoPlugin id.
func ErrInvalidID(id int) error {
	return oops.Code(CodeInvalidID).
		With("id", id).
		Errorf("plugin id %d is reserved", id)
}

// ErrAlreadyLoaded reports a load into a non-empty plugin.
func ErrAlreadyLoaded(name string) error {
	return oops.Code(CodeAlreadyLoaded).
		With("plugin", name).
		Errorf("plugin %q is already loaded", name)
}

// ErrNotLoaded reports an operation that needs a loaded plugin.
func ErrNotLoaded(op string) error {
	return oops.Code(CodeNotLoaded).
		With("op", op).
		Errorf("%s: no plugin loaded", op)
}

// ErrOperationFailed wraps a library or process failure.
func ErrOperationFailed(op string, cause error) error {
	builder := oops.Code(CodeOperationFailed).With("op", op)
	if cause == nil {
		return builder.Errorf("%s failed", op)
	}
	return builder.Wrapf(cause, "%s failed", op)
}

// ErrCatalogNotFound reports a catalog file that could not be opened.
func ErrCatalogNotFound(path string, cause error) error {
	return oops.Code(CodeCatalogNotFound).
		With("path", path).
		Wrapf(cause, "open catalog")
}

// ErrCatalogEmpty reports a catalog without a single valid entry.
func ErrCatalogEmpty(path string, skipped int) error {
	return oops.Code(CodeCatalogEmpty).
		With("path", path).
		With("skipped", skipped).
		Errorf("catalog %s has no valid entries", path)
}
