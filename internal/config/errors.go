// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package config

import "github.com/samber/oops"

// Error codes for configuration loading.
const (
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeConfigNotFound  = "CONFIG_NOT_FOUND"
	CodeSchemaViolation = "SCHEMA_VIOLATION"
)

// ErrInvalidConfig reports a field that failed validation.
func ErrInvalidConfig(field string, value any, reason string) error {
	return oops.Code(CodeInvalidConfig).
		With("field", field).
		With("value", value).
		Errorf("invalid %s: %s", field, reason)
}

// ErrConfigNotFound reports an explicitly requested file that cannot be read.
func ErrConfigNotFound(path string, cause error) error {
	return oops.Code(CodeConfigNotFound).With("path", path).Wrapf(cause, "read config")
}

// ErrSchemaViolation reports a config file rejected by the JSON Schema.
func ErrSchemaViolation(path string, cause error) error {
	return oops.Code(CodeSchemaViolation).With("path", path).Wrapf(cause, "config does not match schema")
}
