// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

//go:build !darwin && !freebsd && !linux && !windows

package plugin

import "errors"

func openNative(string) (Library, error) {
	return nil, errors.New("native plugins are not supported on this platform")
}

// FreeDestructor returns nil: there is no C runtime to free with.
func FreeDestructor() Destructor {
	return nil
}
