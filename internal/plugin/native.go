// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"fmt"
	"unsafe"
)

// Destructor releases plugin-allocated user data the host has taken
// ownership of.
type Destructor func(data unsafe.Pointer)

// NativeOpener loads plugin binaries as native dynamic libraries.
type NativeOpener struct{}

// Path returns <dir>/<dylib><ext>.
func (NativeOpener) Path(dir, dylib string) string {
	return LibraryPath(dir, dylib)
}

// Open loads the dynamic library and returns it for symbol binding.
func (o NativeOpener) Open(dir, dylib string) (Library, error) {
	path := o.Path(dir, dylib)
	lib, err := openNative(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return lib, nil
}

// bindRecovered converts a panic from the foreign-function binder into an
// error so one bad export never aborts resolution.
func bindRecovered(symbol string, bind func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind %s: %v", symbol, r)
		}
	}()
	bind()
	return nil
}
