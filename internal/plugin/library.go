// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDir is the directory plugin binaries are loaded from.
const DefaultDir = "./ijk-plugin"

// ErrSymbolNotFound is returned by Library.Bind when the library does not
// export the requested symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrLibraryClosed is returned by Library.Bind after Close.
var ErrLibraryClosed = errors.New("library closed")

// Library is an open plugin binary.
type Library interface {
	// Bind looks up symbol and stores a callable into fnPtr, which points at
	// one of DataFunc, IntFunc, Int2Func, Int3Func or RefFunc.
	Bind(symbol string, fnPtr any) error

	// Close releases the library. It is called exactly once per Open.
	Close() error
}

// Opener opens plugin binaries by directory and base name.
type Opener interface {
	// Path returns the file Open would load for dylib in dir.
	Path(dir, dylib string) string

	// Open loads the plugin binary.
	Open(dir, dylib string) (Library, error)
}

// Ext returns the platform's dynamic library extension.
func Ext() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// LibraryPath returns <dir>/<dylib><ext>.
func LibraryPath(dir, dylib string) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, dylib+Ext())
}

// autoOpener prefers the first opener whose file exists.
type autoOpener struct {
	openers []Opener
}

// AutoOpener returns an Opener that uses the first of openers whose target
// file exists, and the first opener when none does (so the error names the
// primary path).
func AutoOpener(openers ...Opener) Opener {
	return &autoOpener{openers: openers}
}

func (a *autoOpener) pick(dir, dylib string) Opener {
	for _, o := range a.openers {
		if _, err := os.Stat(o.Path(dir, dylib)); err == nil {
			return o
		}
	}
	if len(a.openers) == 0 {
		return nil
	}
	return a.openers[0]
}

func (a *autoOpener) Path(dir, dylib string) string {
	if o := a.pick(dir, dylib); o != nil {
		return o.Path(dir, dylib)
	}
	return LibraryPath(dir, dylib)
}

func (a *autoOpener) Open(dir, dylib string) (Library, error) {
	o := a.pick(dir, dylib)
	if o == nil {
		return nil, errors.New("no plugin opener configured")
	}
	return o.Open(dir, dylib)
}
