// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

//go:build darwin || freebsd || linux

package plugin

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type nativeLibrary struct {
	path   string
	handle uintptr
}

func openNative(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &nativeLibrary{path: path, handle: h}, nil
}

func (l *nativeLibrary) Bind(symbol string, fnPtr any) error {
	if l.handle == 0 {
		return ErrLibraryClosed
	}
	sym, err := purego.Dlsym(l.handle, symbol)
	if err != nil || sym == 0 {
		return ErrSymbolNotFound
	}
	return bindRecovered(symbol, func() {
		purego.RegisterFunc(fnPtr, sym)
	})
}

func (l *nativeLibrary) Close() error {
	if l.handle == 0 {
		return ErrLibraryClosed
	}
	h := l.handle
	l.handle = 0
	return purego.Dlclose(h)
}

func libcName() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "freebsd":
		return "libc.so.7"
	default:
		return "libc.so.6"
	}
}

// libcFree binds the C runtime's free once; nil when libc cannot be opened.
var libcFree = sync.OnceValue(func() Destructor {
	h, err := purego.Dlopen(libcName(), purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil
	}
	var free func(unsafe.Pointer)
	if err := bindRecovered("free", func() { purego.RegisterLibFunc(&free, h, "free") }); err != nil {
		return nil
	}
	return Destructor(free)
})

// FreeDestructor returns a Destructor calling the C runtime's free, for
// plugins that allocate their state with malloc.
func FreeDestructor() Destructor {
	return libcFree()
}
