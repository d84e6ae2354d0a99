// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

//go:build windows

package plugin

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

type nativeLibrary struct {
	path string
	dll  *windows.DLL
}

func openNative(path string) (Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, err
	}
	return &nativeLibrary{path: path, dll: dll}, nil
}

func (l *nativeLibrary) Bind(symbol string, fnPtr any) error {
	if l.dll == nil {
		return ErrLibraryClosed
	}
	proc, err := l.dll.FindProc(symbol)
	if err != nil {
		return ErrSymbolNotFound
	}
	return bindRecovered(symbol, func() {
		purego.RegisterFunc(fnPtr, proc.Addr())
	})
}

func (l *nativeLibrary) Close() error {
	if l.dll == nil {
		return ErrLibraryClosed
	}
	dll := l.dll
	l.dll = nil
	return dll.Release()
}

var libcFree = sync.OnceValue(func() Destructor {
	dll, err := windows.LoadDLL("ucrtbase.dll")
	if err != nil {
		return nil
	}
	proc, err := dll.FindProc("free")
	if err != nil {
		return nil
	}
	var free func(unsafe.Pointer)
	if err := bindRecovered("free", func() { purego.RegisterFunc(&free, proc.Addr()) }); err != nil {
		return nil
	}
	return Destructor(free)
})

// FreeDestructor returns a Destructor calling the C runtime's free, for
// plugins that allocate their state with malloc.
func FreeDestructor() Destructor {
	return libcFree()
}
