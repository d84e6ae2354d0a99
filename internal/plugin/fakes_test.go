// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin_test

import (
	"errors"
	"reflect"
	"unsafe"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

// fakeLibrary exports the funcs in its map. Values must be assignable to the
// callback type of the slot they are bound to.
type fakeLibrary struct {
	funcs    map[string]any
	closed   int
	closeErr error
}

func (f *fakeLibrary) Bind(symbol string, fnPtr any) error {
	fn, ok := f.funcs[symbol]
	if !ok {
		return plugin.ErrSymbolNotFound
	}
	reflect.ValueOf(fnPtr).Elem().Set(reflect.ValueOf(fn))
	return nil
}

func (f *fakeLibrary) Close() error {
	f.closed++
	return f.closeErr
}

// fakeOpener hands out a fresh fakeLibrary per Open, built by newLib.
type fakeOpener struct {
	newLib  func(dylib string) *fakeLibrary
	opened  []string
	libs    []*fakeLibrary
	openErr error
}

func (o *fakeOpener) Path(dir, dylib string) string {
	return plugin.LibraryPath(dir, dylib)
}

func (o *fakeOpener) Open(_, dylib string) (plugin.Library, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.opened = append(o.opened, dylib)
	lib := o.newLib(dylib)
	o.libs = append(o.libs, lib)
	return lib, nil
}

// recorder builds plugin exports that log their invocations.
type recorder struct {
	calls []string
	// loadData is handed back through the ref of load callbacks when set.
	loadData unsafe.Pointer
	// nullOnUnload makes unload callbacks clear the data reference, the way
	// a plugin that frees its own state does.
	nullOnUnload bool
	ids          []int32
	commands     [][]string
}

func (r *recorder) data(name string) plugin.DataFunc {
	return func(unsafe.Pointer) int32 {
		r.calls = append(r.calls, name)
		return 0
	}
}

func (r *recorder) load(name string) plugin.RefFunc {
	return func(_ unsafe.Pointer, id int32, ref *unsafe.Pointer) int32 {
		r.calls = append(r.calls, name)
		r.ids = append(r.ids, id)
		if r.loadData != nil {
			*ref = r.loadData
		}
		return 0
	}
}

func (r *recorder) unload(name string) plugin.RefFunc {
	return func(_ unsafe.Pointer, _ int32, ref *unsafe.Pointer) int32 {
		r.calls = append(r.calls, name)
		if r.nullOnUnload {
			*ref = nil
		}
		return 0
	}
}

// fullLibrary exports the lifecycle callbacks recording into r.
func (r *recorder) fullLibrary(string) *fakeLibrary {
	return &fakeLibrary{funcs: map[string]any{
		"OnLoad":       r.load("OnLoad"),
		"OnHotLoad":    r.load("OnHotLoad"),
		"OnReload":     r.load("OnReload"),
		"OnHotReload":  r.load("OnHotReload"),
		"OnUnload":     r.unload("OnUnload"),
		"OnHotUnload":  r.unload("OnHotUnload"),
		"OnWillReload": r.data("OnWillReload"),
		"OnWillUnload": r.data("OnWillUnload"),
		"OnUserCommand": plugin.RefFunc(func(_ unsafe.Pointer, argc int32, argv *unsafe.Pointer) int32 {
			r.commands = append(r.commands, plugin.DecodeArgv(argc, argv))
			return argc
		}),
	}}
}

var errOpen = errors.New("dlopen: no such file")
