// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package lua runs script plugins: Lua files exporting the same callback
// names as a native plugin binary.
package lua

import (
	"context"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary represents a Lua library that is safe to load in sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// defaultSafeLibraries returns the list of libraries safe to load.
// Safe: base, table, string, math.
// Blocked: os, io, debug, package.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// unsafeBaseFunctions are removed from the base library after loading.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// StateFactory creates sandboxed Lua states for script plugins.
type StateFactory struct {
	libraries []safeLibrary
	logger    *slog.Logger
}

// NewStateFactory creates a state factory logging script output to logger
// (slog.Default() when nil).
func NewStateFactory(logger *slog.Logger) *StateFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateFactory{
		libraries: defaultSafeLibraries(),
		logger:    logger,
	}
}

// NewState creates a fresh Lua state with only safe libraries loaded and the
// ijk host table installed. name labels the script's log output.
//
// The ctx parameter is reserved for future cancellation/timeout support.
func (f *StateFactory) NewState(_ context.Context, name string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	f.installHost(L, name)
	return L, nil
}

// installHost registers the ijk table: ijk.log(msg, key, value, ...) and
// ijk.warn with the same arguments.
func (f *StateFactory) installHost(L *lua.LState, name string) {
	logger := f.logger.With("plugin", name)
	mod := L.NewTable()
	L.SetField(mod, "log", L.NewFunction(hostLog(logger, slog.LevelInfo)))
	L.SetField(mod, "warn", L.NewFunction(hostLog(logger, slog.LevelWarn)))
	L.SetGlobal("ijk", mod)
}

func hostLog(logger *slog.Logger, level slog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		args := make([]any, 0, L.GetTop())
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, goValue(L.Get(i)))
		}
		logger.Log(context.Background(), level, msg, args...)
		return 0
	}
}

func goValue(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	default:
		return v.String()
	}
}
