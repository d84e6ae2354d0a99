// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

// Ext is the file extension of script plugins.
const Ext = ".lua"

// Compile-time interface checks.
var (
	_ plugin.Opener  = (*Opener)(nil)
	_ plugin.Library = (*library)(nil)
)

// Opener loads <dylib>.lua scripts as plugin libraries.
type Opener struct {
	factory *StateFactory
	logger  *slog.Logger
}

// NewOpener creates a script opener. A nil logger uses slog.Default().
func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{
		factory: NewStateFactory(logger),
		logger:  logger,
	}
}

// Path returns <dir>/<dylib>.lua.
func (o *Opener) Path(dir, dylib string) string {
	if dir == "" {
		dir = plugin.DefaultDir
	}
	return filepath.Join(dir, dylib+Ext)
}

// Open reads and runs the script so its global functions become bindable.
func (o *Opener) Open(dir, dylib string) (plugin.Library, error) {
	path := o.Path(dir, dylib)
	code, err := os.ReadFile(path) //nolint:gosec // path is built from a validated dylib base name
	if err != nil {
		return nil, oops.With("path", path).Wrapf(err, "read script plugin")
	}

	L, err := o.factory.NewState(context.Background(), dylib)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	if err := L.DoString(string(code)); err != nil {
		L.Close()
		return nil, oops.With("path", path).Wrapf(err, "run script plugin")
	}
	o.warnUnknownCallbacks(L, dylib)
	return &library{L: L, name: dylib, logger: o.logger}, nil
}

// warnUnknownCallbacks logs global functions that look like callbacks but
// match no slot, which is usually a misspelt name.
func (o *Opener) warnUnknownCallbacks(L *lua.LState, dylib string) {
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || v.Type() != lua.LTFunction || !strings.HasPrefix(string(name), "On") {
			return
		}
		if _, known := plugin.SlotBySymbol(string(name)); !known {
			o.logger.Warn("script defines unknown callback", "plugin", dylib, "function", string(name))
		}
	})
}

// library adapts a Lua state to plugin.Library. Scripts keep their state in
// Lua, so the opaque data pointer is ignored and never written.
type library struct {
	L      *lua.LState
	name   string
	logger *slog.Logger
}

func (l *library) Bind(symbol string, fnPtr any) error {
	if l.L == nil {
		return plugin.ErrLibraryClosed
	}
	fn := l.L.GetGlobal(symbol)
	if fn.Type() != lua.LTFunction {
		return plugin.ErrSymbolNotFound
	}

	switch p := fnPtr.(type) {
	case *plugin.DataFunc:
		*p = func(unsafe.Pointer) int32 {
			return l.call(symbol, fn)
		}
	case *plugin.IntFunc:
		*p = func(_ unsafe.Pointer, a int32) int32 {
			return l.call(symbol, fn, lua.LNumber(a))
		}
	case *plugin.Int2Func:
		*p = func(_ unsafe.Pointer, a, b int32) int32 {
			return l.call(symbol, fn, lua.LNumber(a), lua.LNumber(b))
		}
	case *plugin.Int3Func:
		*p = func(_ unsafe.Pointer, a, b, c int32) int32 {
			return l.call(symbol, fn, lua.LNumber(a), lua.LNumber(b), lua.LNumber(c))
		}
	case *plugin.RefFunc:
		if symbol == plugin.OnUserCommand.Symbol() {
			*p = func(_ unsafe.Pointer, argc int32, argv *unsafe.Pointer) int32 {
				args := plugin.DecodeArgv(argc, argv)
				values := make([]lua.LValue, len(args))
				for i, s := range args {
					values[i] = lua.LString(s)
				}
				return l.call(symbol, fn, values...)
			}
			break
		}
		*p = func(_ unsafe.Pointer, id int32, _ *unsafe.Pointer) int32 {
			return l.call(symbol, fn, lua.LNumber(id))
		}
	default:
		return oops.With("symbol", symbol).Errorf("unsupported callback type %T", fnPtr)
	}
	return nil
}

// call runs fn and maps its result to a status: numbers pass through,
// anything else is 0, and a Lua error is -1.
func (l *library) call(symbol string, fn lua.LValue, args ...lua.LValue) int32 {
	if l.L == nil {
		return 0
	}
	if err := l.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		l.logger.Warn("script callback failed",
			"plugin", l.name,
			"callback", symbol,
			"error", err)
		return -1
	}
	ret := l.L.Get(-1)
	l.L.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return int32(n)
	}
	return 0
}

func (l *library) Close() error {
	if l.L == nil {
		return plugin.ErrLibraryClosed
	}
	l.L.Close()
	l.L = nil
	return nil
}
