// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"unsafe"

	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/window"
)

// call is one plugin callback invocation.
type call struct {
	slot string
	args []int32
	argv []string
}

// spy records every callback of the libraries it backs.
type spy struct {
	calls []call
	idle  int32
	data  unsafe.Pointer
	freed []unsafe.Pointer
}

func (s *spy) record(slot string, args ...int32) {
	s.calls = append(s.calls, call{slot: slot, args: args})
}

// names returns the invoked slots in order, ignoring OnIdle.
func (s *spy) names() []string {
	var out []string
	for _, c := range s.calls {
		if c.slot != plugin.OnIdle.Symbol() {
			out = append(out, c.slot)
		}
	}
	return out
}

func (s *spy) count(slot plugin.Slot) int {
	n := 0
	for _, c := range s.calls {
		if c.slot == slot.Symbol() {
			n++
		}
	}
	return n
}

func (s *spy) last() call {
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].slot != plugin.OnIdle.Symbol() {
			return s.calls[i]
		}
	}
	return call{}
}

func (s *spy) reset() {
	s.calls = nil
}

func (s *spy) destroy(p unsafe.Pointer) {
	s.freed = append(s.freed, p)
}

// spyLibrary exports every slot except those in missing.
type spyLibrary struct {
	spy     *spy
	missing []string
	closed  int
}

func (l *spyLibrary) Bind(symbol string, fnPtr any) error {
	if slices.Contains(l.missing, symbol) {
		return plugin.ErrSymbolNotFound
	}
	s := l.spy
	switch p := fnPtr.(type) {
	case *plugin.DataFunc:
		*p = func(unsafe.Pointer) int32 {
			s.record(symbol)
			if symbol == plugin.OnIdle.Symbol() {
				return s.idle
			}
			return 0
		}
	case *plugin.IntFunc:
		*p = func(_ unsafe.Pointer, a int32) int32 {
			s.record(symbol, a)
			return 0
		}
	case *plugin.Int2Func:
		*p = func(_ unsafe.Pointer, a, b int32) int32 {
			s.record(symbol, a, b)
			return 0
		}
	case *plugin.Int3Func:
		*p = func(_ unsafe.Pointer, a, b, c int32) int32 {
			s.record(symbol, a, b, c)
			return 0
		}
	case *plugin.RefFunc:
		*p = func(_ unsafe.Pointer, a int32, ref *unsafe.Pointer) int32 {
			if symbol == plugin.OnUserCommand.Symbol() {
				s.calls = append(s.calls, call{slot: symbol, argv: plugin.DecodeArgv(a, ref)})
				return a
			}
			s.record(symbol, a)
			if (symbol == plugin.OnLoad.Symbol() || symbol == plugin.OnHotLoad.Symbol()) && s.data != nil {
				*ref = s.data
			}
			return 0
		}
	default:
		return errors.New("unexpected callback type")
	}
	return nil
}

func (l *spyLibrary) Close() error {
	l.closed++
	return nil
}

// spyOpener opens spyLibraries sharing one spy.
type spyOpener struct {
	spy     *spy
	missing []string
	opened  []string
	openErr error
}

func (o *spyOpener) Path(dir, dylib string) string {
	return plugin.LibraryPath(dir, dylib)
}

func (o *spyOpener) Open(_, dylib string) (plugin.Library, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.opened = append(o.opened, dylib)
	return &spyLibrary{spy: o.spy, missing: o.missing}, nil
}

// fakeBuilder records build requests and copies.
type fakeBuilder struct {
	mu       sync.Mutex
	busy     bool
	requests []bool
	copies   int
	copyErr  error
}

func (b *fakeBuilder) Request(_ context.Context, rebuild bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy {
		return false
	}
	b.requests = append(b.requests, rebuild)
	return true
}

func (b *fakeBuilder) Copy(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.copies++
	return b.copyErr
}

// fixture wires a router to a queue and a spy-backed plugin.
type fixture struct {
	router  *window.Router
	queue   *window.Queue
	spy     *spy
	opener  *spyOpener
	plugin  *plugin.Plugin
	builder *fakeBuilder
}

func newFixture(flags window.ControlFlags, opts ...window.Option) (*fixture, error) {
	s := &spy{}
	opener := &spyOpener{spy: s}
	p := plugin.New(
		plugin.WithOpener(opener),
		plugin.WithDestructor(s.destroy),
	)
	q := window.NewQueue(64)
	b := &fakeBuilder{}
	all := append([]window.Option{
		window.WithFlags(flags),
		window.WithFrameWait(0),
		window.WithBuilder(b),
	}, opts...)
	r, err := window.New(q, p, all...)
	if err != nil {
		return nil, err
	}
	return &fixture{router: r, queue: q, spy: s, opener: opener, plugin: p, builder: b}, nil
}

var (
	triangle = plugin.NewDescriptor("Triangle", "triangle", "ijk", "1.0.0", "a triangle")
	cube     = plugin.NewDescriptor("Cube", "cube", "ijk", "1.2.0", "a cube")
)
