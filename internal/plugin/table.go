// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// Callback function types, one per Signature. The first argument is the
// plugin's opaque data (or the host pointer for the load family).
type (
	DataFunc func(data unsafe.Pointer) int32
	IntFunc  func(data unsafe.Pointer, a int32) int32
	Int2Func func(data unsafe.Pointer, a, b int32) int32
	Int3Func func(data unsafe.Pointer, a, b, c int32) int32
	RefFunc  func(data unsafe.Pointer, a int32, ref *unsafe.Pointer) int32
)

func noopData(unsafe.Pointer) int32                        { return 0 }
func noopInt(unsafe.Pointer, int32) int32                  { return 0 }
func noopInt2(unsafe.Pointer, int32, int32) int32          { return 0 }
func noopInt3(unsafe.Pointer, int32, int32, int32) int32   { return 0 }
func noopRef(unsafe.Pointer, int32, *unsafe.Pointer) int32 { return 0 }

type binding struct {
	fn       any
	resolved bool
}

// Table is the resolved callback set of a plugin. Every slot is always
// callable: slots the library does not export hold a no-op returning 0.
type Table struct {
	slots [SlotCount]binding
}

// DefaultTable returns a table with every slot bound to its no-op.
func DefaultTable() *Table {
	t := &Table{}
	for i := range t.slots {
		t.slots[i] = binding{fn: noopFor(Slot(i).Signature())}
	}
	return t
}

func noopFor(sig Signature) any {
	switch sig {
	case SigInt:
		return IntFunc(noopInt)
	case SigInt2:
		return Int2Func(noopInt2)
	case SigInt3:
		return Int3Func(noopInt3)
	case SigIntRef:
		return RefFunc(noopRef)
	default:
		return DataFunc(noopData)
	}
}

// Resolve binds every slot of the ABI against lib. A slot whose symbol is
// missing, or whose binding fails in any way, keeps its no-op. Resolve never
// fails; a nil library yields DefaultTable.
func Resolve(lib Library) *Table {
	t := DefaultTable()
	if lib == nil {
		return t
	}
	for i := range t.slots {
		t.bind(lib, Slot(i))
	}
	return t
}

func (t *Table) bind(lib Library, s Slot) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("callback binding panicked, keeping no-op",
				"slot", s.String(),
				"panic", fmt.Sprint(r))
		}
	}()

	var fn any
	switch s.Signature() {
	case SigData:
		var f DataFunc
		if lib.Bind(s.Symbol(), &f) == nil && f != nil {
			fn = f
		}
	case SigInt:
		var f IntFunc
		if lib.Bind(s.Symbol(), &f) == nil && f != nil {
			fn = f
		}
	case SigInt2:
		var f Int2Func
		if lib.Bind(s.Symbol(), &f) == nil && f != nil {
			fn = f
		}
	case SigInt3:
		var f Int3Func
		if lib.Bind(s.Symbol(), &f) == nil && f != nil {
			fn = f
		}
	case SigIntRef:
		var f RefFunc
		if lib.Bind(s.Symbol(), &f) == nil && f != nil {
			fn = f
		}
	}
	if fn != nil {
		t.slots[s] = binding{fn: fn, resolved: true}
	}
}

// Resolved reports whether the slot is bound to a plugin export rather than
// the no-op.
func (t *Table) Resolved(s Slot) bool {
	return s.Valid() && t.slots[s].resolved
}

// ResolvedCount returns how many slots the plugin exports.
func (t *Table) ResolvedCount() int {
	n := 0
	for _, b := range t.slots {
		if b.resolved {
			n++
		}
	}
	return n
}

// Call invokes a SigData slot.
func (t *Table) Call(s Slot, data unsafe.Pointer) int32 {
	return t.slot(s, SigData).(DataFunc)(data)
}

// CallInt invokes a SigInt slot.
func (t *Table) CallInt(s Slot, data unsafe.Pointer, a int32) int32 {
	return t.slot(s, SigInt).(IntFunc)(data, a)
}

// CallInt2 invokes a SigInt2 slot.
func (t *Table) CallInt2(s Slot, data unsafe.Pointer, a, b int32) int32 {
	return t.slot(s, SigInt2).(Int2Func)(data, a, b)
}

// CallInt3 invokes a SigInt3 slot.
func (t *Table) CallInt3(s Slot, data unsafe.Pointer, a, b, c int32) int32 {
	return t.slot(s, SigInt3).(Int3Func)(data, a, b, c)
}

// CallRef invokes a SigIntRef slot.
func (t *Table) CallRef(s Slot, data unsafe.Pointer, a int32, ref *unsafe.Pointer) int32 {
	return t.slot(s, SigIntRef).(RefFunc)(data, a, ref)
}

// slot panics on a signature mismatch: the slot set is fixed at compile
// time, so a mismatch is a programming error rather than plugin skew.
func (t *Table) slot(s Slot, want Signature) any {
	if !s.Valid() {
		panic(fmt.Sprintf("plugin: invalid slot %d", uint8(s)))
	}
	if got := s.Signature(); got != want {
		panic(fmt.Sprintf("plugin: slot %s has signature %s, called as %s", s, got, want))
	}
	return t.slots[s].fn
}
