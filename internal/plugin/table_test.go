// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

func TestSlots_AreUniqueAndComplete(t *testing.T) {
	slots := plugin.Slots()
	require.Len(t, slots, plugin.SlotCount)
	assert.Equal(t, 32, plugin.SlotCount)

	seen := make(map[string]bool)
	for _, s := range slots {
		sym := s.Symbol()
		require.NotEmpty(t, sym)
		assert.False(t, seen[sym], "duplicate symbol %s", sym)
		seen[sym] = true

		back, ok := plugin.SlotBySymbol(sym)
		require.True(t, ok)
		assert.Equal(t, s, back)
	}
}

func TestSlotBySymbol_Unknown(t *testing.T) {
	_, ok := plugin.SlotBySymbol("OnTeleport")
	assert.False(t, ok)
}

func TestDefaultTable_EverySlotIsNoop(t *testing.T) {
	table := plugin.DefaultTable()
	assert.Zero(t, table.ResolvedCount())
	assertAllSlotsReturnZero(t, table)
}

func TestResolve_NilLibrary(t *testing.T) {
	table := plugin.Resolve(nil)
	assert.Zero(t, table.ResolvedCount())
}

func TestResolve_PartialLibrary(t *testing.T) {
	var idled, clicked int
	lib := &fakeLibrary{funcs: map[string]any{
		"OnIdle": plugin.DataFunc(func(unsafe.Pointer) int32 {
			idled++
			return 7
		}),
		"OnMouseClick": plugin.Int3Func(func(_ unsafe.Pointer, button, x, y int32) int32 {
			clicked++
			return button + x + y
		}),
	}}

	table := plugin.Resolve(lib)

	assert.Equal(t, 2, table.ResolvedCount())
	assert.True(t, table.Resolved(plugin.OnIdle))
	assert.True(t, table.Resolved(plugin.OnMouseClick))
	assert.False(t, table.Resolved(plugin.OnDisplay))

	assert.Equal(t, int32(7), table.Call(plugin.OnIdle, nil))
	assert.Equal(t, int32(6), table.CallInt3(plugin.OnMouseClick, nil, 1, 2, 3))
	assert.Equal(t, 1, idled)
	assert.Equal(t, 1, clicked)

	// Unexported slots stay callable.
	assert.Zero(t, table.Call(plugin.OnDisplay, nil))
	assert.Zero(t, table.CallInt2(plugin.OnResize, nil, 640, 480))
}

func TestResolve_WrongExportTypeKeepsNoop(t *testing.T) {
	// OnResize is (ptr,int,int); exporting a (ptr) function must not break
	// resolution of the other slots.
	lib := &fakeLibrary{funcs: map[string]any{
		"OnResize": plugin.DataFunc(func(unsafe.Pointer) int32 { return 99 }),
		"OnIdle":   plugin.DataFunc(func(unsafe.Pointer) int32 { return 1 }),
	}}

	table := plugin.Resolve(lib)

	assert.False(t, table.Resolved(plugin.OnResize))
	assert.Zero(t, table.CallInt2(plugin.OnResize, nil, 1, 1))
	assert.True(t, table.Resolved(plugin.OnIdle))
}

func TestResolve_MissingSubsets(t *testing.T) {
	// Every plugin exporting only one slot still yields a fully callable table.
	for _, only := range plugin.Slots() {
		lib := &fakeLibrary{funcs: map[string]any{}}
		if only.Signature() == plugin.SigData {
			lib.funcs[only.Symbol()] = plugin.DataFunc(func(unsafe.Pointer) int32 { return 0 })
		}
		table := plugin.Resolve(lib)
		assertAllSlotsReturnZero(t, table)
	}
}

func TestTable_SignatureMismatchPanics(t *testing.T) {
	table := plugin.DefaultTable()
	assert.Panics(t, func() { table.Call(plugin.OnResize, nil) })
	assert.Panics(t, func() { table.CallInt(plugin.OnIdle, nil, 1) })
	assert.Panics(t, func() { table.Call(plugin.Slot(200), nil) })
}

func assertAllSlotsReturnZero(t *testing.T, table *plugin.Table) {
	t.Helper()
	for _, s := range plugin.Slots() {
		var rc int32
		assert.NotPanics(t, func() {
			switch s.Signature() {
			case plugin.SigData:
				rc = table.Call(s, nil)
			case plugin.SigInt:
				rc = table.CallInt(s, nil, 1)
			case plugin.SigInt2:
				rc = table.CallInt2(s, nil, 1, 2)
			case plugin.SigInt3:
				rc = table.CallInt3(s, nil, 1, 2, 3)
			case plugin.SigIntRef:
				var data unsafe.Pointer
				rc = table.CallRef(s, nil, 1, &data)
			}
		}, "slot %s", s)
		assert.Zero(t, rc, "slot %s", s)
	}
}
