// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import "fmt"

// Signature identifies the C calling shape of a callback slot. Every shape
// takes the opaque pointer first and returns an int32 status.
type Signature uint8

// Callback signatures.
const (
	// SigData is fn(ptr).
	SigData Signature = iota
	// SigInt is fn(ptr, int).
	SigInt
	// SigInt2 is fn(ptr, int, int).
	SigInt2
	// SigInt3 is fn(ptr, int, int, int).
	SigInt3
	// SigIntRef is fn(ptr, int, ptr*).
	SigIntRef
)

func (s Signature) String() string {
	switch s {
	case SigData:
		return "ptr"
	case SigInt:
		return "ptr,int"
	case SigInt2:
		return "ptr,int,int"
	case SigInt3:
		return "ptr,int,int,int"
	case SigIntRef:
		return "ptr,int,ptr*"
	default:
		return fmt.Sprintf("signature(%d)", uint8(s))
	}
}

// Slot names one entry of the fixed plugin ABI.
type Slot uint8

// The plugin ABI. The order is stable; symbol names are what a plugin exports.
const (
	OnLoad Slot = iota
	OnHotLoad
	OnReload
	OnHotReload
	OnUnload
	OnHotUnload
	OnWillReload
	OnWillUnload
	OnActivate
	OnDeactivate
	OnDisplay
	OnIdle
	OnMove
	OnResize
	OnKeyPress
	OnKeyHold
	OnKeyRelease
	OnVirtualKeyPress
	OnVirtualKeyHold
	OnVirtualKeyRelease
	OnMouseClick
	OnMouseClick2
	OnMouseRelease
	OnMouseWheel
	OnMouseMove
	OnMouseDrag
	OnMouseEnter
	OnMouseLeave
	OnUser1
	OnUser2
	OnUser3
	OnUserCommand

	// SlotCount is the number of slots in a Table.
	SlotCount int = iota
)

type slotInfo struct {
	symbol string
	sig    Signature
}

var slots = [SlotCount]slotInfo{
	OnLoad:              {"OnLoad", SigIntRef},
	OnHotLoad:           {"OnHotLoad", SigIntRef},
	OnReload:            {"OnReload", SigIntRef},
	OnHotReload:         {"OnHotReload", SigIntRef},
	OnUnload:            {"OnUnload", SigIntRef},
	OnHotUnload:         {"OnHotUnload", SigIntRef},
	OnWillReload:        {"OnWillReload", SigData},
	OnWillUnload:        {"OnWillUnload", SigData},
	OnActivate:          {"OnActivate", SigData},
	OnDeactivate:        {"OnDeactivate", SigData},
	OnDisplay:           {"OnDisplay", SigData},
	OnIdle:              {"OnIdle", SigData},
	OnMove:              {"OnMove", SigInt2},
	OnResize:            {"OnResize", SigInt2},
	OnKeyPress:          {"OnKeyPress", SigInt},
	OnKeyHold:           {"OnKeyHold", SigInt},
	OnKeyRelease:        {"OnKeyRelease", SigInt},
	OnVirtualKeyPress:   {"OnVirtualKeyPress", SigInt},
	OnVirtualKeyHold:    {"OnVirtualKeyHold", SigInt},
	OnVirtualKeyRelease: {"OnVirtualKeyRelease", SigInt},
	OnMouseClick:        {"OnMouseClick", SigInt3},
	OnMouseClick2:       {"OnMouseClick2", SigInt3},
	OnMouseRelease:      {"OnMouseRelease", SigInt3},
	OnMouseWheel:        {"OnMouseWheel", SigInt3},
	OnMouseMove:         {"OnMouseMove", SigInt2},
	OnMouseDrag:         {"OnMouseDrag", SigInt2},
	OnMouseEnter:        {"OnMouseEnter", SigData},
	OnMouseLeave:        {"OnMouseLeave", SigData},
	OnUser1:             {"OnUser1", SigData},
	OnUser2:             {"OnUser2", SigData},
	OnUser3:             {"OnUser3", SigData},
	OnUserCommand:       {"OnUserCommand", SigIntRef},
}

// Symbol returns the exported symbol name a plugin uses for the slot.
func (s Slot) Symbol() string {
	if int(s) >= SlotCount {
		return ""
	}
	return slots[s].symbol
}

// Signature returns the calling shape of the slot.
func (s Slot) Signature() Signature {
	if int(s) >= SlotCount {
		return SigData
	}
	return slots[s].sig
}

// Valid reports whether s names a real slot.
func (s Slot) Valid() bool {
	return int(s) < SlotCount
}

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", uint8(s))
	}
	return slots[s].symbol
}

// Slots returns every slot in ABI order.
func Slots() []Slot {
	out := make([]Slot, SlotCount)
	for i := range out {
		out[i] = Slot(i)
	}
	return out
}

// SlotBySymbol looks a slot up by its exported symbol name.
func SlotBySymbol(symbol string) (Slot, bool) {
	for i, info := range slots {
		if info.symbol == symbol {
			return Slot(i), true
		}
	}
	return 0, false
}

// hotVariant returns the hot counterpart of a load-family slot when hot is set.
func hotVariant(s Slot, hot bool) Slot {
	if !hot {
		return s
	}
	switch s {
	case OnLoad:
		return OnHotLoad
	case OnReload:
		return OnHotReload
	case OnUnload:
		return OnHotUnload
	default:
		return s
	}
}
