// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package window routes native window events into a plugin's callback table
// and runs the control protocol that loads, reloads, unloads and rebuilds
// plugins.
package window

// Kind identifies the type of an Event.
type Kind uint8

// Event kinds.
const (
	KindNone Kind = iota
	KindKeyDown
	KindKeyUp
	KindMouseDown
	KindMouseDoubleClick
	KindMouseUp
	KindMouseWheel
	KindMouseMove
	KindMouseEnter
	KindMouseLeave
	KindMove
	KindResize
	KindActivate
	KindDeactivate
	KindPaint
	KindClose
	KindControl
)

var kindNames = [...]string{
	KindNone:             "none",
	KindKeyDown:          "key_down",
	KindKeyUp:            "key_up",
	KindMouseDown:        "mouse_down",
	KindMouseDoubleClick: "mouse_double_click",
	KindMouseUp:          "mouse_up",
	KindMouseWheel:       "mouse_wheel",
	KindMouseMove:        "mouse_move",
	KindMouseEnter:       "mouse_enter",
	KindMouseLeave:       "mouse_leave",
	KindMove:             "move",
	KindResize:           "resize",
	KindActivate:         "activate",
	KindDeactivate:       "deactivate",
	KindPaint:            "paint",
	KindClose:            "close",
	KindControl:          "control",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Key is a virtual key code. Values are passed unchanged to the plugin's
// virtual-key callbacks.
type Key int32

// Virtual keys. KeyNone marks a printable key carried in Event.Rune.
const (
	KeyNone Key = iota
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
)

// Mouse buttons.
const (
	ButtonLeft int32 = iota
	ButtonRight
	ButtonMiddle
)

// Event is one message from a native window. Which fields are meaningful
// depends on Kind.
type Event struct {
	Kind Kind

	// Key events.
	Key    Key
	Rune   rune
	Repeat bool

	// Mouse events and Move.
	Button int32
	X, Y   int32
	Delta  int32

	// Resize.
	Width, Height int32

	// KindControl.
	Control Control
}

// KeyDown returns a key press event for a virtual key.
func KeyDown(k Key) Event {
	return Event{Kind: KindKeyDown, Key: k}
}

// KeyUp returns a key release event for a virtual key.
func KeyUp(k Key) Event {
	return Event{Kind: KindKeyUp, Key: k}
}

// RuneDown returns a key press event for a printable character.
func RuneDown(r rune) Event {
	return Event{Kind: KindKeyDown, Rune: r}
}

// ControlEvent wraps a control message as an event.
func ControlEvent(c Control) Event {
	return Event{Kind: KindControl, Control: c}
}
