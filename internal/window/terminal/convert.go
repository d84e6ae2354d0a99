// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ijkwin/ijkwin/internal/window"
)

// pressButtons are the tcell buttons reported as clicks.
var pressButtons = []struct {
	mask   tcell.ButtonMask
	button int32
}{
	{tcell.Button1, window.ButtonLeft},
	{tcell.Button2, window.ButtonMiddle},
	{tcell.Button3, window.ButtonRight},
}

// convert turns one tcell event into zero or more window events. tcell
// reports mouse state rather than transitions, so button changes are derived
// from the previous state.
func (t *Terminal) convert(ev tcell.Event) []window.Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Key() == tcell.KeyRune {
			return []window.Event{window.RuneDown(e.Rune())}
		}
		k, ok := convertKey(e.Key())
		if !ok {
			return nil
		}
		return []window.Event{window.KeyDown(k)}

	case *tcell.EventMouse:
		return t.convertMouse(e)

	case *tcell.EventResize:
		w, h := e.Size()
		return []window.Event{{Kind: window.KindResize, Width: int32(w), Height: int32(h)}} //nolint:gosec // terminal sizes are small

	case *tcell.EventFocus:
		if e.Focused {
			return []window.Event{{Kind: window.KindActivate}}
		}
		return []window.Event{{Kind: window.KindDeactivate}}

	default:
		return nil
	}
}

func (t *Terminal) convertMouse(e *tcell.EventMouse) []window.Event {
	x, y := e.Position()
	px, py := int32(x), int32(y) //nolint:gosec // terminal coordinates are small
	buttons := e.Buttons()

	var out []window.Event
	switch {
	case buttons&tcell.WheelUp != 0:
		out = append(out, window.Event{Kind: window.KindMouseWheel, X: px, Y: py, Delta: 1})
	case buttons&tcell.WheelDown != 0:
		out = append(out, window.Event{Kind: window.KindMouseWheel, X: px, Y: py, Delta: -1})
	}

	t.mu.Lock()
	prev := t.buttons
	t.buttons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	now := t.buttons
	t.mu.Unlock()

	for _, b := range pressButtons {
		switch {
		case now&b.mask != 0 && prev&b.mask == 0:
			out = append(out, window.Event{Kind: window.KindMouseDown, X: px, Y: py, Button: b.button})
		case now&b.mask == 0 && prev&b.mask != 0:
			out = append(out, window.Event{Kind: window.KindMouseUp, X: px, Y: py, Button: b.button})
		}
	}
	if len(out) == 0 {
		out = append(out, window.Event{Kind: window.KindMouseMove, X: px, Y: py})
	}
	return out
}

var keyMap = map[tcell.Key]window.Key{
	tcell.KeyF1:         window.KeyF1,
	tcell.KeyF2:         window.KeyF2,
	tcell.KeyF3:         window.KeyF3,
	tcell.KeyF4:         window.KeyF4,
	tcell.KeyF5:         window.KeyF5,
	tcell.KeyF6:         window.KeyF6,
	tcell.KeyF7:         window.KeyF7,
	tcell.KeyF8:         window.KeyF8,
	tcell.KeyF9:         window.KeyF9,
	tcell.KeyF10:        window.KeyF10,
	tcell.KeyF11:        window.KeyF11,
	tcell.KeyF12:        window.KeyF12,
	tcell.KeyEscape:     window.KeyEscape,
	tcell.KeyEnter:      window.KeyEnter,
	tcell.KeyBackspace:  window.KeyBackspace,
	tcell.KeyBackspace2: window.KeyBackspace,
	tcell.KeyTab:        window.KeyTab,
	tcell.KeyUp:         window.KeyArrowUp,
	tcell.KeyDown:       window.KeyArrowDown,
	tcell.KeyLeft:       window.KeyArrowLeft,
	tcell.KeyRight:      window.KeyArrowRight,
	tcell.KeyHome:       window.KeyHome,
	tcell.KeyEnd:        window.KeyEnd,
	tcell.KeyPgUp:       window.KeyPageUp,
	tcell.KeyPgDn:       window.KeyPageDown,
	tcell.KeyInsert:     window.KeyInsert,
	tcell.KeyDelete:     window.KeyDelete,
}

func convertKey(k tcell.Key) (window.Key, bool) {
	wk, ok := keyMap[k]
	return wk, ok
}
