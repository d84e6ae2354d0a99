// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

// Package terminal provides a window.Native backed by a tcell screen.
package terminal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/samber/oops"

	"github.com/ijkwin/ijkwin/internal/window"
)

// Terminal is an interactive window on a terminal screen. A poll goroutine
// converts tcell events into window events; everything else reads and posts
// through an embedded window.Queue.
type Terminal struct {
	screen tcell.Screen
	queue  *window.Queue
	logger *slog.Logger

	mu      sync.Mutex
	status  string
	buttons tcell.ButtonMask

	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ window.Native           = (*Terminal)(nil)
	_ window.StatusWriter     = (*Terminal)(nil)
	_ window.CursorController = (*Terminal)(nil)
	_ window.Waiter           = (*Terminal)(nil)
)

// Open creates a terminal window on the controlling terminal.
func Open(logger *slog.Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, oops.Code(window.CodeUnsupported).Wrapf(err, "open terminal screen")
	}
	return New(screen, logger)
}

// New initializes screen and starts converting its events. The Terminal
// owns the screen from then on.
func New(screen tcell.Screen, logger *slog.Logger) (*Terminal, error) {
	if screen == nil {
		return nil, window.ErrInvalidParams("screen")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := screen.Init(); err != nil {
		return nil, oops.Code(window.CodeUnsupported).Wrapf(err, "init terminal screen")
	}
	screen.EnableMouse()
	screen.EnableFocus()
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		queue:  window.NewQueue(0),
		logger: logger,
		done:   make(chan struct{}),
	}

	w, h := screen.Size()
	t.forward(window.Event{Kind: window.KindResize, Width: int32(w), Height: int32(h)}) //nolint:gosec // terminal sizes are small

	go t.poll()
	return t, nil
}

// poll runs until the screen is finalized.
func (t *Terminal) poll() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		for _, out := range t.convert(ev) {
			t.forward(out)
		}
	}
}

func (t *Terminal) forward(ev window.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := t.queue.Post(ctx, ev); err != nil {
		t.logger.Debug("dropping terminal event", "kind", ev.Kind.String(), "error", err)
	}
}

// PumpEvent returns the next pending event.
func (t *Terminal) PumpEvent() (window.Event, bool) {
	return t.queue.PumpEvent()
}

// Wait blocks until an event is pending or d elapses.
func (t *Terminal) Wait(ctx context.Context, d time.Duration) {
	t.queue.Wait(ctx, d)
}

// Post enqueues an event from any goroutine.
func (t *Terminal) Post(ctx context.Context, ev window.Event) error {
	return t.queue.Post(ctx, ev)
}

// Close restores the terminal and stops the poll goroutine.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		_ = t.queue.Close()
		t.screen.Fini()
		<-t.done
	})
	return nil
}

// SetStatus draws text on the bottom row.
func (t *Terminal) SetStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = text

	w, h := t.screen.Size()
	if h == 0 {
		return
	}
	row := h - 1
	style := tcell.StyleDefault.Reverse(text != "")
	col := 0
	for _, r := range text {
		if col >= w {
			break
		}
		t.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < w; col++ {
		t.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
	}
	t.screen.Show()
}

// Status returns the text last drawn by SetStatus.
func (t *Terminal) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetCursorLocked is a no-op: terminals have no pointer grab.
func (t *Terminal) SetCursorLocked(bool) {}

// SetCursorHidden hides or shows the text cursor.
func (t *Terminal) SetCursorHidden(hidden bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hidden {
		t.screen.HideCursor()
		return
	}
	w, h := t.screen.Size()
	t.screen.ShowCursor(min(len([]rune(t.status)), w-1), h-1)
}

// Screen returns the underlying screen for plugins that draw on it.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}
