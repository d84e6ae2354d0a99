// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"context"
	"sync"
	"time"
)

// Native is the capability a concrete window system provides to the router.
type Native interface {
	// PumpEvent returns the next pending event without blocking.
	PumpEvent() (Event, bool)

	// Post enqueues an event for the router. Safe from any goroutine.
	Post(ctx context.Context, ev Event) error

	// Close destroys the native window. Posting afterwards fails.
	Close() error
}

// StatusWriter is implemented by windows that can show a single status line,
// used for the command prompt and info messages.
type StatusWriter interface {
	SetStatus(text string)
}

// CursorController is implemented by windows that can lock or hide the
// pointer.
type CursorController interface {
	SetCursorLocked(locked bool)
	SetCursorHidden(hidden bool)
}

// FullScreener is implemented by windows that can toggle full-screen mode.
type FullScreener interface {
	ToggleFullScreen() error
}

// Waiter is implemented by windows that can block until an event is pending.
// The router uses it to avoid spinning when there is nothing to draw.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration)
}

// DefaultQueueSize is the capacity of a Queue created with size <= 0.
const DefaultQueueSize = 256

// Queue is a headless Native backed by a bounded channel. It records the
// status line and full-screen state so it can stand in for a real window.
type Queue struct {
	events  chan Event
	pending *Event
	done    chan struct{}
	once    sync.Once

	mu         sync.Mutex
	status     string
	fullScreen bool
}

var (
	_ Native       = (*Queue)(nil)
	_ StatusWriter = (*Queue)(nil)
	_ FullScreener = (*Queue)(nil)
	_ Waiter       = (*Queue)(nil)
)

// NewQueue creates a queue holding up to size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// PumpEvent returns the next event, if any. Only the router calls it.
func (q *Queue) PumpEvent() (Event, bool) {
	if q.pending != nil {
		ev := *q.pending
		q.pending = nil
		return ev, true
	}
	select {
	case ev := <-q.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// Wait blocks until an event is pending, d elapses or ctx is done. Only the
// router calls it.
func (q *Queue) Wait(ctx context.Context, d time.Duration) {
	if q.pending != nil {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case ev := <-q.events:
		q.pending = &ev
	case <-timer.C:
	case <-ctx.Done():
	case <-q.done:
	}
}

// Post enqueues ev, blocking while the queue is full.
func (q *Queue) Post(ctx context.Context, ev Event) error {
	select {
	case <-q.done:
		return ErrQueueClosed()
	default:
	}
	select {
	case q.events <- ev:
		return nil
	case <-q.done:
		return ErrQueueClosed()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. Events already queued can still be pumped.
func (q *Queue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

// SetStatus records the status line.
func (q *Queue) SetStatus(text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status = text
}

// Status returns the last status line.
func (q *Queue) Status() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// ToggleFullScreen flips the recorded full-screen state.
func (q *Queue) ToggleFullScreen() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fullScreen = !q.fullScreen
	return nil
}

// FullScreen reports the recorded full-screen state.
func (q *Queue) FullScreen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fullScreen
}
