// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijkwin/ijkwin/internal/window"
	"github.com/ijkwin/ijkwin/pkg/errutil"
)

func TestQueue_PumpInOrder(t *testing.T) {
	q := window.NewQueue(4)
	ctx := context.Background()

	_, ok := q.PumpEvent()
	assert.False(t, ok)

	require.NoError(t, q.Post(ctx, window.RuneDown('a')))
	require.NoError(t, q.Post(ctx, window.RuneDown('b')))

	ev, ok := q.PumpEvent()
	require.True(t, ok)
	assert.Equal(t, 'a', ev.Rune)
	ev, ok = q.PumpEvent()
	require.True(t, ok)
	assert.Equal(t, 'b', ev.Rune)
}

func TestQueue_PostFromManyGoroutines(t *testing.T) {
	q := window.NewQueue(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, q.Post(ctx, window.Event{Kind: window.KindMove, X: int32(i)}))
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.PumpEvent(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 50, n)
}

func TestQueue_PostBlocksWhenFull(t *testing.T) {
	q := window.NewQueue(1)
	require.NoError(t, q.Post(context.Background(), window.Event{Kind: window.KindPaint}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Post(ctx, window.Event{Kind: window.KindPaint}), context.DeadlineExceeded)
}

func TestQueue_Close(t *testing.T) {
	q := window.NewQueue(2)
	ctx := context.Background()
	require.NoError(t, q.Post(ctx, window.Event{Kind: window.KindPaint}))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	errutil.AssertErrorCode(t, q.Post(ctx, window.Event{Kind: window.KindPaint}), window.CodeQueueClosed)
	_, ok := q.PumpEvent()
	assert.True(t, ok, "queued events survive close")
}

func TestQueue_WaitKeepsEvent(t *testing.T) {
	q := window.NewQueue(2)
	ctx := context.Background()

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = q.Post(ctx, window.RuneDown('z'))
	}()
	q.Wait(ctx, time.Second)

	ev, ok := q.PumpEvent()
	require.True(t, ok)
	assert.Equal(t, 'z', ev.Rune)
}

func TestQueue_WaitTimesOut(t *testing.T) {
	q := window.NewQueue(2)

	start := time.Now()
	q.Wait(context.Background(), 5*time.Millisecond)

	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	_, ok := q.PumpEvent()
	assert.False(t, ok)
}

func TestQueue_StatusAndFullScreen(t *testing.T) {
	q := window.NewQueue(1)

	q.SetStatus("hello")
	require.NoError(t, q.ToggleFullScreen())

	assert.Equal(t, "hello", q.Status())
	assert.True(t, q.FullScreen())
}

func TestPlatform_Lifecycle(t *testing.T) {
	p := window.NewPlatform(nil)

	require.NoError(t, p.Acquire())
	require.NoError(t, p.Acquire())
	assert.Equal(t, 2, p.Windows())

	p.Release()
	p.Release()
	p.Release()
	assert.Zero(t, p.Windows())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	errutil.AssertErrorCode(t, p.Acquire(), window.CodePlatformClosed)
}
