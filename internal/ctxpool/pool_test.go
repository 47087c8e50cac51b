// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ctxpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type widget struct {
	resets int
	freed  bool
}

func newCountingPool(allocs, frees *atomic.Int64, reapInterval time.Duration) *Pool[widget] {
	return New(
		func() *widget {
			allocs.Add(1)
			return &widget{}
		},
		func(w *widget) {
			frees.Add(1)
			w.freed = true
		},
		func(w *widget) { w.resets++ },
		reapInterval,
	)
}

func TestGrabAllocatesWhenEmpty(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Millisecond)

	w := p.Grab()
	require.NotNil(t, w)
	require.EqualValues(t, 1, allocs.Load())
	require.Equal(t, 1, p.Len())
}

func TestUngrabThenGrabReusesAndResets(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Millisecond)

	w := p.Grab()
	p.Ungrab(w)
	require.EqualValues(t, 1, allocs.Load())

	w2 := p.Grab()
	require.Same(t, w, w2)
	require.Equal(t, 1, w2.resets)
	require.EqualValues(t, 1, allocs.Load(), "second grab should reuse, not allocate")
}

func TestReapRefusesWithOutstandingBorrow(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Nanosecond)

	w := p.Grab()
	time.Sleep(2 * time.Millisecond)
	p.Reap()
	require.EqualValues(t, 0, frees.Load(), "reap must not free while a context is on loan")

	p.Ungrab(w)
	time.Sleep(2 * time.Millisecond)
	p.Reap()
	require.EqualValues(t, 1, frees.Load())
	require.Equal(t, 0, p.Len())
}

func TestReapRespectsInterval(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Hour)

	w := p.Grab()
	p.Ungrab(w)
	p.Reap()
	require.EqualValues(t, 0, frees.Load(), "reap interval has not elapsed")
}

func TestUngrabWithoutHoleFreesInstead(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Hour)

	// A context this pool never lent out: every slot is already occupied
	// by the time it's ungrabbed, so there's no hole to return it to.
	stray := &widget{}
	p.Ungrab(stray)
	require.True(t, stray.freed)
	require.Equal(t, 0, p.Len())
}

func TestDestroyFreesAll(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Hour)

	w1 := p.Grab()
	w2 := p.Grab()
	p.Ungrab(w1)
	p.Ungrab(w2)
	require.Equal(t, 2, p.Len())

	p.Destroy()
	require.EqualValues(t, 2, frees.Load())
	require.Equal(t, 0, p.Len())
}

func TestConcurrentGrabUngrab(t *testing.T) {
	var allocs, frees atomic.Int64
	p := newCountingPool(&allocs, &frees, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w := p.Grab()
				require.NotNil(t, w)
				p.Ungrab(w)
			}
		}()
	}
	wg.Wait()
}
