// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package ctxpool implements the elastic free-list OpenZFS's objpool_t
// uses to recycle ZSTD compression and decompression contexts: a slot
// array where a live pointer is a free context and a nil slot is a "hole"
// marking a context currently on loan, so Grab and Ungrab never need a
// separate in-use set. The cost of that trick is that Reap may only free
// the pool's contexts when every slot is non-nil — any nil slot means a
// caller still holds a borrow, and the backing array can't be invalidated
// out from under it.
//
// Pool is generic so the same implementation backs both the compression
// and decompression context pools without duplicating the bookkeeping.
package ctxpool

import (
	"sync"
	"time"

	"github.com/cockroachdb/crlib/crtime"

	"github.com/zioblock/zioblock/internal/invariants"
)

// DefaultReapInterval is how long a pool must sit fully idle — every
// context checked in, none on loan — before Reap frees its contexts.
const DefaultReapInterval = 15 * time.Second

// Pool is a generic elastic free-list of *T. The zero value is not usable;
// construct one with New.
type Pool[T any] struct {
	allocFn func() *T
	freeFn  func(*T)
	resetFn func(*T)

	reapInterval time.Duration

	mu         sync.Mutex
	slots      []*T
	lastAccess crtime.Mono
	destroyed  invariants.CloseChecker
}

// New constructs a Pool. allocFn creates a new *T, returning nil if none
// could be allocated (for example because of allocator pressure); freeFn
// destroys one; resetFn restores a borrowed *T to a reusable state before
// it's handed back out. reapInterval is the idle duration Reap requires
// before it will free an all-idle pool; a non-positive value uses
// DefaultReapInterval.
func New[T any](allocFn func() *T, freeFn func(*T), resetFn func(*T), reapInterval time.Duration) *Pool[T] {
	if reapInterval <= 0 {
		reapInterval = DefaultReapInterval
	}
	return &Pool[T]{
		allocFn:      allocFn,
		freeFn:       freeFn,
		resetFn:      resetFn,
		reapInterval: reapInterval,
		lastAccess:   crtime.NowMono(),
	}
}

// Grab lends a context to the caller. It returns nil only if allocFn
// returned nil when the pool needed to create a new context; a nil result
// is not an error, just "no context available right now."
func (p *Pool[T]) Grab() *T {
	p.mu.Lock()

	for i, slot := range p.slots {
		if slot != nil {
			p.slots[i] = nil
			p.resetFn(slot)
			p.mu.Unlock()
			return slot
		}
	}

	obj := p.allocFn()
	if obj == nil {
		p.mu.Unlock()
		return nil
	}

	// Grow the slot array by one to hold a hole for this new borrow. Every
	// existing slot is nil at this point — the scan above only reaches
	// here when it found no free context — so there's no order to
	// preserve; unlike the allocator this pool is modeled on, append
	// cannot fail, so there is no analogue of the "growth failure is
	// tolerated" branch.
	p.slots = append(p.slots, nil)

	p.mu.Unlock()
	return obj
}

// Ungrab returns a borrowed context to the pool. If every slot is
// currently occupied by a free context (no hole is open — which should not
// happen for a context this pool actually lent out), the context is freed
// instead of retained, the same fallback objpool_t takes when it can't
// find a slot to store a returned object in.
func (p *Pool[T]) Ungrab(obj *T) {
	if obj == nil {
		return
	}

	p.mu.Lock()
	gotSlot := false
	for i, slot := range p.slots {
		if slot == nil {
			p.slots[i] = obj
			gotSlot = true
			break
		}
	}
	p.lastAccess = crtime.NowMono()
	p.mu.Unlock()

	if !gotSlot {
		p.freeFn(obj)
	}
}

// Reap frees every context in the pool if the pool has been idle for at
// least its configured reap interval and no context is currently on loan.
// If any context is on loan (a nil slot is present), Reap does nothing and
// leaves the idle timer untouched, so the next fully-idle window gets a
// fresh chance to reap.
func (p *Pool[T]) Reap() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastAccess.Elapsed() < p.reapInterval {
		return
	}
	p.clearUnusedLocked()
}

// Destroy frees every context in the pool. Callers must ensure every
// borrowed context has been returned via Ungrab before calling Destroy;
// Destroy does not wait for outstanding borrows. Destroy must not be
// called more than once on the same Pool; doing so panics in invariant
// builds.
func (p *Pool[T]) Destroy() {
	p.destroyed.Close()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearUnusedLocked()
}

// clearUnusedLocked frees every context in the pool, but only if every
// slot holds a free context — any nil slot means a borrow is still
// outstanding and the array must not be invalidated.
func (p *Pool[T]) clearUnusedLocked() {
	for _, slot := range p.slots {
		if slot == nil {
			return
		}
	}
	for _, slot := range p.slots {
		p.freeFn(slot)
	}
	p.slots = nil
	p.lastAccess = crtime.NowMono()
}

// Len returns the number of slots currently tracked by the pool,
// including holes for outstanding borrows. It is intended for tests and
// diagnostics.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
