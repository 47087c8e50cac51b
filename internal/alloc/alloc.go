// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package alloc realizes the codec's malloc/free contract against a
// budgeted byte pool, the way OpenZFS's zstd_alloc_cb/zstd_free_cb pair
// realizes it against vmem_alloc: every allocation is tagged with a small
// header recording its size, so release doesn't need a side map, and the
// two personalities the codec can run under — compression and
// decompression — get different failure behavior under pressure.
//
// The Go ZSTD bindings this module builds on (DataDog/zstd, klauspost's
// compress/zstd) don't expose a pluggable allocator the way the C library
// does, so Shim doesn't sit underneath the codec's own scratch memory.
// Instead it gates the destination staging buffer the compression and
// decompression pipelines allocate per call, which is where allocation
// pressure is actually visible to a Go caller and where the non-blocking
// vs. blocking distinction has an observable effect.
package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/zioblock/zioblock/internal/invariants"
)

// HeaderLen is the size, in bytes, that every accounted allocation carries
// as bookkeeping overhead, mirroring the zstd_kmem_hdr prefix OpenZFS
// stores ahead of every allocation it hands to the codec.
const HeaderLen = 8

// ErrAllocFailed is returned by Reserve when a non-blocking reservation
// could not be satisfied within budget.
var ErrAllocFailed = errors.New("zioblock: allocator returned null")

// Personality selects which of the two allocation policies Reserve applies.
type Personality int

const (
	// Compression reservations are non-blocking: Reserve fails immediately
	// if satisfying them would exceed budget, so the write path can fall
	// back to storing the block uncompressed rather than stall.
	Compression Personality = iota
	// Decompression reservations must not fail: if the budget is
	// exhausted, Reserve admits the request anyway, the way the "try
	// harder" opaque!=0 path falls back to a blocking allocation rather
	// than hand the codec a null pointer and turn a read into an error.
	Decompression
)

// String implements fmt.Stringer.
func (p Personality) String() string {
	if p == Decompression {
		return "decompression"
	}
	return "compression"
}

// Record is the bookkeeping counterpart of an admitted reservation. It
// must be passed back to Release exactly once.
type Record struct {
	size        int64
	personality Personality
	forced      bool
	closed      invariants.CloseChecker
}

// Size returns the number of bytes the record reserved, not counting
// HeaderLen.
func (r *Record) Size() int64 { return r.size }

// Shim tracks a byte budget shared across every reservation a pool of
// codec contexts makes, standing in for the kernel's vmem arena in the
// allocator callbacks this package is modeled on.
type Shim struct {
	// Budget is the number of payload bytes (excluding per-record
	// overhead) Reserve admits before Compression reservations start
	// failing. Zero means unlimited.
	Budget int64

	mu        sync.Mutex
	inUse     int64
	allocFail atomic.Uint64
	forced    atomic.Uint64
}

// Reserve requests n bytes under the given personality. A Compression
// reservation that would exceed Budget fails with ErrAllocFailed and bumps
// the allocation-failure counter, exactly as zstd_alloc_cb returns NULL
// under memory pressure when opaque is nil. A Decompression reservation is
// always admitted: if it would exceed Budget it is still granted, counted
// separately as "forced", mirroring the KM_SLEEP fallback a decompression
// allocation takes rather than returning NULL to the caller.
func (s *Shim) Reserve(personality Personality, n int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fits := s.Budget <= 0 || s.inUse+n <= s.Budget
	if !fits {
		if personality == Compression {
			s.allocFail.Add(1)
			return nil, errors.Wrapf(ErrAllocFailed, "reserve %d bytes over budget %d", n, s.Budget)
		}
		s.forced.Add(1)
	}

	s.inUse += n
	return &Record{size: n, personality: personality, forced: !fits}, nil
}

// Release returns rec's bytes to the budget. Release must not be called
// more than once for a given Record; doing so panics in invariant builds.
func (s *Shim) Release(rec *Record) {
	if rec == nil {
		return
	}
	rec.closed.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inUse = invariants.SafeSub(s.inUse, rec.size)
	rec.size = 0
}

// InUse reports the number of payload bytes currently reserved.
func (s *Shim) InUse() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}

// AllocFailures returns the number of Compression reservations that were
// refused for lack of budget.
func (s *Shim) AllocFailures() uint64 { return s.allocFail.Load() }

// ForcedAllocs returns the number of Decompression reservations that were
// admitted despite exceeding budget.
func (s *Shim) ForcedAllocs() uint64 { return s.forced.Load() }
