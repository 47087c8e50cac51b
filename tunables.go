// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package zioblock

import "sync/atomic"

// FirstPassMode selects which level the early-abort heuristic's fast ZSTD
// probe runs at, once the LZ4 probe has rejected a block.
type FirstPassMode int32

const (
	// FirstPassLevel1 runs the probe at ZSTD level 1.
	FirstPassLevel1 FirstPassMode = 1
	// FirstPassLevel2 runs the probe at ZSTD level 2.
	FirstPassLevel2 FirstPassMode = 2
	// FirstPassTunedFast would run the probe against a synthetic tuned
	// "fast" parameter set. Its exact parameters are unresolved; Tunables
	// accepts the value but CompressWithHeuristic currently treats it the
	// same as FirstPassLevel1 rather than guess at an undocumented
	// profile.
	FirstPassTunedFast FirstPassMode = 3
)

// Tunables holds the runtime-writable knobs that govern the early-abort
// heuristic, mirroring the module parameters OpenZFS exposes for its zstd
// driver (zstd_lz4_pass, zstd_abort_size, and so on). Every field is
// backed by an atomic so it may be read on a hot compression path while
// another goroutine adjusts it, the way a sysctl write races ordinary
// reads in the source this is modeled on.
type Tunables struct {
	// Lz4Pass enables the LZ4 probe stage of the heuristic.
	Lz4Pass atomic.Bool
	// ZstdPass enables the fast-level ZSTD probe stage, run only after the
	// LZ4 probe rejects a block.
	ZstdPass atomic.Bool
	// FirstPassMode selects which level the ZSTD probe runs at.
	FirstPassMode atomic.Int32
	// CutoffLevel is the minimum requested level, inclusive, at or above
	// which the heuristic engages. Below it, CompressWithHeuristic skips
	// straight to the requested level.
	CutoffLevel atomic.Int32
	// AbortSize is the minimum block size, in bytes, for which the
	// heuristic engages. Smaller blocks skip straight to the requested
	// level; the heuristic's overhead isn't worth it below this size.
	AbortSize atomic.Int64
	// Lz4ShiftSize is the number of bits subtracted from a block's size to
	// compute the LZ4 probe's tightened destination budget.
	Lz4ShiftSize atomic.Int32
	// HardMode, when true, forces the heuristic to run regardless of
	// CutoffLevel and AbortSize. It exists for tests that need
	// deterministic heuristic engagement.
	HardMode atomic.Bool

	// EaDivisionMode, EaDivisor, and EaLevelFactor are reserved for a
	// level-scaled abort-size computation that exists as inert tunables
	// only: the source this is modeled on comments out the computation
	// that would use them, and this module preserves that by never
	// reading them from the heuristic path. They are retained so that a
	// future implementation has somewhere to put that logic without
	// changing the Tunables shape.
	EaDivisionMode atomic.Int32
	EaDivisor      atomic.Int32
	EaLevelFactor  atomic.Int32
}

// Default tunable values, chosen to match the heuristic defaults.
const (
	DefaultCutoffLevel  = 3
	DefaultAbortSize    = 131072
	DefaultLz4ShiftSize = 3
)

// EnsureDefaults sets every tunable to its default value. It must be
// called once, before the Tunables is used, typically via Open.
func (t *Tunables) EnsureDefaults() *Tunables {
	t.Lz4Pass.Store(true)
	t.ZstdPass.Store(false)
	t.FirstPassMode.Store(int32(FirstPassLevel1))
	t.CutoffLevel.Store(DefaultCutoffLevel)
	t.AbortSize.Store(DefaultAbortSize)
	t.Lz4ShiftSize.Store(DefaultLz4ShiftSize)
	t.HardMode.Store(false)
	return t
}
