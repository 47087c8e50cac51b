// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package zioblock

import (
	"github.com/cockroachdb/crlib/crtime"

	"github.com/zioblock/zioblock/internal/alloc"
	"github.com/zioblock/zioblock/internal/levelmap"
	"github.com/zioblock/zioblock/internal/lz4probe"
	"github.com/zioblock/zioblock/internal/zframe"
	"github.com/zioblock/zioblock/internal/zstats"
)

// Compress compresses src at level, appending the framed result to dst
// and returning the extended slice. It returns nil if the level is invalid, if a
// context or staging buffer could not be obtained, if the codec failed,
// or if compression would not have saved space — in every case the
// caller must store src uncompressed instead. This nil-means-declined
// convention replaces the "produced length equals source length" sentinel
// a fixed-buffer C API needs; a Go slice has no such ambiguity between "no
// output" and "output of a particular length."
func (a *Adapter) Compress(dst, src []byte, level int) []byte {
	return a.compress(dst, src, level)
}

// CompressWithHeuristic compresses src at level the same way Compress
// does, except that when level is at or above the configured cutoff and
// src is at least the configured abort size, it first runs the early-abort
// heuristic: a cheap LZ4 probe against a tightened budget, and optionally
// a fast ZSTD probe if LZ4 rejects, to decide whether the expensive
// requested level is worth running at all.
func (a *Adapter) CompressWithHeuristic(dst, src []byte, level int) []byte {
	if a.heuristicApplies(level, len(src)) {
		if !a.runHeuristic(src, level) {
			return nil
		}
	} else {
		a.stats.Bump(zstats.PassIgnored)
		if int64(len(src)) < a.tunables.AbortSize.Load() {
			a.stats.Bump(zstats.PassIgnoredSize)
		}
	}
	return a.compress(dst, src, level)
}

// heuristicApplies reports whether the early-abort heuristic should run
// for a block of the given size at the given level.
func (a *Adapter) heuristicApplies(level, srcLen int) bool {
	if a.tunables.HardMode.Load() {
		return true
	}
	if !a.tunables.Lz4Pass.Load() {
		return false
	}
	if int32(level) < int32(a.tunables.CutoffLevel.Load()) {
		return false
	}
	return int64(srcLen) >= a.tunables.AbortSize.Load()
}

// runHeuristic runs the LZ4 probe and, if enabled and needed, the fast
// ZSTD probe, reporting whether src is worth compressing at the requested
// level.
func (a *Adapter) runHeuristic(src []byte, level int) bool {
	shift := int(a.tunables.Lz4ShiftSize.Load())
	budget := lz4probe.Budget(len(src), shift)

	res, err := lz4probe.Run(src, budget)
	if err == nil && res.Fits {
		a.stats.Bump(zstats.Lz4PassAllowed)
		return true
	}
	a.stats.Bump(zstats.Lz4PassRejected)

	if !a.tunables.ZstdPass.Load() {
		return false
	}

	probeLevel := int(a.tunables.FirstPassMode.Load())
	if probeLevel != int(FirstPassLevel1) && probeLevel != int(FirstPassLevel2) {
		// FirstPassTunedFast has no resolved parameter set; fall back to
		// the level-1 probe rather than fabricate one.
		probeLevel = int(FirstPassLevel1)
	}

	probeOut := a.compress(nil, src, probeLevel)
	if probeOut == nil || len(probeOut) >= budget {
		a.stats.Bump(zstats.ZstdPassRejected)
		return false
	}
	a.stats.Bump(zstats.ZstdPassAllowed)
	return true
}

// compressBoundEstimate approximates the destination size a one-shot ZSTD
// compression of n bytes might need, for the purpose of sizing the
// allocator shim's reservation. It does not need to be exact — the codec
// binding sizes its own actual buffer — only large enough that legitimate
// reservations aren't refused outright.
func compressBoundEstimate(n int) int64 {
	return int64(n) + int64(n)/255 + 64
}

func (a *Adapter) compress(dst, src []byte, level int) []byte {
	codecLevel, err := levelmap.ToCodecLevel(level)
	if err != nil {
		a.stats.Bump(zstats.ComInval)
		return nil
	}

	rec, err := a.comAlloc.Reserve(alloc.Compression, compressBoundEstimate(len(src)))
	if err != nil {
		a.stats.Bump(zstats.ComAllocFail)
		return nil
	}
	defer a.comAlloc.Release(rec)

	ctx := a.cctxPool.Grab()
	if ctx == nil {
		a.stats.Bump(zstats.ComAllocFail)
		return nil
	}
	defer a.cctxPool.Ungrab(ctx)

	start := crtime.NowMono()
	compressed, err := ctx.Compress(nil, src, codecLevel)
	a.stats.RecordCompressLatency(start.Elapsed())
	if err != nil {
		a.stats.Bump(zstats.ComFail)
		return nil
	}

	if len(compressed)+zframe.HeaderLen >= len(src) {
		// WouldNotSave: the codec succeeded but the result isn't worth
		// using. This is an expected outcome, not a failure, so it does
		// not bump com_fail.
		return nil
	}

	out, err := zframe.EncodeHeader(dst, zframe.Header{
		CompressedLen: uint32(len(compressed)),
		Version:       CodecVersion,
		Level:         level,
	})
	if err != nil {
		// Can only happen if level failed validation above, which it
		// didn't, or if CodecVersion somehow overflowed, which it can't.
		a.stats.Bump(zstats.ComFail)
		return nil
	}
	return append(out, compressed...)
}
