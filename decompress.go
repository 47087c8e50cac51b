// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package zioblock

import (
	"github.com/cockroachdb/crlib/crtime"
	"github.com/cockroachdb/errors"

	"github.com/zioblock/zioblock/internal/alloc"
	"github.com/zioblock/zioblock/internal/levelmap"
	"github.com/zioblock/zioblock/internal/zframe"
	"github.com/zioblock/zioblock/internal/zstats"
)

// ErrDecompressFailed wraps every error Decompress and DecompressWithLevel
// can return, so callers that only care whether decoding succeeded can use
// errors.Is against a single sentinel.
var ErrDecompressFailed = errors.New("zioblock: decompress failed")

// Decompress decodes the frame in src into dst, which must be sized to
// exactly hold the decompressed payload. It corresponds to
// decompress_with_level with the level output discarded.
func (a *Adapter) Decompress(dst, src []byte) error {
	_, err := a.decompressWithLevel(dst, src, false)
	return err
}

// DecompressWithLevel decodes the frame in src into dst and additionally
// returns the level enum the frame was compressed at.
func (a *Adapter) DecompressWithLevel(dst, src []byte) (int, error) {
	return a.decompressWithLevel(dst, src, true)
}

func (a *Adapter) decompressWithLevel(dst, src []byte, wantLevel bool) (int, error) {
	hdr, payload, err := zframe.DecodeHeader(src)
	if err != nil {
		// DecodeHeader reports both a malformed length and an
		// unrecognized level enum via ErrHeaderInvalid; in the level case
		// the error also wraps levelmap.ErrLevelInvalid, so the
		// statistics schema can tell the two apart.
		if errors.Is(err, levelmap.ErrLevelInvalid) {
			a.stats.Bump(zstats.DecInval)
		} else {
			a.stats.Bump(zstats.DecHeaderInval)
		}
		return 0, errors.Mark(errors.Wrap(err, "zioblock: decode header"), ErrDecompressFailed)
	}

	// The decompression allocator must not fail: a failed decompression is
	// user-visible data loss. Reserve is called for accounting only; its
	// Decompression personality is always admitted regardless of budget.
	rec, _ := a.decAlloc.Reserve(alloc.Decompression, int64(len(dst)))
	defer a.decAlloc.Release(rec)

	ctx := a.dctxPool.Grab()
	if ctx == nil {
		// The decompression context pool's allocFn does not fail in
		// either codec binding, but the contract allows for it.
		a.stats.Bump(zstats.DecAllocFail)
		return 0, errors.Mark(errors.New("zioblock: decompression context unavailable"), ErrDecompressFailed)
	}
	defer a.dctxPool.Ungrab(ctx)

	start := crtime.NowMono()
	_, err = ctx.Decompress(dst, payload)
	a.stats.RecordDecompressLatency(start.Elapsed())
	if err != nil {
		a.stats.Bump(zstats.DecFail)
		return 0, errors.Mark(errors.Wrap(err, "zioblock: codec decompress"), ErrDecompressFailed)
	}

	if wantLevel {
		return hdr.Level, nil
	}
	return 0, nil
}
