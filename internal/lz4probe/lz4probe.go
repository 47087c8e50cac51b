// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package lz4probe implements the cheap first-pass compressor the
// early-abort heuristic runs before committing to a possibly expensive
// ZSTD level: LZ4 is fast enough to run speculatively on every
// heuristic-eligible block, and a block LZ4 can't shrink into a tightened
// budget is unlikely to be worth ZSTD's additional cost either.
package lz4probe

import "github.com/pierrec/lz4/v4"

// Result reports the outcome of a probe.
type Result struct {
	// Fits is true if the compressed result fit within the requested
	// budget.
	Fits bool
	// N is the number of bytes the probe produced. It is zero when Fits
	// is false and the compressor determined up front that src would not
	// fit in budget bytes.
	N int
}

// Run compresses src with LZ4 against a destination sized to exactly
// budget bytes, the way the heuristic's tightened budget works: fitting
// is a reject/allow signal, not a request for the smallest possible
// output.
func Run(src []byte, budget int) (Result, error) {
	if budget <= 0 {
		return Result{}, nil
	}
	var c lz4.Compressor
	dst := make([]byte, budget)
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return Result{}, err
	}
	// CompressBlock returns n == 0 when the compressed form didn't fit in
	// dst, the same "declined" signal zstd_zfs's LZ4 wrapper relies on.
	return Result{Fits: n > 0, N: n}, nil
}

// Budget computes the tightened destination budget for a source of length
// srcLen, shifting off 1/2^shift of it the way the heuristic's "s_len -
// (s_len >> lz4_shift)" computation does.
func Budget(srcLen, shift int) int {
	return srcLen - (srcLen >> shift)
}
