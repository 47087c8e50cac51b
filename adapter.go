// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package zioblock implements a block-level ZSTD compression adapter: for
// each fixed-size logical block handed to it, Compress (or
// CompressWithHeuristic) produces a self-describing compressed frame that
// Decompress can later decode without any external index, and records
// enough metadata in the frame to select the correct decompression
// settings.
//
// The package mirrors the way OpenZFS's zstd driver is organized — a pair
// of elastic context pools, an early-abort heuristic gating expensive
// compression behind a cheap LZ4 probe, and a fixed-schema statistics
// sink — adapted to an explicit, passable Adapter rather than module-wide
// globals. A thin package-level convenience API backed by a process-wide
// singleton is provided for hosts that want the global form.
package zioblock

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/zioblock/zioblock/internal/alloc"
	"github.com/zioblock/zioblock/internal/base"
	"github.com/zioblock/zioblock/internal/ctxpool"
	"github.com/zioblock/zioblock/internal/zstats"
	"github.com/zioblock/zioblock/internal/zstdcodec"
)

// CodecVersion is the opaque version number stamped into every frame this
// package produces. It is read back but not currently interpreted by
// Decompress; it exists as a hook for a future codec to diverge its
// decoding based on the version a frame was written under.
const CodecVersion = 1

// Adapter owns the pools, allocator budgets, and statistics sink behind
// every Compress/Decompress call. The zero value is not usable; construct
// one with Open.
type Adapter struct {
	tunables *Tunables
	stats    *zstats.Sink
	logger   base.Logger

	comAlloc *alloc.Shim
	decAlloc *alloc.Shim

	cctxPool *ctxpool.Pool[zstdcodec.CCtx]
	dctxPool *ctxpool.Pool[zstdcodec.DCtx]
}

// Options configures Open. The zero value is valid; EnsureDefaults fills
// in every unset field.
type Options struct {
	// Tunables governs the early-abort heuristic. If nil, Open constructs
	// one with its defaults.
	Tunables *Tunables
	// Logger is stored on the Adapter; no Compress, Decompress or pool
	// path writes to it. If nil, Open uses base.DefaultLogger.
	Logger base.Logger
	// CompressionBudget caps the bytes the compression allocator shim will
	// admit before refusing non-blocking reservations. Zero means
	// unlimited.
	CompressionBudget int64
}

// EnsureDefaults fills in every unset field of o and returns it.
func (o *Options) EnsureDefaults() *Options {
	if o.Tunables == nil {
		o.Tunables = (&Tunables{}).EnsureDefaults()
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// Open creates the pools and statistics sink backing an Adapter. It
// corresponds to the source's init(): a process may run several Adapters
// side by side, each with its own pools and budgets.
func Open(opts Options) (*Adapter, error) {
	opts.EnsureDefaults()

	a := &Adapter{
		tunables: opts.Tunables,
		stats:    zstats.NewSink(),
		logger:   opts.Logger,
		comAlloc: &alloc.Shim{Budget: opts.CompressionBudget},
		decAlloc: &alloc.Shim{},
	}

	a.cctxPool = ctxpool.New(
		func() *zstdcodec.CCtx {
			ctx := zstdcodec.NewCCtx()
			if ctx != nil {
				a.stats.Bump(zstats.CCtxPoolAllocs)
			}
			return ctx
		},
		func(ctx *zstdcodec.CCtx) { ctx.Close() },
		func(ctx *zstdcodec.CCtx) { ctx.Reset() },
		0,
	)
	a.dctxPool = ctxpool.New(
		func() *zstdcodec.DCtx {
			ctx := zstdcodec.NewDCtx()
			if ctx != nil {
				a.stats.Bump(zstats.DCtxPoolAllocs)
			}
			return ctx
		},
		func(ctx *zstdcodec.DCtx) { ctx.Close() },
		func(ctx *zstdcodec.DCtx) { ctx.Reset() },
		0,
	)

	return a, nil
}

// Close destroys the adapter's pools and statistics sink. It must not be
// called while any Compress/Decompress call is in flight.
func (a *Adapter) Close() error {
	a.cctxPool.Destroy()
	a.dctxPool.Destroy()
	return nil
}

// ReapNow runs Reap on both pools: each pool frees its contexts only if it
// has been idle for its reap interval and none of its contexts is on loan.
// Hosts call this opportunistically when memory pressure rises.
func (a *Adapter) ReapNow() {
	before := a.cctxPool.Len()
	a.cctxPool.Reap()
	if after := a.cctxPool.Len(); after < before {
		a.stats.Add(zstats.CCtxPoolReaped, uint64(before-after))
	}

	before = a.dctxPool.Len()
	a.dctxPool.Reap()
	if after := a.dctxPool.Len(); after < before {
		a.stats.Add(zstats.DCtxPoolReaped, uint64(before-after))
	}
}

// Stats returns a snapshot of every named statistics counter.
func (a *Adapter) Stats() map[string]uint64 {
	return a.stats.Snapshot()
}

// Tunables returns the adapter's tunables, for hosts that want to adjust
// the heuristic's knobs at runtime.
func (a *Adapter) Tunables() *Tunables {
	return a.tunables
}

// CompressLatencyPercentile returns the sampled compression call latency
// at the given percentile (0..100), zero if no call has been sampled yet.
func (a *Adapter) CompressLatencyPercentile(p float64) time.Duration {
	return a.stats.CompressLatencyPercentile(p)
}

// DecompressLatencyPercentile returns the sampled decompression call
// latency at the given percentile (0..100), zero if no call has been
// sampled yet.
func (a *Adapter) DecompressLatencyPercentile(p float64) time.Duration {
	return a.stats.DecompressLatencyPercentile(p)
}

var (
	defaultOnce    sync.Once
	defaultAdapter *Adapter
	defaultErr     error
)

// Default returns the process-wide singleton Adapter, constructing it
// with default Options on first use. It exists for hosts that have no
// natural place to thread an *Adapter through and want the convenience
// wrapper functions (Compress, Decompress, and so on) at package scope.
func Default() *Adapter {
	defaultOnce.Do(func() {
		defaultAdapter, defaultErr = Open(Options{})
	})
	if defaultErr != nil {
		// Open as implemented today cannot fail, but callers of the
		// package-level convenience wrappers have no error return to
		// propagate a future failure through.
		panic(errors.Wrapf(defaultErr, "zioblock: failed to open default adapter"))
	}
	return defaultAdapter
}

// Compress is a package-level convenience wrapper around
// Default().Compress.
func Compress(dst, src []byte, level int) []byte {
	return Default().Compress(dst, src, level)
}

// CompressWithHeuristic is a package-level convenience wrapper around
// Default().CompressWithHeuristic.
func CompressWithHeuristic(dst, src []byte, level int) []byte {
	return Default().CompressWithHeuristic(dst, src, level)
}

// Decompress is a package-level convenience wrapper around
// Default().Decompress.
func Decompress(dst, src []byte) error {
	return Default().Decompress(dst, src)
}

// DecompressWithLevel is a package-level convenience wrapper around
// Default().DecompressWithLevel.
func DecompressWithLevel(dst, src []byte) (int, error) {
	return Default().DecompressWithLevel(dst, src)
}

// ReapNow is a package-level convenience wrapper around
// Default().ReapNow.
func ReapNow() {
	Default().ReapNow()
}
