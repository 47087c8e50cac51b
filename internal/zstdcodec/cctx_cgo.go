// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package zstdcodec

import "github.com/DataDog/zstd"

// CCtx is a reusable compression context bound to the real ZSTD library.
type CCtx struct {
	ctx zstd.Ctx
}

// NewCCtx allocates a CCtx. It never returns nil on the cgo path; the
// nil-on-failure contract ctxpool.Pool.Grab documents exists for
// allocators that can fail under pressure, which this one, backed by a Go
// heap allocation rather than a fixed arena, does not.
func NewCCtx() *CCtx {
	return &CCtx{ctx: zstd.NewCtx()}
}

// Compress compresses src at the given level, appending to dst[:0], and
// returns the result with its native zstd frame magic stripped off the
// front (see the package doc). CompressLevel's simple API builds a frame
// with checksums off and content size on by the C library's own defaults;
// it exposes no parameter to turn content-size storage off, which is
// recorded as an open question in DESIGN.md.
func (c *CCtx) Compress(dst, src []byte, level int) ([]byte, error) {
	bound := zstd.CompressBound(len(src))
	if cap(dst) < bound {
		dst = make([]byte, bound)
	}
	out, err := c.ctx.CompressLevel(dst[:bound], src, level)
	if err != nil {
		return nil, err
	}
	return stripMagic(out)
}

// Reset restores c to a reusable state between borrows. DataDog/zstd's Ctx
// carries no per-call state that needs clearing, so this is a no-op; it
// exists to satisfy ctxpool's resetFn contract.
func (c *CCtx) Reset() {}

// Close releases the context. It is the freeFn a ctxpool.Pool[CCtx] is
// built with.
func (c *CCtx) Close() {}

// DCtx is a reusable decompression context bound to the real ZSTD library.
type DCtx struct {
	ctx zstd.Ctx
}

// NewDCtx allocates a DCtx.
func NewDCtx() *DCtx {
	return &DCtx{ctx: zstd.NewCtx()}
}

// Decompress decompresses src into dst, which must be sized to exactly
// hold the decompressed payload. src is a magic-stripped payload as
// produced by CCtx.Compress; Decompress restores the native frame magic
// before handing it to the codec's own frame parser.
func (d *DCtx) Decompress(dst, src []byte) ([]byte, error) {
	framed := restoreMagic(make([]byte, 0, len(zstdMagic)+len(src)), src)
	n, err := d.ctx.DecompressInto(dst, framed)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// Reset restores d to a reusable state between borrows.
func (d *DCtx) Reset() {}

// Close releases the context.
func (d *DCtx) Close() {}
