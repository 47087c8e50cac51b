// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package zstdcodec

import "github.com/klauspost/compress/zstd"

// CCtx is a reusable compression context bound to klauspost/compress's pure
// Go ZSTD implementation, used when cgo is unavailable.
//
// Unlike the cgo path's zstd.Ctx, a klauspost *zstd.Encoder is fixed to
// the level it was created with, so CCtx lazily (re)builds its encoder
// whenever Compress is asked for a level it isn't already holding one
// for, rather than building a fresh encoder on every call the way the
// teacher's no-cgo compressor does.
type CCtx struct {
	level   int
	hasEnc  bool
	encoder *zstd.Encoder
}

// NewCCtx allocates a CCtx. The underlying encoder is created lazily on
// first use, once the level it should run at is known.
func NewCCtx() *CCtx {
	return &CCtx{}
}

// Compress compresses src at the given level, appending to dst[:0], and
// returns the result with its native zstd frame magic stripped off the
// front (see the package doc). The encoder is built with its checksum
// trailer disabled; klauspost/compress/zstd has no knob to omit the
// frame's content-size field the way the spec's magic-less/no-content-size
// framing asks for, which is recorded as an open question in DESIGN.md.
func (c *CCtx) Compress(dst, src []byte, level int) ([]byte, error) {
	if !c.hasEnc || c.level != level {
		if c.encoder != nil {
			_ = c.encoder.Close()
		}
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
			zstd.WithEncoderCRC(false))
		if err != nil {
			return nil, err
		}
		c.encoder = enc
		c.level = level
		c.hasEnc = true
	}
	return stripMagic(c.encoder.EncodeAll(src, dst[:0]))
}

// Reset restores c to a reusable state between borrows. The encoder itself
// is stateless across EncodeAll calls, so there's nothing to clear.
func (c *CCtx) Reset() {}

// Close releases the context's encoder, if one was built.
func (c *CCtx) Close() {
	if c.encoder != nil {
		_ = c.encoder.Close()
		c.encoder = nil
		c.hasEnc = false
	}
}

// DCtx is a reusable decompression context bound to klauspost/compress.
type DCtx struct {
	decoder *zstd.Decoder
}

// NewDCtx allocates a DCtx, or returns nil if the underlying decoder could
// not be created.
func NewDCtx() *DCtx {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil
	}
	return &DCtx{decoder: dec}
}

// Decompress decompresses src into dst, which must be sized to exactly
// hold the decompressed payload. src is a magic-stripped payload as
// produced by CCtx.Compress; Decompress restores the native frame magic
// before handing it to the decoder's own frame parser.
func (d *DCtx) Decompress(dst, src []byte) ([]byte, error) {
	framed := restoreMagic(make([]byte, 0, len(zstdMagic)+len(src)), src)
	result, err := d.decoder.DecodeAll(framed, dst[:0])
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reset restores d to a reusable state between borrows.
func (d *DCtx) Reset() {}

// Close releases the context's decoder.
func (d *DCtx) Close() {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder = nil
	}
}
