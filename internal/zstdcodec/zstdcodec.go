// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package zstdcodec wraps the real ZSTD engine behind the two context
// types the pools in internal/ctxpool recycle: CCtx for compression, DCtx
// for decompression. Following the teacher's cgo/no-cgo split, each type
// is defined twice — once in a cgo-tagged file binding
// github.com/DataDog/zstd against the canonical C library, once in a
// no-cgo-tagged file binding github.com/klauspost/compress/zstd, a pure Go
// port — so a cgo-less build still gets working compression rather than a
// stub.
//
// Neither binding exposes the malloc/free hook the C library's own context
// type accepts, so the allocator contract in internal/alloc isn't wired
// through CCtx/DCtx themselves; it gates the staging buffers the
// compression and decompression pipelines allocate around calls into this
// package.
//
// Neither binding exposes ZSTD_c_format/ZSTD_f_zstd1_magicless either, so
// every frame either one produces starts with the native ZSTD frame magic
// number — four bytes this module has no use for, since internal/zframe's
// own 8-byte header already carries everything a frame needs to be decoded.
// CCtx strips that magic off the front of every compressed result; DCtx
// restores it before handing a payload to the codec's own frame parser.
package zstdcodec

import "github.com/cockroachdb/errors"

// zstdMagic is the 4-byte frame magic number every native ZSTD frame
// begins with, in on-the-wire byte order (the little-endian encoding of
// 0xFD2FB528).
var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// ErrNotZstdFrame is returned by stripMagic when a codec call produced
// output that doesn't begin with the native ZSTD frame magic, which would
// mean the binding's framing has changed out from under this package.
var ErrNotZstdFrame = errors.New("zioblock: compressed output missing zstd frame magic")

// stripMagic removes the leading zstdMagic from a freshly compressed
// frame.
func stripMagic(b []byte) ([]byte, error) {
	if len(b) < len(zstdMagic) || [4]byte(b[:4]) != zstdMagic {
		return nil, ErrNotZstdFrame
	}
	return b[len(zstdMagic):], nil
}

// restoreMagic prepends zstdMagic to payload, appending into dst[:0], so a
// magic-stripped frame can be handed back to the codec's own decoder.
func restoreMagic(dst, payload []byte) []byte {
	dst = append(dst[:0], zstdMagic[:]...)
	return append(dst, payload...)
}
