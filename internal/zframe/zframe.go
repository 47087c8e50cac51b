// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package zframe encodes and decodes the fixed 8-byte header that precedes
// every compressed block this module produces. The header carries just
// enough information for the decompression path to size its output buffer
// and recover the level a frame was written at, without needing any
// out-of-band metadata: two 32-bit big-endian words, the compressed length
// followed by a packed (version, level) word.
//
// The header format is a close analogue of the trailer OpenZFS's block
// layer appends to every compressed record, and of the block.Trailer this
// module's teacher stores after each sstable block: a handful of bytes
// fixed at a known offset, checked before the payload is trusted.
package zframe

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/zioblock/zioblock/internal/levelmap"
)

// HeaderLen is the fixed size, in bytes, of the header EncodeHeader writes
// and DecodeHeader consumes.
const HeaderLen = 8

// versionLimit is the smallest version value that no longer fits in the
// packed word's upper 24 bits.
const versionLimit = 1 << 24

// ErrVersionOverflow is returned by EncodeHeader when the codec version
// does not fit in the header's 24-bit version field.
var ErrVersionOverflow = errors.New("zioblock: codec version does not fit in header")

// ErrHeaderInvalid is returned by DecodeHeader when the header is
// malformed: too short, claiming a compressed length that would run past
// the end of the buffer, or naming a level enum outside the recognized
// domain.
var ErrHeaderInvalid = errors.New("zioblock: frame header invalid")

// Header is the decoded form of a frame's fixed 8-byte prefix.
type Header struct {
	// CompressedLen is the length, in bytes, of the compressed payload that
	// follows the header.
	CompressedLen uint32
	// Version is the codec version the frame was written under.
	Version uint32
	// Level is the storage-layer level enum the frame was compressed at.
	Level int
}

// EncodeHeader appends the 8-byte encoding of hdr to dst and returns the
// extended slice. It fails with ErrVersionOverflow if hdr.Version does not
// fit in 24 bits, and with ErrHeaderInvalid if hdr.Level is outside the
// domain levelmap recognizes.
func EncodeHeader(dst []byte, hdr Header) ([]byte, error) {
	if hdr.Version >= versionLimit {
		return nil, errors.Wrapf(ErrVersionOverflow, "version %d", hdr.Version)
	}
	ordinal, err := levelmap.EnumToOrdinal(hdr.Level)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "level %d", hdr.Level), ErrHeaderInvalid)
	}

	var buf [HeaderLen]byte
	binary.BigEndian.PutUint32(buf[0:4], hdr.CompressedLen)
	binary.BigEndian.PutUint32(buf[4:8], (hdr.Version<<8)|uint32(ordinal))
	return append(dst, buf[:]...), nil
}

// DecodeHeader parses the 8-byte header at the front of src and returns it
// along with the payload that follows. It fails with ErrHeaderInvalid if
// src is shorter than HeaderLen, if the encoded compressed length would run
// past the end of src, or if the packed level ordinal is not one
// OrdinalToEnum recognizes.
func DecodeHeader(src []byte) (Header, []byte, error) {
	if len(src) < HeaderLen {
		return Header{}, nil, errors.Wrapf(ErrHeaderInvalid, "short header: %d bytes", len(src))
	}

	cLen := binary.BigEndian.Uint32(src[0:4])
	packed := binary.BigEndian.Uint32(src[4:8])
	version := packed >> 8
	ordinal := byte(packed & 0xff)

	rest := src[HeaderLen:]
	if uint64(cLen) > uint64(len(rest)) {
		return Header{}, nil, errors.Wrapf(ErrHeaderInvalid,
			"compressed length %d exceeds available %d bytes", cLen, len(rest))
	}

	level, err := levelmap.OrdinalToEnum(ordinal)
	if err != nil {
		return Header{}, nil, errors.Mark(errors.Wrapf(err, "level ordinal %d", ordinal), ErrHeaderInvalid)
	}

	return Header{
		CompressedLen: cLen,
		Version:       version,
		Level:         level,
	}, rest[:cLen], nil
}
