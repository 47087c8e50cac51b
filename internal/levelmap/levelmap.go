// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package levelmap translates the storage layer's compression-level
// enumeration — 1..19 for "normal" levels plus a sparse set of negative
// "fast" tags — into the signed level the ZSTD codec accepts, and validates
// that a level belongs to the recognized closed domain.
//
// ToCodecLevel's translation is the identity function on the recognized
// domain; what this package buys the caller there is the validation, and a
// single place to change if a future codec version ever needs a
// non-identity mapping. This mirrors the level table in OpenZFS's
// zfs_zstd.c, whose zstd_enum_to_level maps every recognized ZFS enumerant
// onto the ZSTD level of the same numeric value.
//
// EnumToOrdinal/OrdinalToEnum solve a different problem: the frame header
// (see internal/zframe) has only 8 bits to record which level produced a
// frame, but the enum domain includes magnitudes like -1000 that don't fit
// in a byte. OpenZFS sidesteps this the same way: the value it actually
// stores on disk is the dense ordinal position of the level in its
// zio_zstd_levels C enum, not the raw ZSTD level number, recovering the
// latter through the same lookup table used here.
package levelmap

import "github.com/cockroachdb/errors"

// ErrLevelInvalid is returned when a level enum is outside the recognized
// domain, at either encode or decode time.
var ErrLevelInvalid = errors.New("zioblock: level enum not in recognized domain")

// MinLevel and MaxLevel bound the "normal" (positive) level range.
const (
	MinLevel = 1
	MaxLevel = 19
)

// fastOrder is the sparse set of recognized negative "fast" tags, in the
// order OpenZFS declares them in its zstd_levels table. The order is part
// of the wire format: a tag's position here fixes its ordinal (see
// EnumToOrdinal), so it must never be reshuffled, only appended to.
var fastOrder = []int{
	-1, -2, -3, -4, -5, -6, -7, -8, -9, -10,
	-20, -30, -40, -50, -60, -70, -80, -90, -100,
	-500, -1000,
}

var fastIndex = func() map[int]int {
	m := make(map[int]int, len(fastOrder))
	for i, level := range fastOrder {
		m[level] = i
	}
	return m
}()

// Valid reports whether level belongs to the recognized domain: 1..19, or
// one of the sparse negative fast tags. It is the boolean form of the check
// ToCodecLevel makes.
func Valid(level int) bool {
	if level >= MinLevel && level <= MaxLevel {
		return true
	}
	_, ok := fastIndex[level]
	return ok
}

// EnumToOrdinal packs a recognized level enum into a single byte, for
// storage in the frame header's 8-bit level field. Unlike the enum domain
// itself, the ordinal space is dense (1..40) so it always fits regardless of
// how large a fast tag's magnitude is.
func EnumToOrdinal(level int) (byte, error) {
	if level >= MinLevel && level <= MaxLevel {
		return byte(level), nil
	}
	if i, ok := fastIndex[level]; ok {
		return byte(MaxLevel + 1 + i), nil
	}
	return 0, ErrLevelInvalid
}

// OrdinalToEnum is the inverse of EnumToOrdinal.
func OrdinalToEnum(ordinal byte) (int, error) {
	if ordinal >= MinLevel && int(ordinal) <= MaxLevel {
		return int(ordinal), nil
	}
	i := int(ordinal) - MaxLevel - 1
	if i >= 0 && i < len(fastOrder) {
		return fastOrder[i], nil
	}
	return 0, ErrLevelInvalid
}

// ToCodecLevel translates a storage-layer level enum into the signed level
// the ZSTD codec accepts directly. The translation is total on the
// recognized domain and the identity function; it returns ErrLevelInvalid
// for anything outside it, including "in-between" fast tags like -11 that
// were never assigned meaning.
func ToCodecLevel(level int) (int, error) {
	if !Valid(level) {
		return 0, ErrLevelInvalid
	}
	return level, nil
}
