// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package zioblock

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *Adapter {
	a, err := Open(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

// TestRoundTrip covers scenario S1 and property 1 (round-trip): a
// compressible block at a plain level compresses, and decompressing the
// result reproduces the input.
func TestRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0xAA}, 4<<10)

	out := a.Compress(nil, src, 3)
	require.NotNil(t, out)
	require.Less(t, len(out), len(src))

	dst := make([]byte, len(src))
	require.NoError(t, a.Decompress(dst, out))
	require.Equal(t, src, dst)
}

// TestLevelRoundTrips covers property 3: DecompressWithLevel returns the
// same level enum that was passed to Compress.
func TestLevelRoundTrips(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0x42}, 8<<10)

	for _, level := range []int{1, 19, -1, -1000} {
		out := a.Compress(nil, src, level)
		require.NotNil(t, out, "level %d", level)

		dst := make([]byte, len(src))
		got, err := a.DecompressWithLevel(dst, out)
		require.NoError(t, err)
		require.Equal(t, level, got)
		require.Equal(t, src, dst)
	}
}

// TestDeclinesIncompressibleData covers scenario S2: random data does not
// compress, Compress returns nil, and no failure counter is bumped.
func TestDeclinesIncompressibleData(t *testing.T) {
	a := newTestAdapter(t)
	src := make([]byte, 4<<10)
	_, err := rand.Read(src)
	require.NoError(t, err)

	before := a.Stats()["com_fail"]
	out := a.Compress(nil, src, 3)
	require.Nil(t, out)
	require.Equal(t, before, a.Stats()["com_fail"])
}

// TestInvalidLevelDeclines covers the com_inval edge case.
func TestInvalidLevelDeclines(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0x01}, 1<<10)

	out := a.Compress(nil, src, 0)
	require.Nil(t, out)
	require.EqualValues(t, 1, a.Stats()["com_inval"])
}

// TestHeuristicAllowsCompressibleLargeBlock covers scenario S3.
func TestHeuristicAllowsCompressibleLargeBlock(t *testing.T) {
	a := newTestAdapter(t)
	a.Tunables().ZstdPass.Store(true)
	src := bytes.Repeat([]byte("abcdefghijklmnop"), (128<<10)/16)

	before := a.Stats()["lz4pass_allowed"]
	out := a.CompressWithHeuristic(nil, src, 9)
	require.NotNil(t, out)
	require.Less(t, len(out), len(src))
	require.Equal(t, before+1, a.Stats()["lz4pass_allowed"])

	dst := make([]byte, len(src))
	require.NoError(t, a.Decompress(dst, out))
	require.Equal(t, src, dst)
}

// TestHeuristicRejectsIncompressibleLargeBlock covers scenario S4.
func TestHeuristicRejectsIncompressibleLargeBlock(t *testing.T) {
	a := newTestAdapter(t)
	a.Tunables().ZstdPass.Store(true)
	src := make([]byte, 128<<10)
	_, err := rand.Read(src)
	require.NoError(t, err)

	out := a.CompressWithHeuristic(nil, src, 9)
	rejected := a.Stats()["lz4pass_rejected"]
	require.EqualValues(t, 1, rejected)
	if out == nil {
		require.EqualValues(t, 1, a.Stats()["zstdpass_rejected"])
	} else {
		require.LessOrEqual(t, len(out), len(src))
	}
}

// TestForgedHeaderLengthFails covers scenario S5.
func TestForgedHeaderLengthFails(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0x9}, 4<<10)
	out := a.Compress(nil, src, 3)
	require.NotNil(t, out)

	// Claim a compressed length that runs past the buffer.
	forged := append([]byte{}, out...)
	forged[3] = 0xff

	before := a.Stats()["dec_header_inval"]
	err := a.Decompress(make([]byte, len(src)), forged)
	require.Error(t, err)
	require.Equal(t, before+1, a.Stats()["dec_header_inval"])
}

// TestForgedLevelEnumFails covers scenario S6.
func TestForgedLevelEnumFails(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0x9}, 4<<10)
	out := a.Compress(nil, src, 3)
	require.NotNil(t, out)

	forged := append([]byte{}, out...)
	forged[7] = 0 // level ordinal 0 is not recognized

	before := a.Stats()["dec_inval"]
	err := a.Decompress(make([]byte, len(src)), forged)
	require.Error(t, err)
	require.Equal(t, before+1, a.Stats()["dec_inval"])
}

func TestReapNow(t *testing.T) {
	a := newTestAdapter(t)
	src := bytes.Repeat([]byte{0x1}, 1<<10)
	out := a.Compress(nil, src, 1)
	require.NotNil(t, out)
	require.NoError(t, a.Decompress(make([]byte, len(src)), out))

	// ReapNow should not panic or corrupt state even though the default
	// 15-second idle interval has not elapsed; it should simply reap
	// nothing.
	a.ReapNow()
}

func TestDefaultSingleton(t *testing.T) {
	src := bytes.Repeat([]byte{0x7}, 2<<10)
	out := Compress(nil, src, 3)
	require.NotNil(t, out)

	dst := make([]byte, len(src))
	require.NoError(t, Decompress(dst, out))
	require.Equal(t, src, dst)
}
