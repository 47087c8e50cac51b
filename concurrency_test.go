// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package zioblock

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentCompressDecompress drives many goroutines through
// Compress/Decompress round-trips against a single shared Adapter,
// grounded on the worker-orchestration pattern the teacher's replay
// package uses for its own concurrent workload runners: an errgroup
// per run, one goroutine per worker, the first error cancels the rest.
func TestConcurrentCompressDecompress(t *testing.T) {
	a := newTestAdapter(t)
	const workers = 16
	const roundsPerWorker = 64

	levels := []int{1, 3, 9, 19, -1, -5, -1000}

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rnd := rand.New(rand.NewSource(int64(w) + 1))
			for i := 0; i < roundsPerWorker; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				level := levels[rnd.Intn(len(levels))]
				size := 1 + rnd.Intn(16<<10)
				src := make([]byte, size)
				if rnd.Intn(2) == 0 {
					// Compressible: repeat a short pattern.
					pattern := bytes.Repeat([]byte{byte(w), byte(i)}, 1+size/2)
					copy(src, pattern)
				} else {
					if _, err := rnd.Read(src); err != nil {
						return err
					}
				}

				out := a.CompressWithHeuristic(nil, src, level)
				if out == nil {
					continue // declined: nothing to round-trip
				}

				dst := make([]byte, size)
				gotLevel, err := a.DecompressWithLevel(dst, out)
				if err != nil {
					return err
				}
				if gotLevel != level {
					return fmt.Errorf("zioblock: level mismatch: want %d got %d", level, gotLevel)
				}
				if !bytes.Equal(src, dst) {
					return fmt.Errorf("zioblock: payload mismatch: worker %d round %d", w, i)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// ReapNow must be safe to call with live pools and must not corrupt
	// the adapter for subsequent use.
	a.ReapNow()

	src := bytes.Repeat([]byte{0x9}, 1<<10)
	out := a.Compress(nil, src, 3)
	require.NotNil(t, out)
	dst := make([]byte, len(src))
	require.NoError(t, a.Decompress(dst, out))
	require.Equal(t, src, dst)
}
