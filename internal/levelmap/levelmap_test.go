// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package levelmap

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestToCodecLevel(t *testing.T) {
	for level := MinLevel; level <= MaxLevel; level++ {
		got, err := ToCodecLevel(level)
		require.NoError(t, err)
		require.Equal(t, level, got)
	}
	for fast := range fastIndex {
		got, err := ToCodecLevel(fast)
		require.NoError(t, err)
		require.Equal(t, fast, got)
	}
}

func TestToCodecLevelInvalid(t *testing.T) {
	for _, level := range []int{0, -11, -19, -999, 20, 1000, MaxLevel + 1} {
		_, err := ToCodecLevel(level)
		require.ErrorIs(t, err, ErrLevelInvalid)
	}
}

// TestDataDriven walks the recognized-domain table the way the teacher's
// sstable tests walk their golden files: one command per interesting level,
// checked-in expected output.
func TestDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/levelmap", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "valid":
			var level int
			td.ScanArgs(t, "level", &level)
			return fmt.Sprintf("%t", Valid(level))

		case "to-codec":
			var level int
			td.ScanArgs(t, "level", &level)
			got, err := ToCodecLevel(level)
			if err != nil {
				return "error: " + err.Error()
			}
			return fmt.Sprintf("%d", got)

		default:
			t.Fatalf("unknown command %q", td.Cmd)
			return ""
		}
	})
}
