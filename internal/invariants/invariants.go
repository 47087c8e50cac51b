// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants holds assertion helpers that only panic in builds
// tagged "invariants" or "race", the same on/off split the teacher uses so
// that expensive or destructive checks (double-close, reservation
// underflow) run in CI and development builds without costing anything in
// a production binary.
package invariants

// Integer is a constraint that permits any integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}
