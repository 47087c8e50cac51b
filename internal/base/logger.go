// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds small cross-cutting types shared by every package in
// the module, mirroring the role the teacher's internal/base package plays
// for pebble.
package base

import (
	"fmt"
	"log"
	"os"
)

// Logger defines an interface for writing log messages. The adapter holds
// one but none of its pipelines writes to it.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// stdLogger tags every line with the module's name, so lines written
// through DefaultLogger are distinguishable in a host's combined log stream
// without the caller having to configure anything.
var stdLogger = log.New(os.Stderr, "zioblock: ", log.LstdFlags)

// DefaultLogger logs to the Go stdlib log package via stdLogger.
type DefaultLogger struct{}

// Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = stdLogger.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf implements the Logger.Fatalf interface.
func (DefaultLogger) Fatalf(format string, args ...interface{}) {
	_ = stdLogger.Output(2, fmt.Sprintf(format, args...))
	os.Exit(1)
}
