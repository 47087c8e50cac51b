// Copyright 2026 The zioblock Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package zstats implements the fixed-schema set of named atomic counters
// the compression and decompression pipelines report into, and exports
// them to Prometheus the way the teacher's internal/cache and sstable
// packages export their own metrics via prometheus.Collector.
package zstats

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/crlib/crmath"
	"github.com/prometheus/client_golang/prometheus"
)

// latencyMin and latencyMax bound the HdrHistogram-go histograms backing
// compress/decompress latency sampling, in nanoseconds: one nanosecond up
// to ten minutes, which comfortably covers both a cache-hot few-microsecond
// call and a worst-case stall under allocator pressure.
const (
	latencyMin     = 1
	latencyMax     = int64(10 * time.Minute)
	latencySigFigs = 3
)

// Names of every counter the compression and decompression pipelines bump.
// The set is fixed: Sink allocates one atomic.Uint64 per name at
// construction and Bump/Add/Sub/Zero reject any name outside this list,
// the same closed-schema discipline the kstat_named_t table in OpenZFS's
// zstd module applies to its own counters.
const (
	ComInval         = "com_inval"
	ComAllocFail     = "com_alloc_fail"
	ComFail          = "com_fail"
	Lz4PassAllowed   = "lz4pass_allowed"
	Lz4PassRejected  = "lz4pass_rejected"
	ZstdPassAllowed  = "zstdpass_allowed"
	ZstdPassRejected = "zstdpass_rejected"
	PassIgnored      = "passignored"
	PassIgnoredSize  = "passignored_size"
	DecInval         = "dec_inval"
	DecHeaderInval   = "dec_header_inval"
	DecAllocFail     = "dec_alloc_fail"
	DecFail          = "dec_fail"
	CCtxPoolAllocs   = "cctx_pool_allocs"
	DCtxPoolAllocs   = "dctx_pool_allocs"
	CCtxPoolReaped   = "cctx_pool_reaped"
	DCtxPoolReaped   = "dctx_pool_reaped"
)

// names is the fixed schema, in a stable order used for Snapshot and
// Prometheus export.
var names = []string{
	ComInval, ComAllocFail, ComFail,
	Lz4PassAllowed, Lz4PassRejected,
	ZstdPassAllowed, ZstdPassRejected,
	PassIgnored, PassIgnoredSize,
	DecInval, DecHeaderInval, DecAllocFail, DecFail,
	CCtxPoolAllocs, DCtxPoolAllocs, CCtxPoolReaped, DCtxPoolReaped,
}

// Sink is a fixed-schema set of named, independently atomic 64-bit
// counters, plus a pair of sampled latency histograms. Every operation is
// safe under concurrent call; no cross-counter consistency is provided or
// required.
type Sink struct {
	counters map[string]*atomic.Uint64

	// latencyMu guards compressLatency/decompressLatency: HdrHistogram-go's
	// Histogram is not itself safe for concurrent RecordValue calls.
	latencyMu         sync.Mutex
	compressLatency   *hdrhistogram.Histogram
	decompressLatency *hdrhistogram.Histogram
}

// NewSink constructs a Sink with every counter in the fixed schema zeroed
// and empty latency histograms.
func NewSink() *Sink {
	s := &Sink{
		counters:          make(map[string]*atomic.Uint64, len(names)),
		compressLatency:   hdrhistogram.New(latencyMin, latencyMax, latencySigFigs),
		decompressLatency: hdrhistogram.New(latencyMin, latencyMax, latencySigFigs),
	}
	for _, name := range names {
		s.counters[name] = new(atomic.Uint64)
	}
	return s
}

// Bump increments the named counter by one. It panics if name is not part
// of the fixed schema, the same way indexing a kstat table with an unknown
// name would be a programming error rather than a runtime condition to
// recover from.
func (s *Sink) Bump(name string) { s.Add(name, 1) }

// Add increments the named counter by n.
func (s *Sink) Add(name string, n uint64) {
	s.counter(name).Add(n)
}

// Sub decrements the named counter by n. The schema has no pooled-buffer
// count or byte-size counters, and no pipeline calls Sub: every counter the
// pipelines touch only rises.
func (s *Sink) Sub(name string, n uint64) {
	s.counter(name).Add(-n)
}

// Zero resets the named counter to zero.
func (s *Sink) Zero(name string) {
	s.counter(name).Store(0)
}

// Value returns the current value of the named counter.
func (s *Sink) Value(name string) uint64 {
	return s.counter(name).Load()
}

func (s *Sink) counter(name string) *atomic.Uint64 {
	c, ok := s.counters[name]
	if !ok {
		panic("zioblock: unknown statistic " + name)
	}
	return c
}

// RecordCompressLatency samples the wall-clock duration of one compression
// call. Sampling is independent of the counter schema: a caller that never
// calls this leaves CompressLatencyPercentile reporting zero, at no cost to
// the hot compress/decompress loop beyond the one mutex this Sink already
// needs for the histogram.
func (s *Sink) RecordCompressLatency(d time.Duration) {
	s.latencyMu.Lock()
	defer s.latencyMu.Unlock()
	_ = s.compressLatency.RecordValue(d.Nanoseconds())
}

// RecordDecompressLatency samples the wall-clock duration of one
// decompression call.
func (s *Sink) RecordDecompressLatency(d time.Duration) {
	s.latencyMu.Lock()
	defer s.latencyMu.Unlock()
	_ = s.decompressLatency.RecordValue(d.Nanoseconds())
}

// CompressLatencyPercentile returns the compress-latency histogram's value
// at the given percentile (0..100).
func (s *Sink) CompressLatencyPercentile(p float64) time.Duration {
	s.latencyMu.Lock()
	defer s.latencyMu.Unlock()
	return time.Duration(s.compressLatency.ValueAtPercentile(p))
}

// DecompressLatencyPercentile returns the decompress-latency histogram's
// value at the given percentile (0..100).
func (s *Sink) DecompressLatencyPercentile(p float64) time.Duration {
	s.latencyMu.Lock()
	defer s.latencyMu.Unlock()
	return time.Duration(s.decompressLatency.ValueAtPercentile(p))
}

// Snapshot returns the current value of every counter in the schema.
func (s *Sink) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(s.counters))
	for name, c := range s.counters {
		out[name] = c.Load()
	}
	return out
}

// latencyQuantiles are the percentiles the collector exports for each
// latency histogram. HdrHistogram-go gives percentile queries, not the
// cumulative bucket counts prometheus.Histogram needs, so this exports a
// handful of named quantile gauges rather than a true bucketed Histogram
// metric (see DESIGN.md).
var latencyQuantiles = []float64{50, 90, 99}

// Collector returns a prometheus.Collector exporting every counter in the
// schema as a gauge (Sub and Zero can lower a counter), plus
// compress/decompress latency at a handful of quantiles.
func (s *Sink) Collector() prometheus.Collector {
	return &collector{s: s}
}

type collector struct{ s *Sink }

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range names {
		ch <- desc(name)
	}
	ch <- latencyDesc("compress")
	ch <- latencyDesc("decompress")
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for _, name := range names {
		ch <- prometheus.MustNewConstMetric(desc(name), prometheus.GaugeValue, float64(c.s.Value(name)))
	}
	for _, q := range latencyQuantiles {
		label := quantileLabel(q)
		ch <- prometheus.MustNewConstMetric(latencyDesc("compress"), prometheus.GaugeValue,
			c.s.CompressLatencyPercentile(q).Seconds(), label)
		ch <- prometheus.MustNewConstMetric(latencyDesc("decompress"), prometheus.GaugeValue,
			c.s.DecompressLatencyPercentile(q).Seconds(), label)
	}
}

func desc(name string) *prometheus.Desc {
	return prometheus.NewDesc("zioblock_"+name, "zioblock compression adapter counter: "+name, nil, nil)
}

func latencyDesc(kind string) *prometheus.Desc {
	return prometheus.NewDesc("zioblock_"+kind+"_latency_seconds",
		"zioblock "+kind+" call latency, in seconds, at a given quantile", []string{"quantile"}, nil)
}

func quantileLabel(q float64) string {
	return strconv.FormatFloat(q/100, 'f', -1, 64)
}

// Aggregate holds compressed/uncompressed byte totals keyed by the codec
// level a block was compressed at, the compression-domain analogue of the
// teacher's block.CompressionStats.
type Aggregate struct {
	byLevel map[int]LevelStats
}

// LevelStats is the accumulated byte counts for a single level.
type LevelStats struct {
	CompressedBytes   uint64
	UncompressedBytes uint64
}

// Ratio returns UncompressedBytes/CompressedBytes, or 0 if empty.
func (ls LevelStats) Ratio() float64 {
	if ls.CompressedBytes == 0 {
		return 0
	}
	return float64(ls.UncompressedBytes) / float64(ls.CompressedBytes)
}

// Add records one compressed block at the given level.
func (a *Aggregate) Add(level int, compressed, uncompressed uint64) {
	if a.byLevel == nil {
		a.byLevel = make(map[int]LevelStats)
	}
	ls := a.byLevel[level]
	ls.CompressedBytes += compressed
	ls.UncompressedBytes += uncompressed
	a.byLevel[level] = ls
}

// All returns the accumulated stats for every level that has seen at
// least one block.
func (a *Aggregate) All() map[int]LevelStats {
	out := make(map[int]LevelStats, len(a.byLevel))
	for level, ls := range a.byLevel {
		out[level] = ls
	}
	return out
}

// Scale returns a copy of a scaled by size/backingSize, the way a virtual
// table's compression stats are approximated from its backing file's
// stats.
func (a *Aggregate) Scale(size, backingSize uint64) Aggregate {
	size = max(size, 1)
	backingSize = max(backingSize, size)
	out := Aggregate{byLevel: make(map[int]LevelStats, len(a.byLevel))}
	for level, ls := range a.byLevel {
		out.byLevel[level] = LevelStats{
			CompressedBytes:   crmath.ScaleUint64(ls.CompressedBytes, size, backingSize),
			UncompressedBytes: crmath.ScaleUint64(ls.UncompressedBytes, size, backingSize),
		}
	}
	return out
}
