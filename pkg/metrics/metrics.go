// Package metrics provides performance tracking for framekit using Prometheus
// metrics registered on a private registry.
//
// # Overview
//
// The metrics package provides:
//   - Pre-defined collectors for ingestion, block engine runs and pipeline steps
//   - A Timer helper for measuring operation durations
//   - WriteTextfile to dump the registry in text exposition format, which is the
//     natural sink for a one-shot command-line run
//
// # Basic Usage
//
//	timer := metrics.NewTimer()
//	out, err := engine.Run(ctx, f, "dlog", transform.LogReturn)
//	metrics.BlockRunDuration.WithLabelValues("dlog", "parallel").Observe(timer.Stop().Seconds())
//
// # Metric Types
//
// Counter: monotonically increasing values (blocks processed, frames created)
// Histogram: distribution of values (run and step durations)
// Gauge: values that can go up or down (bytes currently mapped)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every framekit collector. It is separate from the Prometheus
// default registry so tests and embedders see only framekit metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// FramesCreated counts frames built, labelled by how they were produced.
	// Labels: source (file, reader, transform, relayout, slice, values)
	FramesCreated = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framekit_frames_created_total",
			Help: "Total number of frames constructed",
		},
		[]string{"source"},
	)

	// ValuesIngested counts scalar values read from CSV input.
	ValuesIngested = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "framekit_values_ingested_total",
			Help: "Total number of scalar values read from CSV input",
		},
	)

	// ParseFallbacks counts non-empty fields that failed to parse and were stored as NaN.
	ParseFallbacks = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "framekit_parse_fallbacks_total",
			Help: "Total number of unparsable numeric fields stored as NaN",
		},
	)

	// BlocksProcessed counts blocks handed to a block transform.
	// Labels: transform (dlog, cumsum, ...)
	BlocksProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framekit_blocks_processed_total",
			Help: "Total number of blocks processed by the block engine",
		},
		[]string{"transform"},
	)

	// BlockRunDuration tracks the wall time of complete block engine runs.
	// Labels: transform, mode (parallel, sequential)
	BlockRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framekit_block_run_seconds",
			Help:    "Block engine run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"transform", "mode"},
	)

	// StepDuration tracks pipeline step durations.
	// Labels: op, status (success, error)
	StepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framekit_step_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"op", "status"},
	)

	// MappedBytes tracks bytes mapped for frame buffers that are still alive.
	MappedBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "framekit_mapped_bytes",
			Help: "Bytes currently mapped for live frame buffers",
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Status maps an error to the status label value
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WriteTextfile writes the current state of Registry to path in the Prometheus
// text exposition format (node_exporter textfile collector compatible).
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
