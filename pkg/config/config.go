// Package config provides the configuration for framekit.
// It defines a single Config structure shared by the CLI, the block engine and
// the command dispatcher.
//
// The configuration is organized into logical sections:
//   - Engine: worker pool size and scratch directory
//   - Frame: default buffer layout
//   - Output: large-output guard and compression settings
//   - Observability: logging, tracing and metrics output
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Engine.Workers = 8
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
)

// DefaultSummaryThreshold is the row count above which output to a terminal is
// replaced by a one-line summary.
const DefaultSummaryThreshold = 200000

// Config is the complete framekit configuration
type Config struct {
	// Engine settings control the block engine's worker pool
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Frame settings control how ingested frames are laid out
	Frame FrameConfig `yaml:"frame" json:"frame"`

	// Output settings control what the pipeline writes
	Output OutputConfig `yaml:"output" json:"output"`

	// Observability settings for logging, tracing and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// EngineConfig contains block engine settings
type EngineConfig struct {
	// Workers is the worker pool size; 0 means one per physical core
	Workers int `yaml:"workers" json:"workers"`
	// ScratchDir holds disk-backed scratch buffers; empty means the system temp dir
	ScratchDir string `yaml:"scratch_dir" json:"scratch_dir"`
}

// FrameConfig contains frame settings
type FrameConfig struct {
	// Layout is the buffer layout of ingested frames: row or col
	Layout string `yaml:"layout" json:"layout"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	// SummaryThreshold is the row count above which terminal output is summarized
	SummaryThreshold int `yaml:"summary_threshold" json:"summary_threshold"`
	// CompressionLevel selects the trade-off for compressed saves
	// (fastest, default, better, best)
	CompressionLevel string `yaml:"compression_level" json:"compression_level"`
	// CompressionConcurrency is the encoder goroutine count for lz4, zstd and
	// s2 saves; 0 leaves it to the codec
	CompressionConcurrency int `yaml:"compression_concurrency" json:"compression_concurrency"`
}

// ObservabilityConfig contains monitoring settings
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFormat selects the log encoding (console, json)
	LogFormat string `yaml:"log_format" json:"log_format"`
	// EnableTracing writes OpenTelemetry spans to stderr
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	// MetricsFile receives the metrics registry in text format at exit
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
}

// Default returns a configuration with every setting at its default
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers: 0,
		},
		Frame: FrameConfig{
			Layout: "col",
		},
		Output: OutputConfig{
			SummaryThreshold: DefaultSummaryThreshold,
			CompressionLevel: "default",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "warn",
			LogFormat:         "console",
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
	}
}

// Validate checks that every value is within its accepted range
func (c *Config) Validate() error {
	if c.Engine.Workers < 0 {
		return errors.New(errors.ErrorTypeConfig, "engine.workers cannot be negative").
			WithDetail("workers", c.Engine.Workers)
	}
	if _, err := c.Frame.ParsedLayout(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid frame.layout")
	}
	if c.Output.SummaryThreshold <= 0 {
		return errors.New(errors.ErrorTypeConfig, "output.summary_threshold must be positive").
			WithDetail("summary_threshold", c.Output.SummaryThreshold)
	}
	if c.Output.CompressionConcurrency < 0 {
		return errors.New(errors.ErrorTypeConfig, "output.compression_concurrency cannot be negative").
			WithDetail("compression_concurrency", c.Output.CompressionConcurrency)
	}
	switch c.Output.CompressionLevel {
	case "", "fastest", "default", "better", "best":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown output.compression_level %q", c.Output.CompressionLevel)
	}
	switch c.Observability.LogFormat {
	case "", "console", "json":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown observability.log_format %q", c.Observability.LogFormat)
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "observability.tracing_sample_rate %v outside [0,1]", r)
	}
	return nil
}

// ParsedLayout returns the configured layout
func (f *FrameConfig) ParsedLayout() (frame.Layout, error) {
	if f.Layout == "" {
		return frame.ColumnMajor, nil
	}
	return frame.ParseLayout(f.Layout)
}

// GetWorkers returns the worker count, 0 meaning the engine picks
func (e *EngineConfig) GetWorkers() int {
	if e.Workers < 0 {
		return 0
	}
	return e.Workers
}
