package command

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ajitpratap0/framekit/internal/pipeline"
	"github.com/ajitpratap0/framekit/pkg/compression"
	"github.com/ajitpratap0/framekit/pkg/config"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/observability"
)

// Options configures a Dispatcher
type Options struct {
	// Output receives printed frames and statistics; defaults to os.Stdout
	Output io.Writer
	// ScratchDir holds disk-backed buffers; empty means the system temp dir
	ScratchDir string
	// SummaryThreshold is the row count above which a frame printed to a
	// terminal is replaced by a summary line; 0 means the default
	SummaryThreshold int
	// CompressionLevel is used for compressed saves
	CompressionLevel compression.Level
	// CompressionConcurrency is the encoder goroutine count for compressed
	// saves; 0 leaves it to the codec
	CompressionConcurrency int
	// IsTerminal reports whether w is an interactive terminal; defaults to
	// checking the file descriptor behind w
	IsTerminal func(w io.Writer) bool
	Logger     *zap.Logger
}

// Dispatcher runs parsed pipelines against a block engine
type Dispatcher struct {
	engine *pipeline.Engine
	opts   Options
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher running transforms on engine
func NewDispatcher(engine *pipeline.Engine, opts Options) *Dispatcher {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = config.DefaultSummaryThreshold
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = compression.Default
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = isTerminal
	}
	return &Dispatcher{
		engine: engine,
		opts:   opts,
		logger: logger.Or(opts.Logger).With(zap.String("component", "dispatcher")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (d *Dispatcher) frameOptions() frame.Options {
	return frame.Options{ScratchDir: d.opts.ScratchDir, Logger: d.logger}
}

// Execute parses pipeline and runs it from initial, which may be nil when the
// pipeline starts with load. The current frame is printed at the end unless
// the last step already wrote output. initial's reference is consumed.
func (d *Dispatcher) Execute(ctx context.Context, pipeline string, initial *frame.Frame, layout frame.Layout) error {
	ctx = context.WithValue(ctx, logger.PipelineKey, pipeline)
	steps, err := Parse(pipeline)
	if err != nil {
		if initial != nil {
			initial.Release()
		}
		return err
	}

	ec := NewContext(initial, layout)
	defer ec.Close()

	if err := d.Run(ctx, ec, steps); err != nil {
		return err
	}
	return d.Finish(ec)
}

// Run executes steps in order against ec and stops at the first failure
func (d *Dispatcher) Run(ctx context.Context, ec *Context, steps []Step) error {
	for i, step := range steps {
		stepCtx := context.WithValue(ctx, logger.StepKey, i+1)
		if err := d.step(stepCtx, ec, step); err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.WithDetail("step", i+1)
			}
			return err
		}
	}
	return nil
}

// Finish prints the current frame unless the last step wrote output or there
// is no frame.
func (d *Dispatcher) Finish(ec *Context) error {
	if ec.wrote || ec.current == nil {
		return nil
	}
	return d.writeFrame(ec.current, ec.Elapsed())
}

func (d *Dispatcher) step(ctx context.Context, ec *Context, step Step) error {
	name := step.Op.String()
	ctx, span := observability.NewSpan(ctx, "step."+name)
	ol := observability.NewOperationLogger(ctx, d.logger, name)
	span.SetAttribute("args", step.Args)
	ol.LogStart("step started", zap.Any("step", ctx.Value(logger.StepKey)), zap.Strings("args", step.Args))

	timer := metrics.NewTimer()
	err := d.dispatch(ctx, ec, step)
	elapsed := timer.Stop()

	metrics.StepDuration.WithLabelValues(name, metrics.Status(err)).Observe(elapsed.Seconds())
	if f := ec.current; f != nil {
		span.SetAttribute("rows", f.Rows())
		span.SetAttribute("columns", f.Columns())
	}
	span.End(err)

	if err != nil {
		ol.LogError("step failed", err)
		return err
	}
	ec.wrote = opTable[step.Op].writes
	ol.LogComplete("step finished", zap.Duration("elapsed", elapsed))
	return nil
}

// writeFrame prints f as CSV, or as a summary line when f is large and the
// output is a terminal.
func (d *Dispatcher) writeFrame(f *frame.Frame, elapsed time.Duration) error {
	w := d.opts.Output
	if f.Rows() > d.opts.SummaryThreshold && d.opts.IsTerminal(w) {
		return writeSummary(w, f, elapsed)
	}
	return f.WriteCSV(w)
}
