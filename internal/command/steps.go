package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/framekit/internal/pipeline"
	"github.com/ajitpratap0/framekit/internal/transform"
	"github.com/ajitpratap0/framekit/pkg/compression"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/formats/arrowio"
	"github.com/ajitpratap0/framekit/pkg/frame"
)

const dateLayout = "2006-01-02"

// arrowExt marks files saved and loaded as Arrow IPC
const arrowExt = ".arrow"

func (d *Dispatcher) dispatch(ctx context.Context, ec *Context, step Step) error {
	if opTable[step.Op].needsFrame {
		if _, err := ec.frame(step.Op); err != nil {
			return err
		}
	}

	switch step.Op {
	case OpLoad:
		return d.load(ec, step.Args[0])
	case OpDlog:
		return d.apply(ctx, ec, d.engine.Apply, "dlog", transform.LogReturn)
	case OpParallelDlog:
		engine := d.engine
		if len(step.Args) == 1 {
			n, err := positiveInt(step, step.Args[0])
			if err != nil {
				return err
			}
			engine = engine.WithWorkers(n)
		}
		return d.apply(ctx, ec, engine.Run, "pdlog", transform.LogReturn)
	case OpPrint:
		return d.writeFrame(ec.current, ec.Elapsed())
	case OpLayout:
		return d.relayout(ec, step)
	case OpSave:
		return d.save(ec.current, step.Args[0])
	case OpAssign:
		return ec.SetVar(step.Args[0], ec.current)
	case OpMult:
		return d.mult(ctx, ec, step.Args[0])
	case OpAfter, OpBefore:
		return d.window(ec, step)
	case OpFfill:
		return d.apply(ctx, ec, d.engine.Run, "ffill", transform.ForwardFill)
	case OpCumsum:
		start := 0.0
		if len(step.Args) == 1 {
			v, err := strconv.ParseFloat(step.Args[0], 64)
			if err != nil {
				return badArg(step, step.Args[0], err)
			}
			start = v
		}
		return d.apply(ctx, ec, d.engine.Run, "cumsum", transform.CumSum(start))
	case OpShift:
		n, err := strconv.Atoi(step.Args[0])
		if err != nil {
			return badArg(step, step.Args[0], err)
		}
		return d.apply(ctx, ec, d.engine.Run, "shift", transform.Shift(n))
	case OpMomentum:
		k, err := positiveInt(step, step.Args[0])
		if err != nil {
			return err
		}
		return d.apply(ctx, ec, d.engine.Run, "momentum", transform.Momentum(k))
	case OpDescribe:
		return writeDescription(d.opts.Output, ec.current)
	}
	return errors.Newf(errors.ErrorTypeInternal, "no handler for %s", step.Op)
}

type runFunc func(ctx context.Context, in *frame.Frame, name string, t pipeline.BlockTransform) (*frame.Frame, error)

// apply runs t over the current frame and makes the result current
func (d *Dispatcher) apply(ctx context.Context, ec *Context, run runFunc, name string, t pipeline.BlockTransform) error {
	out, err := run(ctx, ec.current, name, t)
	if err != nil {
		return err
	}
	return ec.replace(out)
}

func badArg(step Step, arg string, cause error) error {
	return errors.Wrap(cause, errors.ErrorTypeValidation,
		fmt.Sprintf("%s: invalid argument %q, usage: %s", step.Op, arg, step.Op.Usage())).
		WithDetail("command", step.Op.String())
}

func positiveInt(step Step, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, badArg(step, arg, err)
	}
	if n <= 0 {
		return 0, badArg(step, arg, fmt.Errorf("must be positive"))
	}
	return n, nil
}

// load replaces the current frame with the contents of path, read in the
// context's layout
func (d *Dispatcher) load(ec *Context, path string) error {
	f, err := d.ReadFrame(path, ec.layout)
	if err != nil {
		return err
	}
	return ec.replace(f)
}

// ReadFrame loads path in layout. Arrow IPC files and compressed CSV are
// recognized by extension; anything else is mapped as plain CSV.
func (d *Dispatcher) ReadFrame(path string, layout frame.Layout) (*frame.Frame, error) {
	opts := d.frameOptions()
	if strings.EqualFold(filepath.Ext(path), arrowExt) {
		return arrowio.ReadFile(path, layout, opts)
	}

	alg, compressed := compression.ForPath(path)
	if !compressed {
		return frame.FromFile(path, layout, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file").WithDetail("path", path)
	}
	defer file.Close()

	c, err := compression.NewCompressor(&compression.Config{Algorithm: alg})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create decompressor")
	}
	r, err := c.NewReader(file)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed stream").WithDetail("path", path)
	}
	defer r.Close()

	return frame.FromReader(r, layout, opts)
}

// save writes f to path: Arrow IPC for .arrow, compressed CSV for compression
// extensions and plain CSV otherwise
func (d *Dispatcher) save(f *frame.Frame, path string) error {
	if strings.EqualFold(filepath.Ext(path), arrowExt) {
		return arrowio.WriteFile(path, f, arrowio.WriterConfig{Logger: d.logger})
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").WithDetail("path", path)
	}

	if err := writeCSV(file, f, path, d.compressionConfig()); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file").WithDetail("path", path)
	}
	return nil
}

// compressionConfig returns the codec settings for compressed saves; the algorithm
// is filled in from the file extension
func (d *Dispatcher) compressionConfig() compression.Config {
	return compression.Config{
		Level:       d.opts.CompressionLevel,
		Concurrency: d.opts.CompressionConcurrency,
	}
}

func writeCSV(w io.Writer, f *frame.Frame, path string, cfg compression.Config) error {
	alg, compressed := compression.ForPath(path)
	if !compressed {
		return f.WriteCSV(w)
	}

	cfg.Algorithm = alg
	c, err := compression.NewCompressor(&cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create compressor")
	}
	cw, err := c.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed stream").WithDetail("path", path)
	}
	if err := f.WriteCSV(cw); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compressed stream").WithDetail("path", path)
	}
	return nil
}

// relayout switches the context's layout and re-lays the current frame, if any
func (d *Dispatcher) relayout(ec *Context, step Step) error {
	layout, err := frame.ParseLayout(step.Args[0])
	if err != nil {
		return badArg(step, step.Args[0], err)
	}
	ec.layout = layout
	if ec.current == nil {
		return nil
	}
	out, err := ec.current.ToLayout(layout, d.frameOptions())
	if err != nil {
		return err
	}
	return ec.replace(out)
}

// mult multiplies the current frame by the variable name. The variable is
// re-laid to the current layout first so one offset addresses the same cell in
// both buffers.
func (d *Dispatcher) mult(ctx context.Context, ec *Context, name string) error {
	v, err := ec.Var(name)
	if err != nil {
		return err
	}
	other, err := v.ToLayout(ec.current.Layout(), d.frameOptions())
	if err != nil {
		return err
	}
	defer other.Release()

	if err := transform.CheckMultiplicand(ec.current, other); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "mult: frames are not aligned").
			WithDetail("variable", name)
	}
	return d.apply(ctx, ec, d.engine.Run, "mult", transform.Multiply(other))
}

// window keeps the rows strictly after or strictly before a date. Row labels
// are ISO dates in ascending order, so the cut is found by binary search on
// the label text.
func (d *Dispatcher) window(ec *Context, step Step) error {
	date := step.Args[0]
	if _, err := time.Parse(dateLayout, date); err != nil {
		return badArg(step, date, err)
	}

	f := ec.current
	labels := f.RowLabels()
	var start, end int
	if step.Op == OpAfter {
		start = sort.Search(len(labels), func(i int) bool { return labels[i] > date })
		end = len(labels)
	} else {
		end = sort.Search(len(labels), func(i int) bool { return labels[i] >= date })
	}

	out, err := f.SliceRows(start, end, d.frameOptions())
	if err != nil {
		return err
	}
	return ec.replace(out)
}
