// Package frame implements the columnar frame: an immutable table of float64 series
// indexed by textual row labels and stored in a single memory-mapped buffer.
//
// # Layout
//
// A frame buffer holds rows*columns little-endian float64 slots in either row-major
// or column-major order. Code that walks a frame never computes positions itself;
// it asks the frame's OffsetTable, which is the only place the two addressing
// formulas live. A block is one row (RowMajor) or one column (ColumnMajor) and is
// the unit of parallel work in the block engine.
//
// # Ownership
//
// The buffer is frozen read-only before a frame is built and is reference counted.
// A frame returned by a constructor or transform holds one reference; call Release
// when done with it, and Retain to hand out another owner.
//
// # Ingestion
//
//	f, err := frame.FromFile("prices.csv", frame.ColumnMajor, frame.Options{})
//	if err != nil {
//	    return err
//	}
//	defer f.Release()
//
// FromFile scans a mapped file once; FromReader buffers its input and parses it in
// two passes into a disk-backed scratch buffer.
package frame

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/mmap"
)

// DateHeader is the required name of the first CSV column.
const DateHeader = "DATE"

// Options carries the collaborators used when a frame has to allocate a buffer.
type Options struct {
	// ScratchDir is where disk-backed scratch buffers are created; empty means
	// os.TempDir().
	ScratchDir string
	// Logger receives debug output; nil means logger.Get().
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	return logger.Or(o.Logger)
}

// Frame is an immutable table backed by a read-only mapped buffer.
type Frame struct {
	buf     *mmap.Buffer
	rows    int
	columns int
	names   []string
	labels  []string
	layout  Layout
	offsets OffsetTable
}

// New wraps a frozen buffer into a frame, taking over the caller's reference.
// labels and names are kept as is and must not be modified afterwards.
func New(buf *mmap.Buffer, rows, columns int, labels, names []string, layout Layout) (*Frame, error) {
	if rows < 0 || columns < 0 {
		return nil, errors.Newf(errors.ErrorTypeInternal, "negative frame dimensions %dx%d", rows, columns)
	}
	if want := rows * columns * codec.SlotSize; buf.Len() != want {
		return nil, errors.Newf(errors.ErrorTypeInternal, "buffer holds %d bytes, %dx%d frame needs %d", buf.Len(), rows, columns, want)
	}
	if len(labels) != rows {
		return nil, errors.Newf(errors.ErrorTypeInternal, "%d row labels for %d rows", len(labels), rows)
	}
	if len(names) != columns {
		return nil, errors.Newf(errors.ErrorTypeInternal, "%d column names for %d columns", len(names), columns)
	}
	if layout != RowMajor && layout != ColumnMajor {
		return nil, errors.Newf(errors.ErrorTypeInternal, "invalid layout %d", int(layout))
	}

	size := buf.Len()
	metrics.MappedBytes.Add(float64(size))
	buf.OnFree(func(n int) { metrics.MappedBytes.Sub(float64(n)) })

	return &Frame{
		buf:     buf,
		rows:    rows,
		columns: columns,
		names:   names,
		labels:  labels,
		layout:  layout,
		offsets: NewOffsetTable(rows, columns, layout),
	}, nil
}

// FromValues builds a frame from row-major values, mostly useful for tests and
// small derived tables.
func FromValues(labels, names []string, values []float64, layout Layout) (*Frame, error) {
	rows, columns := len(labels), len(names)
	if len(values) != rows*columns {
		return nil, errors.Newf(errors.ErrorTypeSchema, "%d values for a %dx%d frame", len(values), rows, columns).
			WithDetail("expected", rows*columns)
	}

	region, err := mmap.Anonymous(rows * columns * codec.SlotSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate frame buffer")
	}

	dst := region.Bytes()
	table := NewOffsetTable(rows, columns, layout)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			codec.PutFloat64(dst, table.Offset(r, c), values[r*columns+c])
		}
	}

	f, err := freeze(region, rows, columns, cloneStrings(labels), cloneStrings(names), layout)
	if err != nil {
		return nil, err
	}
	metrics.FramesCreated.WithLabelValues("values").Inc()
	return f, nil
}

// FromRegion freezes a filled region and wraps it into a frame. The region is
// consumed: it is closed on failure and must not be used afterwards.
func FromRegion(region *mmap.Region, rows, columns int, labels, names []string, layout Layout) (*Frame, error) {
	return freeze(region, rows, columns, labels, names, layout)
}

// freeze turns a filled region into a frame, releasing the region on failure
func freeze(region *mmap.Region, rows, columns int, labels, names []string, layout Layout) (*Frame, error) {
	buf, err := region.Freeze()
	if err != nil {
		region.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to freeze frame buffer")
	}
	f, err := New(buf, rows, columns, labels, names, layout)
	if err != nil {
		buf.Release()
		return nil, err
	}
	return f, nil
}

// Rows returns the number of logical rows
func (f *Frame) Rows() int { return f.rows }

// Columns returns the number of logical columns
func (f *Frame) Columns() int { return f.columns }

// Layout returns the physical layout of the buffer
func (f *Frame) Layout() Layout { return f.layout }

// Offsets returns the frame's offset table
func (f *Frame) Offsets() OffsetTable { return f.offsets }

// ColumnNames returns the column names. The slice must not be modified.
func (f *Frame) ColumnNames() []string { return f.names }

// RowLabels returns the row labels. The slice must not be modified.
func (f *Frame) RowLabels() []string { return f.labels }

// Bytes returns the read-only buffer. It is valid while the caller holds a reference.
func (f *Frame) Bytes() []byte { return f.buf.Bytes() }

// Len returns the buffer size in bytes
func (f *Frame) Len() int { return f.buf.Len() }

// At decodes the value at (row, col) through the offset table
func (f *Frame) At(row, col int) float64 {
	return codec.Float64(f.buf.Bytes(), f.offsets.Offset(row, col))
}

// Column returns the index of the named column
func (f *Frame) Column(name string) (int, bool) {
	for i, n := range f.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Retain adds an owner to the frame's buffer and returns f
func (f *Frame) Retain() *Frame {
	f.buf.Retain()
	return f
}

// Release drops one owner; the buffer is unmapped when the last owner releases it
func (f *Frame) Release() error {
	return f.buf.Release()
}

// String describes the frame's shape
func (f *Frame) String() string {
	return fmt.Sprintf("frame(%d rows x %d columns, %s)", f.rows, f.columns, f.layout)
}

// SameShape reports whether g has the same dimensions, labels and column names as f
func (f *Frame) SameShape(g *Frame) bool {
	if f.rows != g.rows || f.columns != g.columns {
		return false
	}
	return equalStrings(f.labels, g.labels) && equalStrings(f.names, g.names)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
