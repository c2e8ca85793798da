package frame

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/mmap"
)

// ToLayout returns the frame re-laid in target order. The copy goes into a new
// disk-backed scratch buffer of the same size. When target is already the frame's
// layout, f is retained and returned.
func (f *Frame) ToLayout(target Layout, opts Options) (*Frame, error) {
	if target == f.layout {
		return f.Retain(), nil
	}
	if target != RowMajor && target != ColumnMajor {
		return nil, errors.Newf(errors.ErrorTypeValidation, "invalid layout %d", int(target))
	}

	region, err := mmap.Scratch(opts.ScratchDir, f.Len())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate transpose buffer").
			WithDetail("bytes", f.Len())
	}

	dstTable := NewOffsetTable(f.rows, f.columns, target)
	transpose(region.Bytes(), f.Bytes(), f.offsets, dstTable)

	out, err := freeze(region, f.rows, f.columns, f.labels, f.names, target)
	if err != nil {
		return nil, err
	}
	metrics.FramesCreated.WithLabelValues("relayout").Inc()
	opts.logger().Debug("frame re-laid",
		zap.Stringer("from", f.layout),
		zap.Stringer("to", target),
		zap.Int("bytes", f.Len()))
	return out, nil
}

// transpose copies every slot of src, addressed by from, to its position in dst
// under to. Both tables must describe the same dimensions.
func transpose(dst, src []byte, from, to OffsetTable) {
	for row := 0; row < from.rows; row++ {
		for col := 0; col < from.columns; col++ {
			codec.CopySlot(dst, to.Offset(row, col), src, from.Offset(row, col))
		}
	}
}

// SliceRows returns a new frame holding rows [start, end) in the same layout
func (f *Frame) SliceRows(start, end int, opts Options) (*Frame, error) {
	if start < 0 || end > f.rows || start > end {
		return nil, errors.Newf(errors.ErrorTypeValidation, "row range [%d,%d) outside frame of %d rows", start, end, f.rows)
	}
	if start == 0 && end == f.rows {
		return f.Retain(), nil
	}

	rows := end - start
	region, err := mmap.Anonymous(rows * f.columns * codec.SlotSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate frame buffer")
	}

	dst := region.Bytes()
	src := f.Bytes()
	table := NewOffsetTable(rows, f.columns, f.layout)
	for row := 0; row < rows; row++ {
		for col := 0; col < f.columns; col++ {
			codec.CopySlot(dst, table.Offset(row, col), src, f.offsets.Offset(start+row, col))
		}
	}

	out, err := freeze(region, rows, f.columns, f.labels[start:end:end], f.names, f.layout)
	if err != nil {
		return nil, err
	}
	metrics.FramesCreated.WithLabelValues("slice").Inc()
	return out, nil
}

// Summary describes a frame's shape
type Summary struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Layout  string `json:"layout"`
}

// Summary returns the frame's shape
func (f *Frame) Summary() Summary {
	return Summary{Rows: f.rows, Columns: f.columns, Layout: f.layout.String()}
}
