// Package transform holds the per-axis block transforms run by the block engine.
//
// Every transform walks its block in axis order using only the offsets it was
// given. The axis therefore follows the frame's layout: a column-major frame is
// transformed down each column (across time), a row-major frame across the
// columns of each row.
package transform

import (
	"fmt"
	"math"

	"github.com/ajitpratap0/framekit/internal/pipeline"
	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/frame"
)

// LogReturn writes ln(curr/prev) for every element after the first. The first
// element, and any element where either value is not strictly positive, is NaN.
func LogReturn(in []byte, out pipeline.BlockWriter, block []int) {
	if len(block) == 0 {
		return
	}
	out.PutMissing(0)
	prev := codec.Float64(in, block[0])
	for i := 1; i < len(block); i++ {
		curr := codec.Float64(in, block[i])
		if prev > 0 && curr > 0 {
			out.Put(i, math.Log(curr/prev))
		} else {
			out.PutMissing(i)
		}
		prev = curr
	}
}

// CumSum returns a transform writing the running sum of the block with start
// added to the first element. Missing inputs stay missing and do not reset the sum.
func CumSum(start float64) pipeline.BlockTransform {
	return func(in []byte, out pipeline.BlockWriter, block []int) {
		sum := start
		for i, off := range block {
			v := codec.Float64(in, off)
			if codec.IsMissing(v) {
				out.PutMissing(i)
				continue
			}
			sum += v
			out.Put(i, sum)
		}
	}
}

// ForwardFill replaces missing values with the last present value before them.
// Leading missing values stay missing.
func ForwardFill(in []byte, out pipeline.BlockWriter, block []int) {
	last := codec.NaN()
	for i, off := range block {
		v := codec.Float64(in, off)
		if !codec.IsMissing(v) {
			last = v
		}
		out.Put(i, last)
	}
}

// Shift returns a transform moving values n positions forward along the axis
// (backward for negative n). Positions with no source value are missing.
func Shift(n int) pipeline.BlockTransform {
	return func(in []byte, out pipeline.BlockWriter, block []int) {
		for i := range block {
			src := i - n
			if src < 0 || src >= len(block) {
				out.PutMissing(i)
				continue
			}
			out.Put(i, codec.Float64(in, block[src]))
		}
	}
}

// Momentum returns a transform computing (x[i] - x[i-k]) / x[i-k]. Positions
// before the lookback and zero bases are missing.
func Momentum(lookback int) pipeline.BlockTransform {
	return func(in []byte, out pipeline.BlockWriter, block []int) {
		for i := range block {
			if i < lookback {
				out.PutMissing(i)
				continue
			}
			base := codec.Float64(in, block[i-lookback])
			if base == 0 {
				out.PutMissing(i)
				continue
			}
			out.Put(i, (codec.Float64(in, block[i])-base)/base)
		}
	}
}

// Multiply returns a transform multiplying each element by the element at the
// same position of other. other must have the input's dimensions and layout, so
// that one offset addresses the same cell in both buffers.
func Multiply(other *frame.Frame) pipeline.BlockTransform {
	factors := other.Bytes()
	return func(in []byte, out pipeline.BlockWriter, block []int) {
		for i, off := range block {
			out.Put(i, codec.Float64(in, off)*codec.Float64(factors, off))
		}
	}
}

// CheckMultiplicand reports whether other can be used with Multiply against f.
// Both frames need the same dimensions, layout and row labels; column names
// may differ and the result keeps f's.
func CheckMultiplicand(f, other *frame.Frame) error {
	if f.Rows() != other.Rows() || f.Columns() != other.Columns() {
		return fmt.Errorf("cannot multiply %dx%d frame by %dx%d frame",
			f.Rows(), f.Columns(), other.Rows(), other.Columns())
	}
	if f.Layout() != other.Layout() {
		return fmt.Errorf("multiplicand layout %s differs from %s", other.Layout(), f.Layout())
	}
	labels, otherLabels := f.RowLabels(), other.RowLabels()
	for i := range labels {
		if labels[i] != otherLabels[i] {
			return fmt.Errorf("row %d: date %s differs from multiplicand date %s", i, labels[i], otherLabels[i])
		}
	}
	return nil
}
