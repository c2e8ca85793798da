package command

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/json"
)

// writeSummary writes the one-line description used in place of large output
func writeSummary(w io.Writer, f *frame.Frame, elapsed time.Duration) error {
	_, err := fmt.Fprintf(w, "frame: %d rows x %d columns (%s), elapsed %s\n",
		f.Rows(), f.Columns(), f.Layout(), elapsed.Round(time.Microsecond))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write summary")
	}
	return nil
}

// ColumnStats summarizes one column. Statistics over no present values are null.
type ColumnStats struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Missing int      `json:"missing"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Mean    *float64 `json:"mean"`
	Last    *float64 `json:"last"`
}

// Description is the document written by describe
type Description struct {
	frame.Summary
	Stats []ColumnStats `json:"stats"`
}

// Describe computes per-column statistics of f. Missing and infinite values
// are counted as missing.
func Describe(f *frame.Frame) Description {
	desc := Description{Summary: f.Summary(), Stats: make([]ColumnStats, f.Columns())}
	for col, name := range f.ColumnNames() {
		stats := ColumnStats{Name: name}
		var sum, lo, hi, last float64
		for row := 0; row < f.Rows(); row++ {
			v := f.At(row, col)
			if codec.IsMissing(v) || math.IsInf(v, 0) {
				stats.Missing++
				continue
			}
			if stats.Count == 0 || v < lo {
				lo = v
			}
			if stats.Count == 0 || v > hi {
				hi = v
			}
			sum += v
			last = v
			stats.Count++
		}
		if stats.Count > 0 {
			stats.Min, stats.Max, stats.Last = &lo, &hi, &last
			if mean := sum / float64(stats.Count); !math.IsInf(mean, 0) {
				stats.Mean = &mean
			}
		}
		desc.Stats[col] = stats
	}
	return desc
}

func writeDescription(w io.Writer, f *frame.Frame) error {
	if err := json.Encode(w, Describe(f), "  "); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write statistics")
	}
	return nil
}
