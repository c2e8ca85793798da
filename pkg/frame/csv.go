package frame

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/pool"
)

var csvWriters = pool.New(
	func() *bufio.Writer { return bufio.NewWriterSize(nil, 64*1024) },
	func(w *bufio.Writer) { w.Reset(nil) },
)

// FormatValue renders v the way WriteCSV does. Non-finite values come out as
// NaN, +Inf and -Inf.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the frame as CSV: a DATE header followed by one line per row in
// row label order. Values are decoded through the offset table, so the output is
// the same for either layout.
func (f *Frame) WriteCSV(w io.Writer) error {
	bw := csvWriters.Get()
	defer csvWriters.Put(bw)
	bw.Reset(w)
	cw := csv.NewWriter(bw)

	record := make([]string, f.columns+1)
	record[0] = DateHeader
	copy(record[1:], f.names)
	if err := cw.Write(record); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV header")
	}

	buf := f.Bytes()
	for row := 0; row < f.rows; row++ {
		record[0] = f.labels[row]
		for col := 0; col < f.columns; col++ {
			record[col+1] = FormatValue(codec.Float64(buf, f.offsets.Offset(row, col)))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV row").
				WithDetail("row", row)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV output")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV output")
	}
	return nil
}
