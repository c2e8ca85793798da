// Package arrowio reads and writes frames as Apache Arrow IPC files.
//
// A frame maps to a schema with a non-nullable utf8 DATE field followed by one
// nullable float64 field per column. Missing values (NaN) are written as nulls
// and read back as NaN.
package arrowio

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/mmap"
)

// LayoutKey is the schema metadata key recording the source frame's layout
const LayoutKey = "framekit.layout"

// DefaultBatchSize is the number of rows per record batch
const DefaultBatchSize = 64 * 1024

// WriterConfig configures Write
type WriterConfig struct {
	BatchSize int
	Allocator memory.Allocator
	Logger    *zap.Logger
}

// Schema returns the Arrow schema for f
func Schema(f *frame.Frame) *arrow.Schema {
	fields := make([]arrow.Field, 0, f.Columns()+1)
	fields = append(fields, arrow.Field{Name: frame.DateHeader, Type: arrow.BinaryTypes.String})
	for _, name := range f.ColumnNames() {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	md := arrow.NewMetadata([]string{LayoutKey}, []string{f.Layout().String()})
	return arrow.NewSchema(fields, &md)
}

// Write writes f to w as an Arrow IPC file
func Write(w io.Writer, f *frame.Frame, config WriterConfig) error {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	pool := config.Allocator
	if pool == nil {
		pool = memory.NewGoAllocator()
	}

	schema := Schema(f)
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow writer")
	}

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	batches := 0
	for start := 0; start < f.Rows(); start += batchSize {
		end := min(start+batchSize, f.Rows())
		appendRows(builder, f, start, end)

		record := builder.NewRecord()
		err := fw.Write(record)
		record.Release()
		if err != nil {
			fw.Close()
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write record batch").
				WithDetail("first_row", start)
		}
		batches++
	}

	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Arrow writer")
	}

	logger.Or(config.Logger).Debug("arrow file written",
		zap.Int("rows", f.Rows()),
		zap.Int("columns", f.Columns()),
		zap.Int("batches", batches))
	return nil
}

func appendRows(builder *array.RecordBuilder, f *frame.Frame, start, end int) {
	labels := builder.Field(0).(*array.StringBuilder)
	labels.AppendValues(f.RowLabels()[start:end], nil)

	for col := 0; col < f.Columns(); col++ {
		values := builder.Field(col + 1).(*array.Float64Builder)
		values.Reserve(end - start)
		for row := start; row < end; row++ {
			v := f.At(row, col)
			if codec.IsMissing(v) {
				values.AppendNull()
			} else {
				values.Append(v)
			}
		}
	}
}

// WriteFile writes f to path as an Arrow IPC file
func WriteFile(path string, f *frame.Frame, config WriterConfig) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow file").WithDetail("path", path)
	}
	if err := Write(file, f, config); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Arrow file").WithDetail("path", path)
	}
	return nil
}

// ReadFile loads an Arrow IPC file written by Write into a frame with the given
// layout.
func ReadFile(path string, layout frame.Layout, opts frame.Options) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open Arrow file").WithDetail("path", path)
	}
	defer file.Close()

	fr, err := ipc.NewFileReader(file, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSchema, "not an Arrow IPC file").WithDetail("path", path)
	}
	defer fr.Close()

	names, err := columnNames(fr.Schema())
	if err != nil {
		return nil, err
	}

	var labels []string
	for i := 0; i < fr.NumRecords(); i++ {
		record, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read record batch").WithDetail("batch", i)
		}
		dates := record.Column(0).(*array.String)
		for row := 0; row < dates.Len(); row++ {
			labels = append(labels, dates.Value(row))
		}
	}

	rows, columns := len(labels), len(names)
	region, err := mmap.Anonymous(rows * columns * codec.SlotSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate frame buffer")
	}

	dst := region.Bytes()
	table := frame.NewOffsetTable(rows, columns, layout)
	base := 0
	for i := 0; i < fr.NumRecords(); i++ {
		record, err := fr.Record(i)
		if err != nil {
			region.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read record batch").WithDetail("batch", i)
		}
		for col := 0; col < columns; col++ {
			values := record.Column(col + 1).(*array.Float64)
			for row := 0; row < values.Len(); row++ {
				v := codec.NaN()
				if values.IsValid(row) {
					v = values.Value(row)
				}
				codec.PutFloat64(dst, table.Offset(base+row, col), v)
			}
		}
		base += int(record.NumRows())
	}

	return frame.FromRegion(region, rows, columns, labels, names, layout)
}

// columnNames checks that schema has the shape Write produces and returns the
// value column names
func columnNames(schema *arrow.Schema) ([]string, error) {
	fields := schema.Fields()
	if len(fields) == 0 || fields[0].Name != frame.DateHeader || fields[0].Type.ID() != arrow.STRING {
		return nil, errors.New(errors.ErrorTypeSchema, "first Arrow field must be a utf8 DATE column")
	}
	names := make([]string, 0, len(fields)-1)
	for _, field := range fields[1:] {
		if field.Type.ID() != arrow.FLOAT64 {
			return nil, errors.New(errors.ErrorTypeSchema,
				fmt.Sprintf("column %s has type %s, want float64", field.Name, field.Type))
		}
		names = append(names, field.Name)
	}
	return names, nil
}
