package frame

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"unsafe"

	"go.uber.org/zap"

	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/mmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FromFile maps path read-only and builds a frame from its CSV contents in one
// pass over the bytes. Lines are split on '\n' and fields on ','; quoting is not
// supported on this path. Empty or unparsable values become NaN.
func FromFile(path string, layout Layout, opts Options) (*Frame, error) {
	log := opts.logger().With(zap.String("path", path))

	r, err := mmap.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to map input file").
			WithDetail("path", path)
	}
	defer r.Close()

	scan, err := scanCSV(r.Bytes())
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithDetail("path", path)
		}
		return nil, err
	}

	rows, columns := len(scan.labels), len(scan.names)
	region, err := mmap.Anonymous(rows * columns * codec.SlotSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate frame buffer").
			WithDetail("bytes", rows*columns*codec.SlotSize)
	}

	dst := region.Bytes()
	table := NewOffsetTable(rows, columns, layout)
	for row := 0; row < rows; row++ {
		base := row * columns
		for col := 0; col < columns; col++ {
			codec.PutFloat64(dst, table.Offset(row, col), scan.values[base+col])
		}
	}

	f, err := freeze(region, rows, columns, scan.labels, scan.names, layout)
	if err != nil {
		return nil, err
	}

	metrics.FramesCreated.WithLabelValues("file").Inc()
	metrics.ValuesIngested.Add(float64(len(scan.values)))
	metrics.ParseFallbacks.Add(float64(scan.fallbacks))
	log.Debug("frame loaded from file",
		zap.Int("rows", rows),
		zap.Int("columns", columns),
		zap.Stringer("layout", layout),
		zap.Int("parse_fallbacks", scan.fallbacks))

	return f, nil
}

type scanResult struct {
	names     []string
	labels    []string
	values    []float64
	fallbacks int
}

// scanCSV splits data into header, labels and row-major values.
func scanCSV(data []byte) (*scanResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	res := &scanResult{}
	lineNo := 0
	headerSeen := false
	fields := make([][]byte, 0, 16)

	for pos := 0; pos < len(data); {
		end := bytes.IndexByte(data[pos:], '\n')
		var line []byte
		if end < 0 {
			line = data[pos:]
			pos = len(data)
		} else {
			line = data[pos : pos+end]
			pos += end + 1
		}
		lineNo++

		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 {
			continue
		}

		fields = splitFields(line, fields[:0])

		if !headerSeen {
			if string(fields[0]) != DateHeader {
				return nil, errors.New(errors.ErrorTypeSchema, "first header field must be DATE").
					WithDetail("found", string(fields[0])).
					WithDetail("line", lineNo)
			}
			res.names = make([]string, len(fields)-1)
			for i, name := range fields[1:] {
				res.names[i] = string(name)
			}
			headerSeen = true
			continue
		}

		if len(fields)-1 != len(res.names) {
			return nil, errors.Newf(errors.ErrorTypeSchema,
				"line %d: row has %d values, header declares %d columns", lineNo, len(fields)-1, len(res.names)).
				WithDetail("line", lineNo)
		}

		res.labels = append(res.labels, string(fields[0]))
		for _, field := range fields[1:] {
			v, ok := parseValue(field)
			if !ok {
				res.fallbacks++
			}
			res.values = append(res.values, v)
		}
	}

	if !headerSeen {
		return nil, errors.New(errors.ErrorTypeSchema, "input has no header line")
	}
	if want := len(res.labels) * len(res.names); len(res.values) != want {
		return nil, errors.Newf(errors.ErrorTypeSchema,
			"scanned %d values, %d rows x %d columns needs %d",
			len(res.values), len(res.labels), len(res.names), want)
	}
	return res, nil
}

// splitFields appends the comma-separated fields of line to dst
func splitFields(line []byte, dst [][]byte) [][]byte {
	start := 0
	for i, b := range line {
		if b == ',' {
			dst = append(dst, line[start:i])
			start = i + 1
		}
	}
	return append(dst, line[start:])
}

// parseValue decodes one numeric field. Empty fields are missing and report ok;
// unparsable fields are missing and report !ok.
func parseValue(field []byte) (float64, bool) {
	field = bytes.TrimSpace(field)
	if len(field) == 0 {
		return codec.NaN(), true
	}
	// ParseFloat does not retain its argument, so the zero-copy view is safe
	v, err := strconv.ParseFloat(unsafe.String(&field[0], len(field)), 64)
	if err != nil {
		return codec.NaN(), false
	}
	return v, true
}

// FromReader buffers r fully and builds a frame in two passes: the first pass
// validates the header, collects row labels and fixes the dimensions; the second
// writes every value straight into a disk-backed scratch buffer of exactly
// rows*columns*8 bytes. Fields follow RFC 4180 quoting.
func FromReader(r io.Reader, layout Layout, opts Options) (*Frame, error) {
	log := opts.logger()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	names, labels, err := firstPass(data)
	if err != nil {
		return nil, err
	}
	rows, columns := len(labels), len(names)
	size := rows * columns * codec.SlotSize

	region, err := mmap.Scratch(opts.ScratchDir, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate scratch buffer").
			WithDetail("bytes", size)
	}

	fallbacks, err := secondPass(data, region.Bytes(), rows, columns)
	if err != nil {
		region.Close()
		return nil, err
	}

	if layout == ColumnMajor && size > 0 {
		transposed, err := mmap.Scratch(opts.ScratchDir, size)
		if err != nil {
			region.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate transpose buffer").
				WithDetail("bytes", size)
		}
		transpose(transposed.Bytes(), region.Bytes(),
			NewOffsetTable(rows, columns, RowMajor), NewOffsetTable(rows, columns, ColumnMajor))
		region.Close()
		region = transposed
	}

	f, err := freeze(region, rows, columns, labels, names, layout)
	if err != nil {
		return nil, err
	}

	metrics.FramesCreated.WithLabelValues("reader").Inc()
	metrics.ValuesIngested.Add(float64(rows * columns))
	metrics.ParseFallbacks.Add(float64(fallbacks))
	log.Debug("frame loaded from reader",
		zap.Int("rows", rows),
		zap.Int("columns", columns),
		zap.Stringer("layout", layout),
		zap.Int("parse_fallbacks", fallbacks))

	return f, nil
}

func newCSVReader(data []byte) *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// firstPass validates the header and row widths and collects names and labels
func firstPass(data []byte) ([]string, []string, error) {
	cr := newCSVReader(data)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New(errors.ErrorTypeSchema, "input has no header line")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeSchema, "malformed CSV header")
	}
	if header[0] != DateHeader {
		return nil, nil, errors.New(errors.ErrorTypeSchema, "first header field must be DATE").
			WithDetail("found", header[0])
	}
	names := cloneStrings(header[1:])

	var labels []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeSchema, "malformed CSV row")
		}
		if len(record)-1 != len(names) {
			line, _ := cr.FieldPos(0)
			return nil, nil, errors.Newf(errors.ErrorTypeSchema,
				"line %d: row has %d values, header declares %d columns", line, len(record)-1, len(names)).
				WithDetail("line", line)
		}
		labels = append(labels, record[0])
	}
	return names, labels, nil
}

// secondPass writes every value of data into dst in row-major order
func secondPass(data, dst []byte, rows, columns int) (int, error) {
	cr := newCSVReader(data)
	if _, err := cr.Read(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeSchema, "malformed CSV header")
	}

	table := NewOffsetTable(rows, columns, RowMajor)
	fallbacks := 0
	for row := 0; row < rows; row++ {
		record, err := cr.Read()
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeSchema, "input changed between passes").
				WithDetail("row", row)
		}
		for col := 0; col < columns; col++ {
			v, ok := parseValue([]byte(record[col+1]))
			if !ok {
				fallbacks++
			}
			codec.PutFloat64(dst, table.Offset(row, col), v)
		}
	}
	return fallbacks, nil
}
