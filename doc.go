// Package framekit runs command pipelines over DATE-indexed numeric tables,
// typically daily price or return series loaded from CSV.
//
// # Architecture
//
// A table is held as a frame: an immutable, memory-mapped buffer of 8-byte
// little-endian doubles in row-major or column-major order, plus its row labels
// and column names. Transforms never modify a frame; each one produces a new
// buffer.
//
// The packages, leaves first:
//
//   - pkg/codec: float64 slot encoding and the missing-value sentinel
//   - pkg/mmap: read-only file maps, anonymous and disk-backed scratch maps,
//     reference-counted frozen buffers
//   - pkg/frame: offset tables, CSV ingestion, re-layout, CSV output
//   - internal/pipeline: the block engine, a worker pool that applies a
//     per-axis transform to every block of a frame
//   - internal/transform: dlog, cumsum, ffill, shift, momentum and mult
//   - internal/command: the pipeline parser and dispatcher
//   - pkg/formats/arrowio: Arrow IPC import and export
//   - pkg/compression: stream codecs for compressed CSV
//
// # Quick Start
//
//	framekit run --input prices.csv "dlog | -> r | cumsum 100 | save out.csv.zst"
//
// From Go:
//
//	engine := pipeline.NewEngine(pipeline.Config{Workers: 8}, log)
//	d := command.NewDispatcher(engine, command.Options{Logger: log})
//	err := d.Execute(ctx, "load prices.csv | pdlog | describe", nil, frame.ColumnMajor)
//
// # Layout and axes
//
// Every transform runs along the blocks of the frame's layout: down each column
// for column-major frames, across each row for row-major frames. Use the layout
// step to choose the axis.
package framekit
