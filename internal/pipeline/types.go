// Package pipeline runs per-axis block transforms over frame buffers.
//
// A block is one row of a row-major frame or one column of a column-major frame,
// given as the ordered byte offsets of its elements. A transform sees the whole
// read-only input buffer and the offsets of one block, and writes exactly one
// value per offset through a BlockWriter that can reach no other position. Since
// blocks are disjoint, workers write into one shared output buffer without
// locking, and the result does not depend on how blocks are scheduled.
package pipeline

import (
	"time"

	"github.com/ajitpratap0/framekit/pkg/codec"
)

// BlockTransform computes the output values of one block. in is the entire
// input buffer; block lists the block's offsets in axis order.
type BlockTransform func(in []byte, out BlockWriter, block []int)

// BlockWriter writes into the output buffer at the positions of a single block
type BlockWriter struct {
	buf   []byte
	block []int
}

// NewBlockWriter returns a writer over buf restricted to block
func NewBlockWriter(buf []byte, block []int) BlockWriter {
	return BlockWriter{buf: buf, block: block}
}

// Put writes v at the i-th position of the block
func (w BlockWriter) Put(i int, v float64) {
	codec.PutFloat64(w.buf, w.block[i], v)
}

// PutMissing writes the missing-value sentinel at the i-th position of the block
func (w BlockWriter) PutMissing(i int) {
	codec.PutMissing(w.buf, w.block[i])
}

// Len returns the number of positions in the block
func (w BlockWriter) Len() int {
	return len(w.block)
}

// Mode says how a run scheduled its blocks
type Mode string

const (
	// ModeParallel runs blocks on a worker pool into a disk-backed scratch buffer
	ModeParallel Mode = "parallel"
	// ModeSequential runs blocks in order on the calling goroutine
	ModeSequential Mode = "sequential"
)

// RunStats describes one completed engine run
type RunStats struct {
	Transform string        `json:"transform"`
	Mode      Mode          `json:"mode"`
	Blocks    int           `json:"blocks"`
	Workers   int           `json:"workers"`
	Bytes     int           `json:"bytes"`
	Elapsed   time.Duration `json:"elapsed"`
}
