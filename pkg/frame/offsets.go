package frame

import (
	"github.com/ajitpratap0/framekit/pkg/codec"
)

// OffsetTable maps logical (row, column) coordinates to byte offsets and groups
// them into blocks along the layout's major axis: one block per row for RowMajor,
// one block per column for ColumnMajor. Within a block offsets are ordered along
// the other axis and strictly ascending.
//
// The table is a pure function of (rows, columns, layout); block offset lists are
// generated on demand rather than stored.
type OffsetTable struct {
	rows    int
	columns int
	layout  Layout
}

// NewOffsetTable builds the table for the given dimensions and layout.
func NewOffsetTable(rows, columns int, layout Layout) OffsetTable {
	return OffsetTable{rows: rows, columns: columns, layout: layout}
}

// Layout returns the layout the table addresses
func (t OffsetTable) Layout() Layout { return t.layout }

// Size returns the byte size of a buffer addressed by the table
func (t OffsetTable) Size() int { return t.rows * t.columns * codec.SlotSize }

// Offset returns the byte offset of (row, col).
//
//	RowMajor:    (row*columns + col) * 8
//	ColumnMajor: (col*rows + row) * 8
func (t OffsetTable) Offset(row, col int) int {
	if t.layout == ColumnMajor {
		return (col*t.rows + row) * codec.SlotSize
	}
	return (row*t.columns + col) * codec.SlotSize
}

// NumBlocks returns the number of blocks: rows for RowMajor, columns for ColumnMajor
func (t OffsetTable) NumBlocks() int {
	if t.layout == ColumnMajor {
		return t.columns
	}
	return t.rows
}

// BlockLen returns the number of elements in every block
func (t OffsetTable) BlockLen() int {
	if t.layout == ColumnMajor {
		return t.rows
	}
	return t.columns
}

// Block returns the ordered offsets of block i.
func (t OffsetTable) Block(i int) []int {
	n := t.BlockLen()
	offsets := make([]int, n)
	for pos := 0; pos < n; pos++ {
		if t.layout == ColumnMajor {
			offsets[pos] = t.Offset(pos, i)
		} else {
			offsets[pos] = t.Offset(i, pos)
		}
	}
	return offsets
}

// Blocks materializes every block in order.
func (t OffsetTable) Blocks() [][]int {
	blocks := make([][]int, t.NumBlocks())
	for i := range blocks {
		blocks[i] = t.Block(i)
	}
	return blocks
}
