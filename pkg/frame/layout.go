package frame

import (
	"fmt"
	"strings"
)

// Layout is the physical element order of a frame buffer.
type Layout int

const (
	// RowMajor stores the columns of one row next to each other.
	RowMajor Layout = iota
	// ColumnMajor stores the rows of one column next to each other.
	ColumnMajor
)

// String returns the canonical name of the layout
func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row"
	case ColumnMajor:
		return "col"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout accepts "row", "row-major", "col", "column" and "column-major"
// (case-insensitive).
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "rows", "row-major", "rowmajor":
		return RowMajor, nil
	case "col", "cols", "column", "columns", "column-major", "columnmajor":
		return ColumnMajor, nil
	default:
		return RowMajor, fmt.Errorf("unknown layout %q (want row or col)", s)
	}
}
