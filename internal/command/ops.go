// Package command parses and executes pipe-delimited frame pipelines such as
//
//	load prices.csv | dlog | -> r | cumsum 100 | mult r | save out.csv.zst
//
// Each step names one operation from a closed set. Steps run in order against
// an explicit Context holding the current frame and the variable store.
package command

import (
	"sort"

	"github.com/ajitpratap0/framekit/pkg/errors"
)

// Op identifies a pipeline operation
type Op int

const (
	OpLoad Op = iota
	OpDlog
	OpParallelDlog
	OpPrint
	OpLayout
	OpSave
	OpAssign
	OpMult
	OpAfter
	OpBefore
	OpFfill
	OpCumsum
	OpShift
	OpMomentum
	OpDescribe
)

// opInfo describes how an operation is invoked
type opInfo struct {
	name       string
	usage      string
	summary    string
	minArgs    int
	maxArgs    int
	needsFrame bool
	writes     bool // produces output, suppressing the final print
}

var opTable = [...]opInfo{
	OpLoad:         {"load", "load <path>", "replace the current frame with a CSV, compressed CSV or Arrow file", 1, 1, false, false},
	OpDlog:         {"dlog", "dlog", "log returns along the layout axis, one block at a time", 0, 0, true, false},
	OpParallelDlog: {"pdlog", "pdlog [workers]", "log returns along the layout axis on the worker pool", 0, 1, true, false},
	OpPrint:        {"print", "print", "write the current frame as CSV", 0, 0, true, true},
	OpLayout:       {"layout", "layout row|col", "re-lay the current frame and set the layout for later loads", 1, 1, false, false},
	OpSave:         {"save", "save <path>", "write the current frame to a file chosen by extension", 1, 1, true, true},
	OpAssign:       {"->", "-> <name>", "store the current frame in a variable", 1, 1, true, false},
	OpMult:         {"mult", "mult <name>", "multiply elementwise by a stored frame", 1, 1, true, false},
	OpAfter:        {"after", "after <YYYY-MM-DD>", "keep rows labelled after the date", 1, 1, true, false},
	OpBefore:       {"before", "before <YYYY-MM-DD>", "keep rows labelled before the date", 1, 1, true, false},
	OpFfill:        {"ffill", "ffill", "forward-fill missing values along the layout axis", 0, 0, true, false},
	OpCumsum:       {"cumsum", "cumsum [start]", "running sum along the layout axis", 0, 1, true, false},
	OpShift:        {"shift", "shift <n>", "move values n positions along the layout axis", 1, 1, true, false},
	OpMomentum:     {"momentum", "momentum <lookback>", "relative change over lookback positions", 1, 1, true, false},
	OpDescribe:     {"describe", "describe", "write per-column statistics as JSON", 0, 0, true, true},
}

var byName = func() map[string]Op {
	m := make(map[string]Op, len(opTable))
	for op, s := range opTable {
		m[s.name] = Op(op)
	}
	return m
}()

// String returns the operation's pipeline name
func (o Op) String() string {
	if o < 0 || int(o) >= len(opTable) {
		return "unknown"
	}
	return opTable[o].name
}

// Usage returns the operation's argument synopsis
func (o Op) Usage() string { return opTable[o].usage }

// Summary returns a one-line description of the operation
func (o Op) Summary() string { return opTable[o].summary }

// Lookup resolves a pipeline name to its operation
func Lookup(name string) (Op, error) {
	op, ok := byName[name]
	if !ok {
		return 0, errors.Newf(errors.ErrorTypeOperation, "unknown command: %s", name).
			WithDetail("command", name)
	}
	return op, nil
}

// Ops returns every operation sorted by name
func Ops() []Op {
	ops := make([]Op, 0, len(opTable))
	for op := range opTable {
		ops = append(ops, Op(op))
	}
	sort.Slice(ops, func(i, j int) bool { return opTable[ops[i]].name < opTable[ops[j]].name })
	return ops
}
