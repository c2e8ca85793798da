// Package codec encodes float64 values into the fixed-width slots of a frame buffer.
//
// Every slot is 8 bytes holding the little-endian IEEE-754 representation of one
// value. Missing or undefined values are stored as NaN; any NaN payload read back
// is treated as missing.
//
// All functions are safe for concurrent use as long as concurrent writers touch
// disjoint slots.
package codec

import (
	"encoding/binary"
	"math"
)

// SlotSize is the width in bytes of one encoded value.
const SlotSize = 8

// order is the byte order of every slot.
var order binary.ByteOrder = binary.LittleEndian

// sentinel is the bit pattern written for missing values.
var sentinel = math.NaN()

// NaN returns the missing-value sentinel.
func NaN() float64 {
	return sentinel
}

// IsMissing reports whether v is the missing-value sentinel (any NaN).
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// PutFloat64 writes v into the slot starting at off.
func PutFloat64(buf []byte, off int, v float64) {
	order.PutUint64(buf[off:off+SlotSize], math.Float64bits(v))
}

// Float64 reads the value stored in the slot starting at off.
func Float64(buf []byte, off int) float64 {
	return math.Float64frombits(order.Uint64(buf[off : off+SlotSize]))
}

// PutMissing writes the sentinel into the slot starting at off.
func PutMissing(buf []byte, off int) {
	PutFloat64(buf, off, sentinel)
}

// CopySlot copies one slot from src at srcOff into dst at dstOff.
func CopySlot(dst []byte, dstOff int, src []byte, srcOff int) {
	copy(dst[dstOff:dstOff+SlotSize], src[srcOff:srcOff+SlotSize])
}
