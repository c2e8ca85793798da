package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutFloat64RoundTrip(t *testing.T) {
	buf := make([]byte, 4*SlotSize)
	values := []float64{0, -1.5, math.MaxFloat64, math.Inf(-1)}

	for i, v := range values {
		PutFloat64(buf, i*SlotSize, v)
	}
	for i, v := range values {
		assert.Equal(t, v, Float64(buf, i*SlotSize))
	}
}

func TestLittleEndianSlot(t *testing.T) {
	buf := make([]byte, SlotSize)
	PutFloat64(buf, 0, 1.0)

	// 1.0 is 0x3FF0000000000000; little-endian puts the high byte last.
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, buf)
}

func TestMissingSentinel(t *testing.T) {
	buf := make([]byte, 2*SlotSize)
	PutMissing(buf, SlotSize)

	assert.True(t, IsMissing(Float64(buf, SlotSize)))
	assert.False(t, IsMissing(Float64(buf, 0)))
	assert.True(t, IsMissing(NaN()))
	assert.False(t, IsMissing(math.Inf(1)))
}

func TestCopySlot(t *testing.T) {
	src := make([]byte, 2*SlotSize)
	dst := make([]byte, 2*SlotSize)
	PutFloat64(src, SlotSize, 42.25)

	CopySlot(dst, 0, src, SlotSize)

	assert.Equal(t, 42.25, Float64(dst, 0))
	assert.Equal(t, 0.0, Float64(dst, SlotSize))
}
