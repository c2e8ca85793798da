package transform

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/framekit/internal/pipeline"
	"github.com/ajitpratap0/framekit/pkg/codec"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/testutil"
)

var nan = math.NaN()

// applyBlock runs t over a single block holding values
func applyBlock(t pipeline.BlockTransform, values ...float64) []float64 {
	in := make([]byte, len(values)*codec.SlotSize)
	block := make([]int, len(values))
	for i, v := range values {
		block[i] = i * codec.SlotSize
		codec.PutFloat64(in, block[i], v)
	}

	out := make([]byte, len(in))
	t(in, pipeline.NewBlockWriter(out, block), block)

	got := make([]float64, len(values))
	for i, off := range block {
		got[i] = codec.Float64(out, off)
	}
	return got
}

func TestLogReturn(t *testing.T) {
	got := applyBlock(LogReturn, 100, 110, 121)
	testutil.RequireFloats(t, []float64{nan, math.Log(1.1), math.Log(1.1)}, got, 1e-12)
}

func TestLogReturnNonPositive(t *testing.T) {
	got := applyBlock(LogReturn, 10, -5, 20, 40)
	testutil.RequireFloats(t, []float64{nan, nan, nan, math.Log(2)}, got, 1e-12)

	got = applyBlock(LogReturn, 10, 0, 10)
	testutil.RequireFloats(t, []float64{nan, nan, nan}, got, 0)

	got = applyBlock(LogReturn, 10, nan, 10, 11)
	testutil.RequireFloats(t, []float64{nan, nan, nan, math.Log(1.1)}, got, 1e-12)
}

func TestLogReturnShortBlocks(t *testing.T) {
	testutil.RequireFloats(t, []float64{nan}, applyBlock(LogReturn, 42), 0)
	assert.Empty(t, applyBlock(LogReturn))
}

func TestCumSum(t *testing.T) {
	got := applyBlock(CumSum(0), 1, 2, nan, 3)
	testutil.RequireFloats(t, []float64{1, 3, nan, 6}, got, 0)

	got = applyBlock(CumSum(100), 0.5, 0.25)
	testutil.RequireFloats(t, []float64{100.5, 100.75}, got, 0)
}

func TestForwardFill(t *testing.T) {
	got := applyBlock(ForwardFill, nan, 1, nan, nan, 4, nan)
	testutil.RequireFloats(t, []float64{nan, 1, 1, 1, 4, 4}, got, 0)
}

func TestShift(t *testing.T) {
	testutil.RequireFloats(t, []float64{nan, 1, 2}, applyBlock(Shift(1), 1, 2, 3), 0)
	testutil.RequireFloats(t, []float64{2, 3, nan}, applyBlock(Shift(-1), 1, 2, 3), 0)
	testutil.RequireFloats(t, []float64{nan, nan, nan}, applyBlock(Shift(5), 1, 2, 3), 0)
	testutil.RequireFloats(t, []float64{1, 2, 3}, applyBlock(Shift(0), 1, 2, 3), 0)
}

func TestMomentum(t *testing.T) {
	got := applyBlock(Momentum(2), 100, 0, 110, 5)
	testutil.RequireFloats(t, []float64{nan, nan, 0.1, nan}, got, 1e-12)
}

func TestTransformsParallelMatchSequential(t *testing.T) {
	ctx := context.Background()
	engine := pipeline.NewEngine(pipeline.Config{Workers: 4, ScratchDir: t.TempDir()}, testutil.TestLogger(t))

	in, err := frame.FromValues(
		[]string{"d1", "d2", "d3", "d4", "d5"},
		[]string{"A", "B", "C"},
		[]float64{
			1, nan, 3,
			2, 5, nan,
			nan, 6, 2,
			4, 7, 1,
			5, nan, 8,
		},
		frame.ColumnMajor)
	require.NoError(t, err)
	defer in.Release()

	transforms := map[string]pipeline.BlockTransform{
		"dlog":     LogReturn,
		"cumsum":   CumSum(1),
		"ffill":    ForwardFill,
		"shift":    Shift(2),
		"momentum": Momentum(1),
		"mult":     Multiply(in),
	}
	for name, tr := range transforms {
		par, err := engine.Run(ctx, in, name, tr)
		require.NoError(t, err, name)
		seq, err := engine.Apply(ctx, in, name, tr)
		require.NoError(t, err, name)

		assert.Equal(t, seq.Bytes(), par.Bytes(), name)
		par.Release()
		seq.Release()
	}
}

func TestMultiply(t *testing.T) {
	labels := []string{"d1", "d2"}
	names := []string{"A", "B"}
	a, err := frame.FromValues(labels, names, []float64{1, 2, 3, 4}, frame.RowMajor)
	require.NoError(t, err)
	defer a.Release()
	b, err := frame.FromValues(labels, names, []float64{10, nan, 0.5, 2}, frame.RowMajor)
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, CheckMultiplicand(a, b))

	engine := pipeline.NewEngine(pipeline.Config{Workers: 2, ScratchDir: t.TempDir()}, testutil.TestLogger(t))
	out, err := engine.Run(context.Background(), a, "mult", Multiply(b))
	require.NoError(t, err)
	defer out.Release()

	testutil.RequireFloats(t, []float64{10, nan, 1.5, 8},
		[]float64{out.At(0, 0), out.At(0, 1), out.At(1, 0), out.At(1, 1)}, 0)
}

func TestCheckMultiplicand(t *testing.T) {
	a, err := frame.FromValues([]string{"d1"}, []string{"A", "B"}, []float64{1, 2}, frame.RowMajor)
	require.NoError(t, err)
	defer a.Release()

	b, err := frame.FromValues([]string{"d1"}, []string{"A"}, []float64{1}, frame.RowMajor)
	require.NoError(t, err)
	defer b.Release()
	assert.Error(t, CheckMultiplicand(a, b))

	c, err := a.ToLayout(frame.ColumnMajor, frame.Options{ScratchDir: t.TempDir()})
	require.NoError(t, err)
	defer c.Release()
	assert.Error(t, CheckMultiplicand(a, c))

	renamed, err := frame.FromValues([]string{"d1"}, []string{"X", "Y"}, []float64{3, 4}, frame.RowMajor)
	require.NoError(t, err)
	defer renamed.Release()
	assert.NoError(t, CheckMultiplicand(a, renamed))

	later, err := frame.FromValues([]string{"d2"}, []string{"A", "B"}, []float64{3, 4}, frame.RowMajor)
	require.NoError(t, err)
	defer later.Release()
	err = CheckMultiplicand(a, later)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date d1 differs from multiplicand date d2")
}
