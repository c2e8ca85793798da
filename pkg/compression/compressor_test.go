package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressAll(t *testing.T, c Compressor, src []byte) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	w, err := c.NewWriter(&out)
	require.NoError(t, err)
	_, err = w.Write(src)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &out
}

func decompressAll(c Compressor, src io.Reader) ([]byte, error) {
	r, err := c.NewReader(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func TestStreamRoundTrip(t *testing.T) {
	original := []byte(strings.Repeat("DATE,A,B\n2024-01-02,100.5,NaN\n", 500))

	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2} {
		for _, level := range []Level{Fastest, Default, Best} {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: level})
			require.NoError(t, err)
			assert.Equal(t, alg, comp.Algorithm())
			assert.Equal(t, level, comp.Level())

			compressed := compressAll(t, comp, original)
			if alg != None {
				assert.Less(t, compressed.Len(), len(original), alg)
			}

			restored, err := decompressAll(comp, compressed)
			require.NoError(t, err, alg)
			assert.Equal(t, original, restored, alg)
		}
	}
}

func TestConcurrentEncoders(t *testing.T) {
	original := []byte(strings.Repeat("2024-01-02,1,2,3\n", 2000))
	for _, alg := range []Algorithm{LZ4, Zstd, S2} {
		comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default, Concurrency: 2})
		require.NoError(t, err)

		restored, err := decompressAll(comp, compressAll(t, comp, original))
		require.NoError(t, err)
		assert.Equal(t, original, restored, alg)
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)

	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Zstd, comp.Algorithm())
}

func TestForPath(t *testing.T) {
	cases := map[string]Algorithm{
		"prices.csv.gz":  Gzip,
		"prices.csv.ZST": Zstd,
		"prices.csv.lz4": LZ4,
		"prices.csv.s2":  S2,
		"prices.csv.sz":  Snappy,
	}
	for path, want := range cases {
		alg, ok := ForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, alg, path)
	}

	_, ok := ForPath("prices.csv")
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("Best")
	require.NoError(t, err)
	assert.Equal(t, Best, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, Default, level)

	_, err = ParseLevel("max")
	assert.Error(t, err)
}

func TestCorruptInput(t *testing.T) {
	comp, err := NewCompressor(&Config{Algorithm: Gzip})
	require.NoError(t, err)
	_, err = decompressAll(comp, strings.NewReader("not gzip"))
	assert.Error(t, err)
}
