package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("DATE,A\n2021-01-01,1\n"), 0o600))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "DATE,A\n2021-01-01,1\n", string(r.Bytes()))
	assert.Equal(t, 20, r.Len())
	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())
}

func TestOpenReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := OpenReader(path)
	require.NoError(t, err)
	assert.Empty(t, r.Bytes())
	assert.NoError(t, r.Close())
}

func TestOpenReaderMissingFile(t *testing.T) {
	_, err := OpenReader(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestRegionFreezeAndRelease(t *testing.T) {
	tests := []struct {
		name string
		make func(size int) (*Region, error)
		kind Kind
	}{
		{"anonymous", Anonymous, KindAnonymous},
		{"scratch", func(size int) (*Region, error) { return Scratch(t.TempDir(), size) }, KindScratch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.make(64)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, r.Kind())
			assert.Equal(t, 64, r.Len())

			copy(r.Bytes(), "hello")
			buf, err := r.Freeze()
			require.NoError(t, err)

			assert.Equal(t, "hello", string(buf.Bytes()[:5]))
			assert.Equal(t, 1, buf.Refs())

			buf.Retain()
			assert.Equal(t, 2, buf.Refs())
			require.NoError(t, buf.Release())
			assert.NotNil(t, buf.Bytes())
			require.NoError(t, buf.Release())
			assert.Nil(t, buf.Bytes())

			_, err = r.Freeze()
			assert.Error(t, err)
			assert.NoError(t, r.Close())
		})
	}
}

func TestScratchLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	r, err := Scratch(dir, 128)
	require.NoError(t, err)
	defer r.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestZeroSizeRegion(t *testing.T) {
	r, err := Anonymous(0)
	require.NoError(t, err)

	buf, err := r.Freeze()
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())
	assert.NoError(t, buf.Release())
}

func TestRegionCloseWithoutFreeze(t *testing.T) {
	r, err := Anonymous(16)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}

func TestReleaseTooManyTimesPanics(t *testing.T) {
	r, err := Anonymous(8)
	require.NoError(t, err)
	buf, err := r.Freeze()
	require.NoError(t, err)
	require.NoError(t, buf.Release())

	assert.Panics(t, func() { _ = buf.Release() })
}
