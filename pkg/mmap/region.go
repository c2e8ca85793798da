package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Kind identifies how a Region is backed
type Kind string

const (
	// KindAnonymous is private memory not backed by any file
	KindAnonymous Kind = "anonymous"
	// KindScratch is backed by an unlinked temporary file
	KindScratch Kind = "scratch"
)

// Region is a writable mapping that is filled once and then frozen into a Buffer.
// A Region is not safe for concurrent Freeze/Close calls, but concurrent writers to
// disjoint byte ranges of Bytes() are fine.
type Region struct {
	data []byte
	kind Kind
	done bool
}

// Anonymous maps size bytes of zeroed private memory
func Anonymous(size int) (*Region, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative region size %d", size)
	}
	if size == 0 {
		return &Region{kind: KindAnonymous}, nil
	}

	data, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d anonymous bytes: %w", size, err)
	}
	return &Region{data: data, kind: KindAnonymous}, nil
}

// Scratch creates a temporary file of exactly size bytes in dir and maps it
// read-write. The file is unlinked right after mapping, so the kernel reclaims it
// when the mapping goes away. An empty dir means os.TempDir().
func Scratch(dir string, size int) (*Region, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative region size %d", size)
	}
	if size == 0 {
		return &Region{kind: KindScratch}, nil
	}

	file, err := os.CreateTemp(dir, "framekit-scratch-*.bin")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	name := file.Name()
	defer func() {
		file.Close()
		os.Remove(name)
	}()

	if err := file.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("failed to size scratch file to %d bytes: %w", size, err)
	}

	data, err := mapFile(int(file.Fd()), size, true)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap scratch file: %w", err)
	}
	return &Region{data: data, kind: KindScratch}, nil
}

// Bytes returns the writable mapping
func (r *Region) Bytes() []byte {
	return r.data
}

// Len returns the mapping size
func (r *Region) Len() int {
	return len(r.data)
}

// Kind reports how the region is backed
func (r *Region) Kind() Kind {
	return r.kind
}

// Freeze drops write access to the mapping and hands ownership to a new Buffer
// holding one reference. The Region must not be used afterwards.
func (r *Region) Freeze() (*Buffer, error) {
	if r.done {
		return nil, fmt.Errorf("region already frozen or closed")
	}
	if len(r.data) > 0 {
		if err := protectReadOnly(r.data); err != nil {
			return nil, fmt.Errorf("failed to freeze %s region: %w", r.kind, err)
		}
	}
	r.done = true

	b := &Buffer{data: r.data, kind: r.kind}
	b.refs.Store(1)
	r.data = nil
	return b, nil
}

// Close unmaps a region that will never be frozen. It is a no-op after Freeze.
func (r *Region) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	if r.data == nil {
		return nil
	}
	err := unmap(r.data)
	r.data = nil
	return err
}

// Buffer is an immutable mapped byte slice shared by reference count.
// Retain and Release are safe for concurrent use.
type Buffer struct {
	data   []byte
	kind   Kind
	refs   atomic.Int32
	onFree func(size int)
}

// Bytes returns the read-only contents. Writing to the slice faults.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer size in bytes
func (b *Buffer) Len() int {
	return len(b.data)
}

// Kind reports how the buffer is backed
func (b *Buffer) Kind() Kind {
	return b.kind
}

// Refs returns the current reference count
func (b *Buffer) Refs() int {
	return int(b.refs.Load())
}

// OnFree registers fn to run once the mapping is released. It must be called
// before the buffer is shared.
func (b *Buffer) OnFree(fn func(size int)) {
	b.onFree = fn
}

// Retain adds a reference and returns b for chaining
func (b *Buffer) Retain() *Buffer {
	if b.refs.Add(1) <= 1 {
		panic("mmap: retain of released buffer")
	}
	return b
}

// Release drops a reference, unmapping the buffer when the count reaches zero
func (b *Buffer) Release() error {
	n := b.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		panic("mmap: buffer released more times than retained")
	}
	size := len(b.data)
	if b.onFree != nil {
		defer b.onFree(size)
	}
	if b.data == nil {
		return nil
	}
	err := unmap(b.data)
	b.data = nil
	return err
}
