// Package mmap provides memory-mapped buffers for zero-copy table storage.
//
// Three kinds of mapping are supported:
//   - Reader: a read-only view of an existing file, used for single-pass ingestion
//   - Region (anonymous): private zeroed memory, frozen read-only once filled
//   - Region (scratch): a disk-backed temporary file, for buffers that should not
//     count against resident memory while being written
//
// A frozen Region becomes a Buffer: an immutable, reference-counted byte slice
// that is unmapped when its last holder releases it.
package mmap

import (
	"fmt"
	"os"
	"sync"
)

// Reader provides memory-mapped file reading with zero-copy performance
type Reader struct {
	file     *os.File
	data     []byte
	fileSize int64

	mu sync.RWMutex
}

// OpenReader maps the named file read-only. An empty file yields a Reader with no
// mapping and a zero-length Bytes().
func OpenReader(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fileSize := stat.Size()
	if fileSize == 0 {
		return &Reader{file: file}, nil
	}
	if fileSize > int64(maxInt) {
		file.Close()
		return nil, fmt.Errorf("file too large to map: %d bytes", fileSize)
	}

	data, err := mapFile(int(file.Fd()), int(fileSize), false)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	// Advisory only; a failure does not affect correctness
	_ = adviseSequential(data)

	return &Reader{
		file:     file,
		data:     data,
		fileSize: fileSize,
	}, nil
}

// Bytes returns the entire memory-mapped file data. The slice is valid until Close.
func (r *Reader) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data
}

// Len returns the mapped file size
func (r *Reader) Len() int {
	return int(r.fileSize)
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error

	if r.data != nil {
		err = unmap(r.data)
		r.data = nil
	}

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}

const maxInt = int(^uint(0) >> 1)
