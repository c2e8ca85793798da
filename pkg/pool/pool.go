// Package pool provides typed object pooling for the buffers and writers that
// serializers reuse across calls.
//
// Example usage:
//
//	writers := pool.New(
//	    func() *bufio.Writer { return bufio.NewWriterSize(nil, 64<<10) },
//	    func(w *bufio.Writer) { w.Reset(nil) },
//	)
//	w := writers.Get()
//	defer writers.Put(w)
package pool

import "sync"

// Pool is a type-safe wrapper around sync.Pool that resets objects on Put.
// It is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New creates a pool. new builds an object when the pool is empty; reset, if
// non-nil, clears an object before it is pooled again.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} { return new() }
	return p
}

// Get takes an object from the pool, allocating one when none is free
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}
