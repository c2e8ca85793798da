package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	p := New(
		func() *bytes.Buffer { return &bytes.Buffer{} },
		func(b *bytes.Buffer) { b.Reset() },
	)

	b := p.Get()
	b.WriteString("frame")
	p.Put(b)

	again := p.Get()
	assert.Equal(t, 0, again.Len())
	p.Put(again)
}

func TestPoolConcurrentUse(t *testing.T) {
	p := New(
		func() *bytes.Buffer { return &bytes.Buffer{} },
		func(b *bytes.Buffer) { b.Reset() },
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := p.Get()
			assert.Equal(t, 0, b.Len())
			b.WriteString("row")
			p.Put(b)
		}()
	}
	wg.Wait()
}
