// Package buffers provides reusable copy buffers so that worker goroutines
// streaming many files do not allocate a fresh buffer per file.
package buffers

import (
	"sync"
	"sync/atomic"
)

// Buffer sizes used by the stream copy.
const (
	TurboSize  = 1 << 20   // 1 MiB
	NormalSize = 512 << 10 // 512 KiB
)

// Pool monitoring counters.
var (
	turboAllocations  int64
	normalAllocations int64
)

var (
	turboPool = &sync.Pool{
		New: func() any {
			atomic.AddInt64(&turboAllocations, 1)
			buf := make([]byte, TurboSize)

			return &buf
		},
	}

	normalPool = &sync.Pool{
		New: func() any {
			atomic.AddInt64(&normalAllocations, 1)
			buf := make([]byte, NormalSize)

			return &buf
		},
	}
)

// Get returns a buffer sized for the current throttle mode.
// Release it with Put when the copy ends.
//
// Usage:
//
//	buf := buffers.Get(turbo)
//	defer buffers.Put(buf)
func Get(turbo bool) *[]byte {
	if turbo {
		return turboPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
	}

	return normalPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
}

// Put returns buf to its pool. Buffers of any other size are dropped.
func Put(buf *[]byte) {
	if buf == nil {
		return
	}

	switch len(*buf) {
	case TurboSize:
		turboPool.Put(buf)
	case NormalSize:
		normalPool.Put(buf)
	}
}

// Stats reports how many buffers each pool has allocated.
type Stats struct {
	TurboAllocations  int64
	NormalAllocations int64
}

// GetStats returns the current allocation counters.
func GetStats() Stats {
	return Stats{
		TurboAllocations:  atomic.LoadInt64(&turboAllocations),
		NormalAllocations: atomic.LoadInt64(&normalAllocations),
	}
}
