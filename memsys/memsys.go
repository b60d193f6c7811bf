// Package memsys provides pooled byte-buffer allocation for the
// fragment/reassembly hot path (§4.1, §5). It is a trimmed stand-in for
// teacher's full slab allocator (github.com/NVIDIA/aistore/memsys): that
// implementation sizes buffers into a ladder of slab classes tuned for
// multi-gigabyte object transfer; this core only ever allocates buffers up
// to one transport MTU, so one sync.Pool per size class over a handful of
// classes is the right scope.
package memsys

import "sync"

const (
	KiB = 1024
	MiB = 1024 * KiB

	// DefaultBufSize is the default fragment buffer size absent a
	// transport-specific MaxMessageSize.
	DefaultBufSize = 4 * KiB
	// PageSize is the default header scratch-buffer size.
	PageSize = 4 * KiB
	// MaxPageSlabSize bounds any single allocation this pool will serve;
	// a request above it falls back to a direct, unpooled allocation.
	MaxPageSlabSize = 1 * MiB
)

// sizeClasses is the pool's slab ladder, smallest-first.
var sizeClasses = [...]int{512, KiB, 4 * KiB, 16 * KiB, 64 * KiB, 256 * KiB, MaxPageSlabSize}

// MMSA ("memory manager slab allocator", teacher's name) is a pooled
// byte-buffer source keyed by a small ladder of size classes.
type MMSA struct {
	pools [len(sizeClasses)]sync.Pool
}

var defaultMM = &MMSA{}

// PageMM returns the process-wide default allocator, mirroring teacher's
// memsys.PageMM() singleton accessor.
func PageMM() *MMSA { return defaultMM }

func (m *MMSA) classFor(size int) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// Alloc returns a buffer of length exactly `size`; its capacity may exceed
// size to allow pool reuse, but callers must only rely on len().
func (m *MMSA) Alloc(size int) []byte {
	class := m.classFor(size)
	if class < 0 {
		return make([]byte, size)
	}
	if v := m.pools[class].Get(); v != nil {
		buf := v.([]byte)
		return buf[:size]
	}
	return make([]byte, size, sizeClasses[class])
}

// Free returns a buffer previously obtained from Alloc to the pool. It is
// the deferred-free target in §4.1/§5: the hk task that fires when a
// transmit-ready callback never arrives calls Free to bound memory.
func (m *MMSA) Free(buf []byte) {
	if buf == nil {
		return
	}
	class := m.classFor(cap(buf))
	if class < 0 {
		return // oversized, unpooled: let the GC reclaim it
	}
	m.pools[class].Put(buf[:0:cap(buf)]) //nolint:staticcheck // reset len, keep cap
}
