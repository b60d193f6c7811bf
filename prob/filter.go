// Package prob implements a fully featured dynamic probabilistic filter:
// an approximate-membership pre-check in front of the flooding routing
// table (§4.2). It can never turn a real miss into a false accept — a
// false positive only costs one extra ring scan, and the ring remains the
// sole source of truth for "unknown flow -> drop".
package prob

import (
	"encoding/binary"
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// Filter is a concurrency-safe wrapper around a cuckoo filter sized for the
// module's flow-id churn rate.
type Filter struct {
	mu sync.Mutex
	cf *cuckoo.Filter
}

// NewFilter allocates a filter sized for roughly `capacity` resident
// elements before its false-positive rate climbs appreciably; callers
// should pass a small multiple of the ring buffer capacity it backstops.
func NewFilter(capacity uint) *Filter {
	return &Filter{cf: cuckoo.NewFilter(capacity)}
}

func key(flowID uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], flowID)
	return b[:]
}

// Add inserts flowID; returns false if flowID already looks present (a
// real or false-positive hit) or if the filter is saturated and could not
// make room, in which case the caller falls back to the ring buffer alone
// (flood drops its filter on any false return).
func (f *Filter) Add(flowID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cf.InsertUnique(key(flowID))
}

// MightContain reports whether flowID may have been added; false is a
// certain answer, true requires confirming against the routing table.
func (f *Filter) MightContain(flowID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cf.Lookup(key(flowID))
}

// Reset discards all membership state, used when the routing table itself
// is reset (e.g. in tests).
func (f *Filter) Reset(capacity uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cf = cuckoo.NewFilter(capacity)
}
