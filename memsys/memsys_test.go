package memsys_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/memsys"
)

func TestAllocFreeReuse(t *testing.T) {
	mm := memsys.PageMM()
	buf := mm.Alloc(1024)
	if len(buf) != 1024 {
		t.Fatalf("want len 1024, got %d", len(buf))
	}
	mm.Free(buf)

	buf2 := mm.Alloc(1024)
	if len(buf2) != 1024 {
		t.Fatalf("want len 1024, got %d", len(buf2))
	}
}

func TestAllocOversized(t *testing.T) {
	mm := memsys.PageMM()
	buf := mm.Alloc(memsys.MaxPageSlabSize + 1)
	if len(buf) != memsys.MaxPageSlabSize+1 {
		t.Fatalf("want exact oversized length, got %d", len(buf))
	}
	mm.Free(buf) // must not panic
}
