package prob_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/prob"
)

func TestFilterAddAndLookup(t *testing.T) {
	f := prob.NewFilter(1024)
	if f.MightContain(42) {
		t.Fatal("expected absent before insert")
	}
	f.Add(42)
	if !f.MightContain(42) {
		t.Fatal("expected present after insert")
	}
}

func TestFilterReset(t *testing.T) {
	f := prob.NewFilter(16)
	f.Add(1)
	f.Reset(16)
	// Reset must not panic and should start from a clean filter; a false
	// positive is still legal here so we only assert it does not crash.
	_ = f.MightContain(1)
}
