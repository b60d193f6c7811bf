package normalize_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/normalize"
)

func TestKeywordIdempotent(t *testing.T) {
	cases := []string{"Rust", "RUST", "  rust  ", "Straße", "café"}
	for _, c := range cases {
		once := normalize.Keyword(c)
		twice := normalize.Keyword(once)
		if once != twice {
			t.Fatalf("normalize(%q) not idempotent: %q vs %q", c, once, twice)
		}
	}
}

func TestKeywordLowercasesASCII(t *testing.T) {
	if got := normalize.Keyword("RuSt"); got != "rust" {
		t.Fatalf("want rust, got %q", got)
	}
}

func TestASCIILowerIdempotent(t *testing.T) {
	if got := normalize.ASCIILower(normalize.ASCIILower("MiXeD")); got != "mixed" {
		t.Fatalf("want mixed, got %q", got)
	}
}
