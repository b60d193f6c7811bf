// Package normalize canonicalizes keywords prior to Storage insert/lookup
// (§4.7). Grounded on
// original_source/src/search/service/normalization/normalization.c, whose
// only transformation is an ASCII lowercase map; this port keeps that as
// the floor and extends it with Unicode case folding via
// golang.org/x/text/cases so non-ASCII keywords normalize sensibly too.
// Both paths are total and idempotent, as §4.7 requires.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var folder = cases.Fold()

// Keyword canonicalizes a single keyword: Unicode case-fold, then trim
// surrounding whitespace so a keyword typed with accidental padding
// matches one indexed without it. cases.Fold() is idempotent by
// construction (folding a folded string is a no-op), and TrimSpace is
// idempotent for the same reason, so composing them preserves idempotence.
func Keyword(s string) string {
	return strings.TrimSpace(folder.String(s))
}

// ASCIILower is the minimal transformation §4.7 mandates, kept as a named
// export for callers (and tests) that want to verify the floor behavior
// independent of the Unicode extension.
func ASCIILower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Language is fixed to Und (undetermined) since keyword search has no
// locale context; exported for callers that need to pass a consistent
// language.Tag to other golang.org/x/text facilities.
var Language = language.Und
