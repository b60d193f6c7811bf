// Package wire: zero-terminated string packing used for ADD URL lists and
// RESULT URL lists (§3). SEARCH keywords do not go through it: cmd/ksearch
// sends the keyword as raw bytes with no terminator, and bridge reads the
// whole command body as the keyword.
package wire

import "bytes"

// EncodeStrings packs strings end-to-end, each zero-terminated.
func EncodeStrings(ss []string) []byte {
	n := 0
	for _, s := range ss {
		n += len(s) + 1
	}
	buf := make([]byte, 0, n)
	for _, s := range ss {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	return buf
}

// DecodeStrings splits a zero-terminated packed buffer back into strings.
// A trailing run without a terminator is dropped (as would occur if a
// serializer stopped mid-string because of a byte budget — §4.4 guarantees
// that never happens for a complete serialization, but defensive callers
// such as a partially-received payload rely on this truncation).
func DecodeStrings(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}
	parts := bytes.Split(buf, []byte{0})
	// The last part is whatever follows the final terminator: empty for a
	// fully terminated buffer, an unterminated run otherwise.
	parts = parts[:len(parts)-1]
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, string(p))
	}
	return out
}
