// Package cos: random identifiers.
package cos

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/teris-io/shortid"
)

var sid *shortid.Shortid

// InitShortID seeds the peer-ID generator; call once at startup.
func InitShortID(seed uint64) {
	sid = shortid.MustNew(1, shortid.DefaultABC, uint8(seed))
}

// GenPeerID mints a short, printable node identity, the same role teacher's
// cmn/cos.GenUUID plays for daemon IDs.
func GenPeerID() string {
	if sid == nil {
		InitShortID(1)
	}
	id, err := sid.Generate()
	if err != nil {
		// shortid only fails on generator exhaustion; extremely unlikely
		// and not worth surfacing up the call stack in this core.
		return RandFlowID().String()
	}
	return id
}

// FlowID is the flood message's 64-bit correlation identifier (§3).
type FlowID uint64

func (f FlowID) String() string { return fmt.Sprintf("%016x", uint64(f)) }

// RandFlowID draws a uniformly-random 64-bit flow-id from a
// cryptographically unbiased source. The source's original C
// implementation composed two 32-bit rand() calls; Design Notes call for
// replacing that with a proper random source since the only property
// consumed downstream is "unique with high probability".
func RandFlowID() FlowID {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; degrade to a time-seeded fallback rather than panic.
		return FlowID(fallbackRand())
	}
	return FlowID(binary.BigEndian.Uint64(b[:]))
}

// fallbackRand is only reached if the OS CSPRNG is unavailable, which does
// not happen on any platform this module targets; it exists so RandFlowID
// never panics.
func fallbackRand() uint64 {
	n := uint64(time.Now().UnixNano())
	n ^= n >> 33
	n *= 0xff51afd7ed558ccd
	n ^= n >> 33
	return n
}
