// Package dht implements the DHT-Adapter (§4.5): encodes URL announcements
// with a remaining-crawl-hops parameter, puts them, and monitors puts
// passing through the local peer to feed the URL-Processor. Grounded on
// original_source/src/search/service/dht/dht.c.
package dht

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"

	"github.com/ksearch-project/ksearch/overlay"
)

const (
	// Prefix tags a DHT value as a search URL announcement (§4.5).
	Prefix = "search:url:"

	// DefaultReplication, with overlay.BlockTypeTest, is the put
	// parameter §4.5 fixes for every announcement this core ever makes.
	DefaultReplication = 2
)

// Adapter wraps an overlay.DHT with the search overlay's specific
// key/value encoding.
type Adapter struct {
	dht overlay.DHT
}

func New(d overlay.DHT) *Adapter { return &Adapter{dht: d} }

// Encode produces the `search:url:<hops>:<URL>` string that is, verbatim,
// both the DHT key's pre-image and the DHT value (§4.5).
func Encode(hops int, url string) string {
	return fmt.Sprintf("%s%d:%s", Prefix, hops, url)
}

// Decode parses hops and url back out of an announcement value (reverse of
// Encode). Malformed input is reported via error, never panics (§4.6
// "Robustness": malformed prefix or missing separators -> drop).
func Decode(value string) (hops int, url string, err error) {
	rest, ok := strings.CutPrefix(value, Prefix)
	if !ok {
		return 0, "", errors.Errorf("dht: value %q missing %q prefix", value, Prefix)
	}
	sep := strings.IndexByte(rest, ':')
	if sep < 0 {
		return 0, "", errors.Errorf("dht: value %q missing hops separator", value)
	}
	hops, err = strconv.Atoi(rest[:sep])
	if err != nil {
		return 0, "", errors.Wrapf(err, "dht: invalid hops in %q", value)
	}
	url = rest[sep+1:]
	if url == "" {
		return 0, "", errors.Errorf("dht: value %q has empty url", value)
	}
	return hops, url, nil
}

func keyHash(s string) uint64 {
	return xxhash.Checksum64S([]byte(s), 0)
}

// Announce puts a URL announcement with the given remaining-hops budget
// (§4.5 "Put").
func (a *Adapter) Announce(hops int, url string) error {
	value := Encode(hops, url)
	opts := overlay.PutOptions{
		Replication: DefaultReplication,
		BlockType:   overlay.BlockTypeTest,
		Expiration:  overlay.NoExpiration,
	}
	return a.dht.Put(keyHash(value), opts, []byte(value))
}

// OnAnnouncement is invoked for every observed announcement whose value
// begins with Prefix; hops/url are already parsed.
type OnAnnouncement func(hops int, url string)

// MonitorAnnouncements subscribes to all puts on the peer and dispatches
// search-url announcements to fn, dropping anything else or anything
// malformed (§4.5 "Monitor", §4.6 "Robustness").
func (a *Adapter) MonitorAnnouncements(fn OnAnnouncement) {
	a.dht.Monitor(overlay.BlockTypeTest, func(_ overlay.PutOptions, _ []overlay.PeerID, _ uint64, value []byte) {
		s := string(value)
		if !strings.HasPrefix(s, Prefix) {
			return
		}
		hops, url, err := Decode(s)
		if err != nil {
			return
		}
		fn(hops, url)
	})
}
