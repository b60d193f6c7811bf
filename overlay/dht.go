// Package overlay: the abstract DHT used to announce URLs to neighbours
// (§6 "DHT abstraction"). The core consumes a put-monitor callback and
// emits put requests through this narrow interface; the actual
// distributed-hash-table implementation is an external collaborator (§1).
package overlay

import "time"

// BlockType tags the kind of value stored at a DHT key, mirroring the
// source's blocktype parameter; this core only ever uses BlockTypeTest.
type BlockType uint8

const BlockTypeTest BlockType = 0

// NoExpiration is passed for "infinite" expiry (§6: put(..., expiration=infinite)).
var NoExpiration time.Time

// PutOptions carries the put-call parameters the core always supplies
// verbatim (§4.5: "replication 2, blocktype TEST").
type PutOptions struct {
	Replication int
	BlockType   BlockType
	Expiration  time.Time
}

// OnPutFunc fires for every put observed by a Monitor subscription.
// keyHash/value mirror what was supplied to Put; path is the put's
// propagation path as reported by the DHT, opaque to this core beyond
// logging.
type OnPutFunc func(opts PutOptions, path []PeerID, keyHash uint64, value []byte)

// DHT is the abstraction the DHT-Adapter (package dht) is built on.
type DHT interface {
	Put(keyHash uint64, opts PutOptions, value []byte) error
	Monitor(blockType BlockType, onPut OnPutFunc)
}
