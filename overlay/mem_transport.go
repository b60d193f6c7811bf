// Package overlay: MemTransport, an in-process Transport implementation for
// tests and single-process demos. It keeps no output queue: each
// transmit-ready callback runs at once and its bytes are delivered
// synchronously to the destination peer's inbound handler, a reduced form
// of the role teacher's transport/bundle per-destination stream plays for
// a real multi-stream bundle (transport/bundle/stream_bundle.go).
package overlay

import (
	"fmt"
	"sync"
	"time"
)

type connHandle struct{ id string }

func (c *connHandle) ID() string { return c.id }

// MemTransport connects a set of named peers in a full mesh;
// NotifyTransmitReady on one peer's handle delivers (via the inbound
// handler) to the single peer named by cls, if it is still registered on
// the same MemTransport. It is not meant to be fast —
// only deterministic and easy to drive from tests.
type MemTransport struct {
	mu      sync.Mutex
	maxSize int
	peers   map[PeerID]*memPeer
	order   []PeerID // iteration order, insertion order
}

type memPeer struct {
	inbound InboundFunc
}

func NewMemTransport(maxSize int) *MemTransport {
	return &MemTransport{maxSize: maxSize, peers: make(map[PeerID]*memPeer)}
}

func (t *MemTransport) MaxMessageSize() int { return t.maxSize }

// NewPeer registers a peer identity and returns a *PeerHandle bound to it;
// the handle is what component code hands to Transport methods needing "the
// local identity" (distinct from Transport itself, which is shared).
func (t *MemTransport) NewPeer(id PeerID) *PeerHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.peers[id]; !ok {
		t.peers[id] = &memPeer{}
		t.order = append(t.order, id)
	}
	return &PeerHandle{net: t, self: id}
}

// RemovePeer simulates a disconnect: the peer is no longer iterated nor
// deliverable-to.
func (t *MemTransport) RemovePeer(id PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
	for i, pid := range t.order {
		if pid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// SetInboundHandler implements Transport for the network as a whole; in
// practice each PeerHandle.SetInboundHandler call is what actually matters
// and this top-level one is unused by component code but kept to satisfy
// the Transport interface if a test holds *MemTransport directly.
func (t *MemTransport) SetInboundHandler(InboundFunc) {}

func (t *MemTransport) NotifyTransmitReady(size int, cls any, handler TransmitReadyFunc, _ time.Duration) {
	buf := make([]byte, size)
	handler(cls, size, buf)
}

func (t *MemTransport) IteratePeers(handler func(peer *PeerID)) {
	t.mu.Lock()
	ids := append([]PeerID(nil), t.order...)
	t.mu.Unlock()
	for i := range ids {
		id := ids[i]
		handler(&id)
	}
	handler(nil)
}

func (t *MemTransport) Connect(serviceName string, _ any) (Connection, error) {
	return &connHandle{id: serviceName}, nil
}

func (t *MemTransport) Disconnect(Connection) {}

// PeerHandle is the per-peer view of a MemTransport: Transport scoped to
// "send/receive as this peer".
type PeerHandle struct {
	net  *MemTransport
	self PeerID
}

func (p *PeerHandle) MaxMessageSize() int { return p.net.MaxMessageSize() }

func (p *PeerHandle) SetInboundHandler(fn InboundFunc) {
	p.net.mu.Lock()
	defer p.net.mu.Unlock()
	if peer, ok := p.net.peers[p.self]; ok {
		peer.inbound = fn
	}
}

// NotifyTransmitReady on a peer handle, when cls is a PeerID destination
// (see flood.go / framing.go usage), delivers the written bytes to that
// peer's inbound handler instead of merely zero-filling a scratch buffer;
// this is what makes MemTransport usable for end-to-end tests rather than
// just unit tests of the framing layer alone.
func (p *PeerHandle) NotifyTransmitReady(size int, cls any, handler TransmitReadyFunc, maxDelay time.Duration) {
	buf := make([]byte, size)
	n := handler(cls, size, buf)
	if n <= 0 {
		return
	}
	dst, ok := cls.(PeerID)
	if !ok {
		// local loopback send: deliver to self (used by framing's
		// single-client transport where cls carries no destination).
		dst = p.self
	}
	p.net.mu.Lock()
	peer, exists := p.net.peers[dst]
	p.net.mu.Unlock()
	if !exists || peer.inbound == nil {
		return // §4.2 "Transport send failure: silently drop"
	}
	sender := p.self
	peer.inbound(&sender, buf[:n])
}

func (p *PeerHandle) IteratePeers(handler func(peer *PeerID)) {
	p.net.mu.Lock()
	ids := make([]PeerID, 0, len(p.net.order))
	for _, id := range p.net.order {
		if id != p.self {
			ids = append(ids, id)
		}
	}
	p.net.mu.Unlock()
	for i := range ids {
		id := ids[i]
		handler(&id)
	}
	handler(nil)
}

func (p *PeerHandle) Connect(serviceName string, _ any) (Connection, error) {
	return &connHandle{id: fmt.Sprintf("%s/%s", p.self, serviceName)}, nil
}

func (p *PeerHandle) Disconnect(Connection) {}

var _ Transport = (*PeerHandle)(nil)
var _ Transport = (*MemTransport)(nil)
