// Package overlay defines the transport and DHT abstractions this core
// depends on (§6). Both are external collaborators: the real peer-to-peer
// transport (peer iteration, per-peer transmit-ready notification, inbound
// delivery, max-message-size) and the real DHT are out of scope per §1;
// this package only pins down the narrow interface the core consumes, plus
// an in-memory implementation (MemTransport) used by tests and by
// single-process demos.
package overlay

import "time"

// PeerID identifies a connected peer. The zero value is never a valid peer.
type PeerID string

// TransmitReadyFunc is invoked once `available >= size` or `maxDelay`
// elapses, whichever first; it must write at most `available` bytes into
// `out` and return the count written (§6).
type TransmitReadyFunc func(cls any, available int, out []byte) (written int)

// InboundFunc delivers one unit message as received from the transport;
// sender is nil when the transport has no peer identity for the source
// (ConnTransport's single remote end) or for messages the local node
// injects into its own pipeline.
type InboundFunc func(sender *PeerID, unit []byte)

// Transport is the abstract lower transport that Framing and Flooding run
// over (§6 "Transport abstraction"). A real implementation would be an
// actual peer-to-peer network stack; this core only ever calls these
// methods.
type Transport interface {
	// MaxMessageSize is the hard upper bound on a unit message, headers
	// included.
	MaxMessageSize() int

	// NotifyTransmitReady asks the transport to call handler(cls, n, buf)
	// once at least `size` bytes are available for send, or after
	// maxDelay elapses (at which point the transport may call the
	// handler with available=0 to signal the timeout, or never call it
	// at all — callers must not rely on it firing; see hk-based deferred
	// free in framing/flood).
	NotifyTransmitReady(size int, cls any, handler TransmitReadyFunc, maxDelay time.Duration)

	// SetInboundHandler registers the sole receiver of inbound unit
	// messages for this transport instance.
	SetInboundHandler(fn InboundFunc)

	// IteratePeers calls handler once per currently-connected peer, in
	// the transport's own iteration order, then calls handler(nil) to
	// terminate (§6).
	IteratePeers(handler func(peer *PeerID))

	// Connect/Disconnect manage a logical connection to a named service
	// (e.g. the local client, as opposed to a remote peer).
	Connect(serviceName string, cfg any) (Connection, error)
	Disconnect(conn Connection)
}

// Connection is an opaque handle returned by Transport.Connect.
type Connection interface {
	ID() string
}
