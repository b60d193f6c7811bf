// Package framing implements the fragmentation/reassembly layer of §4.1:
// bidirectional transport of arbitrary-length application payloads over a
// transport whose unit messages carry at most MaxPayloadPerUnit bytes.
// Grounded on transport/pdu.go's spdu/rpdu split (send-side accumulates
// into a fixed buffer tracking done/last; receive-side reads a header then
// the declared payload) and on
// original_source/src/search/communication/communication.c for the
// higher-level send/receive contract this module generalizes.
package framing

import (
	"errors"
	"time"

	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/memsys"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/wire"
)

// DefaultMaxDelay is the transmit-ready timeout of §5 ("Transmit requests
// carry a max-delay (default one minute)").
const DefaultMaxDelay = time.Minute

// deferredFreeSlack is how much past maxDelay the hk task waits before
// freeing a buffer whose transmit-ready callback never fired (§5).
const deferredFreeSlack = time.Second

var (
	// ErrOversizedPayload is returned at send time for a payload the
	// transport will never carry (§4.1 "Errors").
	ErrOversizedPayload = errors.New("framing: payload larger than the transport will ever carry")
)

// Listener receives one fully reassembled (or single-fragment) application
// message; sender is nil when the transport supplied none (a loopback
// delivery, or a ConnTransport's single remote end).
type Listener func(sender *overlay.PeerID, payload []byte)

// reassembly is the per-sender buffer of §3 ("Reassembly buffer"); one
// lives per currently-fragmenting sender so a multi-client service can
// interleave senders without cross-talk (Design Notes: "a reimplementation
// that serves multiple clients concurrently must key the reassembly
// buffer by sender identity").
type reassembly struct {
	fragments [][]byte
}

func (r *reassembly) reset() { r.fragments = r.fragments[:0] }

func (r *reassembly) total() int {
	n := 0
	for _, f := range r.fragments {
		n += len(f)
	}
	return n
}

func (r *reassembly) assemble(last []byte) []byte {
	out := make([]byte, 0, r.total()+len(last))
	for _, f := range r.fragments {
		out = append(out, f...)
	}
	out = append(out, last...)
	return out
}

// Framer fragments outbound payloads and reassembles inbound units for one
// transport. It registers itself as the transport's sole inbound handler.
type Framer struct {
	transport overlay.Transport
	mm        *memsys.MMSA
	hk        *hk.Housekeeper
	maxDelay  time.Duration

	listeners []Listener
	reasm     map[overlay.PeerID]*reassembly
	localKey  overlay.PeerID // key used for nil-sender (loopback) reassembly
}

const loopbackKey overlay.PeerID = "\x00local"

// New wires a Framer onto transport; housekeeper is used for the
// deferred-free discipline of §5 and defaults to hk.DefaultHK when nil.
func New(transport overlay.Transport, housekeeper *hk.Housekeeper) *Framer {
	if housekeeper == nil {
		housekeeper = hk.DefaultHK
	}
	f := &Framer{
		transport: transport,
		mm:        memsys.PageMM(),
		hk:        housekeeper,
		maxDelay:  DefaultMaxDelay,
		reasm:     make(map[overlay.PeerID]*reassembly),
		localKey:  loopbackKey,
	}
	transport.SetInboundHandler(f.onInbound)
	return f
}

// AddListener subscribes a handler to every reassembled message (§4.1
// "Listeners"); all listeners see the same ordering of messages.
func (f *Framer) AddListener(l Listener) {
	f.listeners = append(f.listeners, l)
}

func (f *Framer) maxPayloadPerUnit() int {
	return f.transport.MaxMessageSize() - wire.FramingHeaderSize
}

// Transmit fragments payload as necessary and enqueues it for send to dst
// (nil dst means "the sole peer this Framer talks to" — used by the
// client-facing direction, which only ever has one destination at a time
// per §4.3 "One client at a time").
func (f *Framer) Transmit(payload []byte, dst *overlay.PeerID) error {
	unit := f.maxPayloadPerUnit()
	if unit <= 0 {
		return ErrOversizedPayload
	}
	if len(payload) == 0 {
		return f.sendOne(payload, 0, dst)
	}
	if len(payload) <= unit {
		return f.sendOne(payload, 0, dst)
	}

	off := 0
	for off < len(payload) {
		end := off + unit
		flags := wire.Fragmented
		if end >= len(payload) {
			end = len(payload)
			flags |= wire.LastFragment
		}
		if err := f.sendOne(payload[off:end], flags, dst); err != nil {
			return err
		}
		off = end
	}
	return nil
}

type sendCls struct {
	frame []byte
	dst   *overlay.PeerID
}

func (f *Framer) sendOne(chunk []byte, flags wire.Flags, dst *overlay.PeerID) error {
	size := wire.FramingHeaderSize + len(chunk)
	if size > f.transport.MaxMessageSize() {
		return ErrOversizedPayload
	}
	frame := f.mm.Alloc(size)
	wire.MarshalFramingHeader(frame, flags)
	copy(frame[wire.FramingHeaderSize:], chunk)

	cls := sendCls{frame: frame, dst: dst}
	freed := false
	free := func() {
		if !freed {
			freed = true
			f.mm.Free(frame)
		}
	}
	// §5: a deferred-free task bounds memory whether or not the
	// transport's transmit-ready callback ever fires.
	taskName := f.hk.OnceAt(f.maxDelay+deferredFreeSlack, free)

	transmitCls := any(cls.frame)
	if dst != nil {
		transmitCls = *dst
	}
	f.transport.NotifyTransmitReady(size, transmitCls, func(_ any, available int, out []byte) int {
		f.hk.Unreg(taskName)
		defer free()
		if available < size {
			return 0 // §4.1/§4.2: silent send failure, queue stays intact
		}
		return copy(out, frame)
	}, f.maxDelay)
	return nil
}

// Reset discards the reassembly buffer for sender (or the loopback buffer
// if sender is nil), per §4.1 "reset()" — called on disconnect and on
// out-of-spec framing errors.
func (f *Framer) Reset(sender *overlay.PeerID) {
	delete(f.reasm, f.keyFor(sender))
}

// ResetAll discards every reassembly buffer; used on full client disconnect.
func (f *Framer) ResetAll() {
	f.reasm = make(map[overlay.PeerID]*reassembly)
}

func (f *Framer) keyFor(sender *overlay.PeerID) overlay.PeerID {
	if sender == nil {
		return f.localKey
	}
	return *sender
}

func (f *Framer) onInbound(sender *overlay.PeerID, unit []byte) {
	if len(unit) < wire.FramingHeaderSize {
		nlog.Warningf("framing: dropping short unit (%d bytes)", len(unit))
		f.Reset(sender) // §4.1 "Validate... if not, reset the reassembly buffer and drop"
		return
	}
	flags := wire.UnmarshalFramingHeader(unit)
	payload := unit[wire.FramingHeaderSize:]
	key := f.keyFor(sender)

	switch {
	case flags == 0:
		f.deliver(sender, payload)
	case flags == wire.Fragmented:
		buf := f.reasm[key]
		if buf == nil {
			buf = &reassembly{}
			f.reasm[key] = buf
		}
		buf.fragments = append(buf.fragments, append([]byte(nil), payload...))
	case flags == (wire.Fragmented | wire.LastFragment):
		buf := f.reasm[key]
		var full []byte
		if buf == nil {
			full = append([]byte(nil), payload...)
		} else {
			full = buf.assemble(payload)
			delete(f.reasm, key)
		}
		f.deliver(sender, full)
	default:
		nlog.Warningf("framing: dropping unit with invalid flags %s", flags)
		f.Reset(sender)
	}
}

func (f *Framer) deliver(sender *overlay.PeerID, payload []byte) {
	for _, l := range f.listeners {
		l(sender, payload)
	}
}
