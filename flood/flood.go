// Package flood implements the Flooding component (§4.2): TTL-bounded
// flooding of REQUEST messages to every connected peer except the sender,
// reverse-path routing of RESPONSE messages back to the requester, and
// loop suppression via a bounded routing table. Grounded on
// original_source/src/search/service/flooding/flooding.c, whose
// request/response state machine this package implements unchanged: a
// request already present in the routing table is a cycle and is
// discarded outright (no local lookup, no re-flood); otherwise a routing
// entry is recorded before the local request handler runs, so a node
// processing its own locally-originated request takes the exact same path
// as one processing a neighbour's.
package flood

import (
	"time"

	"github.com/ksearch-project/ksearch/cmn/cos"
	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/memsys"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/prob"
	"github.com/ksearch-project/ksearch/wire"
)

// InitialTTL is the hop budget stamped on every freshly created message,
// request or response alike (original: "flooding_message->ttl = 16").
const InitialTTL uint8 = 16

// DefaultMaxDelay mirrors framing's transmit-ready timeout (§5).
const DefaultMaxDelay = time.Minute

const deferredFreeSlack = time.Second

// filterSlack sizes the cuckoo pre-filter as a small multiple of the
// routing table it backstops (§2 domain-stack entry for prob.Filter).
const filterSlack = 4

// RequestHandler answers a REQUEST's payload with a local match, if any;
// ok is false when there is nothing to answer with (§4.2/§4.3 "a node with
// no local match for the request's keyword sends no response of its own,
// but still floods the request onward").
type RequestHandler func(body []byte) (response []byte, ok bool)

// ResponseHandler delivers a RESPONSE whose routing-table entry says it is
// destined for this node (own_request == true) to whatever locally issued
// the original request.
type ResponseHandler func(flowID uint64, body []byte)

type routingEntry struct {
	flowID     uint64
	ownRequest bool
	nextHop    overlay.PeerID
}

// Flooder runs the REQUEST/RESPONSE state machine over one transport.
type Flooder struct {
	transport  overlay.Transport
	mm         *memsys.MMSA
	hk         *hk.Housekeeper
	maxDelay   time.Duration
	initialTTL uint8

	routing *cos.Ring[routingEntry]
	filter  *prob.Filter

	onRequest  RequestHandler
	onResponse ResponseHandler
}

// New wires a Flooder onto transport, with a routing table of the given
// capacity (§4.2 default 25). housekeeper defaults to hk.DefaultHK when nil.
func New(transport overlay.Transport, housekeeper *hk.Housekeeper, routingTableSize int) *Flooder {
	if housekeeper == nil {
		housekeeper = hk.DefaultHK
	}
	f := &Flooder{
		transport:  transport,
		mm:         memsys.PageMM(),
		hk:         housekeeper,
		maxDelay:   DefaultMaxDelay,
		initialTTL: InitialTTL,
		routing:    cos.NewRing[routingEntry](routingTableSize),
		filter:     prob.NewFilter(uint(routingTableSize * filterSlack)),
	}
	transport.SetInboundHandler(f.onInbound)
	return f
}

// SetHandlers installs the local REQUEST/RESPONSE callbacks; called once
// during wiring (bridge owns both).
func (f *Flooder) SetHandlers(onRequest RequestHandler, onResponse ResponseHandler) {
	f.onRequest = onRequest
	f.onResponse = onResponse
}

// RequestFlood originates a new request locally: it draws a fresh flow id,
// records it as this node's own request, and floods it to every connected
// peer (§4.2 "flood_request", §4.3 "SEARCH dispatch").
func (f *Flooder) RequestFlood(body []byte) (flowID uint64) {
	id := uint64(cos.RandFlowID())
	f.process(nil, &wire.FloodMessage{FlowID: id, TTL: f.initialTTL, Type: wire.FloodRequest, Body: body})
	return id
}

// SendResponse answers an in-flight flow id with body, routing it back one
// hop at a time via the routing table (§4.2 "send_response").
func (f *Flooder) SendResponse(flowID uint64, body []byte) {
	f.process(nil, &wire.FloodMessage{FlowID: flowID, TTL: f.initialTTL, Type: wire.FloodResponse, Body: body})
}

// SendRequest floods body as a request under a caller-chosen flow id
// (§4.3 "SEARCH dispatch": the client-bridge mints the flow id itself so it
// can record the request-id mapping before the flood even starts).
func (f *Flooder) SendRequest(flowID uint64, body []byte) {
	f.process(nil, &wire.FloodMessage{FlowID: flowID, TTL: f.initialTTL, Type: wire.FloodRequest, Body: body})
}

func (f *Flooder) onInbound(sender *overlay.PeerID, unit []byte) {
	msg, err := wire.UnmarshalFloodMessage(unit)
	if err != nil {
		nlog.Warningf("flood: dropping malformed unit from %v: %v", sender, err)
		return
	}
	f.process(sender, msg)
}

// seen reports whether flowID already has a routing-table entry, consulting
// the cuckoo pre-filter first (§2): a filter miss is certain, a filter hit
// must be confirmed against the ring, which remains authoritative.
func (f *Flooder) seen(flowID uint64) bool {
	if f.filter != nil && !f.filter.MightContain(flowID) {
		return false
	}
	_, found := f.routing.Find(func(e routingEntry) bool { return e.flowID == flowID })
	return found
}

func (f *Flooder) process(sender *overlay.PeerID, msg *wire.FloodMessage) {
	switch msg.Type {
	case wire.FloodRequest:
		f.processRequest(sender, msg)
	case wire.FloodResponse:
		f.processResponse(sender, msg)
	default:
		nlog.Warningf("flood: dropping message with unknown type %v", msg.Type)
	}
}

func (f *Flooder) processRequest(sender *overlay.PeerID, msg *wire.FloodMessage) {
	if f.seen(msg.FlowID) {
		return // message cycle; discard
	}

	entry := routingEntry{flowID: msg.FlowID, ownRequest: sender == nil}
	if sender != nil {
		entry.nextHop = *sender
	}
	f.routing.Add(entry)
	if f.filter != nil && !f.filter.Add(msg.FlowID) {
		// A failed insert may have displaced a resident entry, so filter
		// misses are no longer certain: use the ring alone from here on.
		f.filter = nil
	}

	if f.onRequest != nil {
		if resp, ok := f.onRequest(msg.Body); ok {
			f.SendResponse(msg.FlowID, resp)
		}
	}

	if msg.TTL == 0 {
		return
	}
	outTTL := msg.TTL - 1
	if outTTL == 0 {
		return
	}
	f.floodExcept(sender, &wire.FloodMessage{FlowID: msg.FlowID, TTL: outTTL, Type: wire.FloodRequest, Body: msg.Body})
}

func (f *Flooder) processResponse(sender *overlay.PeerID, msg *wire.FloodMessage) {
	entry, found := f.routing.Find(func(e routingEntry) bool { return e.flowID == msg.FlowID })
	if !found {
		err := cos.NewErrNotFound("routing entry for flow %x", msg.FlowID)
		nlog.Warningf("flood: dropping response: %v", err)
		return
	}

	if entry.ownRequest {
		if f.onResponse != nil {
			f.onResponse(msg.FlowID, msg.Body)
		}
		return
	}

	if msg.TTL == 0 {
		return
	}
	outTTL := msg.TTL - 1
	if outTTL == 0 {
		return
	}
	f.sendTo(entry.nextHop, &wire.FloodMessage{FlowID: msg.FlowID, TTL: outTTL, Type: wire.FloodResponse, Body: msg.Body})
}

// floodExcept sends msg to every connected peer other than except (nil
// except means "skip none", i.e. a locally-originated request reaches
// everyone); grounded on transport/bundle's Streams.Send fan-out-over-
// IteratePeers pattern.
func (f *Flooder) floodExcept(except *overlay.PeerID, msg *wire.FloodMessage) {
	f.transport.IteratePeers(func(peer *overlay.PeerID) {
		if peer == nil {
			return
		}
		if except != nil && *peer == *except {
			return
		}
		f.sendTo(*peer, msg)
	})
}

func (f *Flooder) sendTo(dst overlay.PeerID, msg *wire.FloodMessage) {
	size := wire.FloodHeaderSize + len(msg.Body)
	if size > f.transport.MaxMessageSize() {
		nlog.Warningf("flood: message for flow %x exceeds MaxMessageSize, dropping", msg.FlowID)
		return
	}
	frame := f.mm.Alloc(size)
	msg.Marshal(frame)

	freed := false
	free := func() {
		if !freed {
			freed = true
			f.mm.Free(frame)
		}
	}
	taskName := f.hk.OnceAt(f.maxDelay+deferredFreeSlack, free)

	f.transport.NotifyTransmitReady(size, dst, func(_ any, available int, out []byte) int {
		f.hk.Unreg(taskName)
		defer free()
		if available < size {
			return 0 // §4.2 "Transport send failure: silently drop"
		}
		return copy(out, frame)
	}, f.maxDelay)
}
