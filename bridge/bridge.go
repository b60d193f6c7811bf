// Package bridge implements the Client-Bridge (§4.3): dispatches SEARCH and
// ADD commands arriving from the single connected client, maps each SEARCH
// to a fresh flow id so a later flood RESPONSE can be routed back to the
// right client request, and answers flood REQUESTs by consulting the local
// keyword index. Grounded on
// original_source/src/search/service/client-communication/client-communication.c,
// whose gnunet_search_client_message_handle/by_flow_id_request_id_get pair
// this package's HandleClientMessage/handleFloodResponse mirror.
package bridge

import (
	"github.com/ksearch-project/ksearch/cmn/cos"
	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/flood"
	"github.com/ksearch-project/ksearch/normalize"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/store"
	"github.com/ksearch-project/ksearch/wire"
)

// Getter is the subset of store.Storage the bridge needs to answer a flood
// REQUEST locally.
type Getter interface {
	Get(keyword string) ([]string, error)
}

// Announcer is the subset of dht.Adapter needed for ADD (§4.3 "ADD
// dispatch"): put every supplied URL with the configured default crawl-hops
// budget.
type Announcer interface {
	Announce(hops int, url string) error
}

// Flooder is the subset of flood.Flooder the bridge drives; kept as an
// interface so tests can substitute a lighter double than a full
// overlay.Transport-backed Flooder.
type Flooder interface {
	SendRequest(flowID uint64, body []byte)
	SetHandlers(onRequest flood.RequestHandler, onResponse flood.ResponseHandler)
}

// Responder delivers a framed application response to the sole connected
// client (§4.3 "One client at a time"); satisfied by *framing.Framer.
type Responder interface {
	Transmit(payload []byte, dst *overlay.PeerID) error
}

type flowMapEntry struct {
	requestID uint16
	flowID    uint64
}

// Bridge wires the client-facing command dispatch to Flooding, Storage, and
// the DHT-Adapter.
type Bridge struct {
	flooder          Flooder
	index            Getter
	announcer        Announcer
	resp             Responder
	flowMap          *cos.Ring[flowMapEntry]
	defaultCrawlHops int
	maxResponseBytes int
}

// New wires a Bridge; flowMapSize is the flow map's capacity (§4.3's 15 is
// the cmn/config default; New itself applies none), maxResponseBytes
// bounds a single flood RESPONSE payload this node answers a REQUEST with
// (store.Serialize's budget).
func New(flooder Flooder, index Getter, announcer Announcer, resp Responder, flowMapSize, defaultCrawlHops, maxResponseBytes int) *Bridge {
	b := &Bridge{
		flooder:          flooder,
		index:            index,
		announcer:        announcer,
		resp:             resp,
		flowMap:          cos.NewRing[flowMapEntry](flowMapSize),
		defaultCrawlHops: defaultCrawlHops,
		maxResponseBytes: maxResponseBytes,
	}
	flooder.SetHandlers(b.handleFloodRequest, b.handleFloodResponse)
	return b
}

// SetResponder swaps the client channel the bridge answers on (§4.3 "One
// client at a time"): cmd/ksearchd calls this once per accepted connection.
func (b *Bridge) SetResponder(resp Responder) {
	b.resp = resp
}

// HandleClientMessage is the framing listener target: dispatch on the
// reassembled application command (§4.3, §6).
func (b *Bridge) HandleClientMessage(_ *overlay.PeerID, payload []byte) {
	cmd, err := wire.UnmarshalSearchCommand(payload)
	if err != nil {
		nlog.Warningf("bridge: dropping malformed client command: %v", err)
		return
	}
	switch cmd.Action {
	case wire.ActionSearch:
		b.handleSearch(cmd)
	case wire.ActionAdd:
		b.handleAdd(cmd)
	default:
		nlog.Warningf("bridge: unknown action %v", cmd.Action)
	}
}

func (b *Bridge) handleSearch(cmd *wire.SearchCommand) {
	keyword := normalize.Keyword(string(cmd.Body))
	flowID := uint64(cos.RandFlowID())
	b.flowMap.Add(flowMapEntry{requestID: cmd.ID, flowID: flowID})
	b.flooder.SendRequest(flowID, []byte(keyword))
}

func (b *Bridge) handleAdd(cmd *wire.SearchCommand) {
	urls := wire.DecodeStrings(cmd.Body)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := b.announcer.Announce(b.defaultCrawlHops, u); err != nil {
			nlog.Warningf("bridge: announce %s: %v", u, err)
		}
	}
	b.sendDone(cmd.ID)
}

func (b *Bridge) sendDone(id uint16) {
	resp := &wire.SearchResponse{Type: wire.RespDone, ID: id}
	if err := b.resp.Transmit(resp.MarshalNew(), nil); err != nil {
		nlog.Warningf("bridge: send DONE for request %d: %v", id, err)
	}
}

// handleFloodRequest answers a REQUEST by looking the (already-normalized)
// keyword up in the local index; a miss means no response, not an error
// (§4.2/§4.3 "a node with no local match still floods the request onward
// but sends no response of its own").
func (b *Bridge) handleFloodRequest(body []byte) ([]byte, bool) {
	keyword := normalize.Keyword(string(body))
	values, err := b.index.Get(keyword)
	if err != nil {
		nlog.Warningf("bridge: index lookup %q: %v", keyword, err)
		return nil, false
	}
	if len(values) == 0 {
		return nil, false
	}
	return store.Serialize(values, b.maxResponseBytes), true
}

// handleFloodResponse maps flowID back to the request that started its
// flow and forwards the result to the client; an unknown flow id (already
// evicted from the ring, or corrupt) is still surfaced to the client, with
// request_id 0, per §4.3 ("If absent, surface with request_id = 0").
func (b *Bridge) handleFloodResponse(flowID uint64, body []byte) {
	requestID := uint16(0)
	entry, found := b.flowMap.Find(func(e flowMapEntry) bool { return e.flowID == flowID })
	if !found {
		nlog.Warningf("bridge: response for unmapped flow %x; surfacing with request_id 0", flowID)
	} else {
		requestID = entry.requestID
	}
	resp := &wire.SearchResponse{Type: wire.RespResult, ID: requestID, Body: body}
	if err := b.resp.Transmit(resp.MarshalNew(), nil); err != nil {
		nlog.Warningf("bridge: send result for request %d: %v", requestID, err)
	}
}

// Flush resets the flow-id mapping table, used on client disconnect
// (§4.3 "client disconnect handling"); the framing layer's own reassembly
// reset is a separate call the caller (cmd/ksearchd) makes alongside this.
func (b *Bridge) Flush() {
	b.flowMap.Reset()
}
