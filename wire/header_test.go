package wire_test

import (
	"bytes"
	"testing"

	"github.com/ksearch-project/ksearch/wire"
)

func TestSearchCommandRoundTrip(t *testing.T) {
	cmd := &wire.SearchCommand{Action: wire.ActionSearch, ID: 7, Body: wire.EncodeStrings([]string{"rust"})}
	buf := cmd.MarshalNew()

	got, err := wire.UnmarshalSearchCommand(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != wire.ActionSearch || got.ID != 7 {
		t.Fatalf("got %+v", got)
	}
	if !bytes.Equal(got.Body, cmd.Body) {
		t.Fatalf("body mismatch: %q vs %q", got.Body, cmd.Body)
	}
}

func TestSearchCommandSizeMismatch(t *testing.T) {
	cmd := &wire.SearchCommand{Action: wire.ActionAdd, ID: 1, Body: wire.EncodeStrings([]string{"u1"})}
	buf := cmd.MarshalNew()
	buf = append(buf, 0xff) // corrupt: trailing garbage byte not reflected in Size

	if _, err := wire.UnmarshalSearchCommand(buf); err == nil {
		t.Fatal("expected size mismatch error")
	} else if _, ok := err.(*wire.ErrSizeMismatch); !ok {
		t.Fatalf("expected *ErrSizeMismatch, got %T: %v", err, err)
	}
}

func TestSearchResponseRoundTrip(t *testing.T) {
	resp := &wire.SearchResponse{Type: wire.RespResult, ID: 42, Body: wire.EncodeStrings([]string{"https://a", "https://b"})}
	buf := resp.MarshalNew()

	got, err := wire.UnmarshalSearchResponse(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	urls := wire.DecodeStrings(got.Body)
	if len(urls) != 2 || urls[0] != "https://a" || urls[1] != "https://b" {
		t.Fatalf("got %v", urls)
	}
}

func TestFloodMessageRoundTripBigEndianFlowID(t *testing.T) {
	msg := &wire.FloodMessage{FlowID: 0x0102030405060708, TTL: 16, Type: wire.FloodRequest, Body: wire.EncodeStrings([]string{"kw"})}
	buf := msg.MarshalNew()

	// flow_id is explicitly big-endian on the wire (§3/§6).
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if !bytes.Equal(buf[:8], want) {
		t.Fatalf("flow_id not big-endian on wire: % x", buf[:8])
	}

	got, err := wire.UnmarshalFloodMessage(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.FlowID != msg.FlowID || got.TTL != 16 || got.Type != wire.FloodRequest {
		t.Fatalf("got %+v", got)
	}
}

func TestEncodeDecodeStringsEmpty(t *testing.T) {
	if got := wire.DecodeStrings(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := wire.DecodeStrings(wire.EncodeStrings(nil)); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestShortHeaderRejected(t *testing.T) {
	if _, err := wire.UnmarshalSearchCommand([]byte{1, 2}); err == nil {
		t.Fatal("expected error on short command header")
	}
	if _, err := wire.UnmarshalFloodMessage([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error on short flood header")
	}
}
