package overlay_test

import (
	"net"
	"testing"
	"time"

	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/overlay"
)

func TestMain(m *testing.M) {
	hk.TestInit()
	go hk.DefaultHK.Run()
	hk.WaitStarted()
	m.Run()
}

func TestConnTransportRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ct := overlay.NewConnTransport(client, 4096, nil)
	st := overlay.NewConnTransport(server, 4096, nil)

	received := make(chan []byte, 1)
	st.SetInboundHandler(func(_ *overlay.PeerID, unit []byte) {
		received <- append([]byte(nil), unit...)
	})

	payload := []byte("hello over the wire")
	ct.NotifyTransmitReady(len(payload), nil, func(_ any, available int, out []byte) int {
		return copy(out, payload)
	}, time.Second)

	select {
	case got := <-received:
		if string(got) != string(payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbound delivery")
	}
}

func TestConnTransportIteratePeersYieldsNoneThenTerminates(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	ct := overlay.NewConnTransport(client, 4096, nil)

	calls := 0
	ct.IteratePeers(func(peer *overlay.PeerID) {
		calls++
		if peer != nil {
			t.Fatalf("expected only the terminating nil call, got %v", *peer)
		}
	})
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestConnTransportRejectsOversizedInboundUnit(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ct := overlay.NewConnTransport(client, 8, nil)
	st := overlay.NewConnTransport(server, 8, nil)

	gotAny := make(chan struct{}, 1)
	st.SetInboundHandler(func(*overlay.PeerID, []byte) { gotAny <- struct{}{} })

	big := make([]byte, 64)
	ct.NotifyTransmitReady(len(big), nil, func(_ any, available int, out []byte) int {
		return copy(out, big)
	}, time.Second)

	select {
	case <-gotAny:
		t.Fatal("oversized unit should never reach the inbound handler")
	case <-time.After(100 * time.Millisecond):
	}
}
