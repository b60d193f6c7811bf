package dht_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/dht"
	"github.com/ksearch-project/ksearch/overlay"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := dht.Encode(2, "https://example.com/a")
	hops, url, err := dht.Decode(v)
	if err != nil {
		t.Fatal(err)
	}
	if hops != 2 || url != "https://example.com/a" {
		t.Fatalf("got hops=%d url=%q", hops, url)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{"", "garbage", "search:url:", "search:url:notanint:u", "search:url:1:"}
	for _, c := range cases {
		if _, _, err := dht.Decode(c); err == nil {
			t.Fatalf("expected error decoding %q", c)
		}
	}
}

func TestAnnounceAndMonitor(t *testing.T) {
	mem := overlay.NewMemDHT()
	a := dht.New(mem)

	var gotHops int
	var gotURL string
	a.MonitorAnnouncements(func(hops int, url string) {
		gotHops, gotURL = hops, url
	})

	if err := a.Announce(2, "https://example.com/x"); err != nil {
		t.Fatal(err)
	}
	if gotHops != 2 || gotURL != "https://example.com/x" {
		t.Fatalf("got hops=%d url=%q", gotHops, gotURL)
	}
}

func TestMonitorIgnoresOtherValues(t *testing.T) {
	mem := overlay.NewMemDHT()
	a := dht.New(mem)
	called := false
	a.MonitorAnnouncements(func(int, string) { called = true })

	_ = mem.Put(1, overlay.PutOptions{BlockType: overlay.BlockTypeTest}, []byte("not-a-search-url"))
	if called {
		t.Fatal("expected non-matching put to be ignored")
	}
}
