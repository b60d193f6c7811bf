package store_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/store"
)

func newStorage(t *testing.T) *store.Storage {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := newStorage(t)
	if err := s.Put("rust", "https://r.example"); err != nil {
		t.Fatal(err)
	}
	urls, err := s.Get("rust")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "https://r.example" {
		t.Fatalf("got %v", urls)
	}
}

func TestPutIdempotent(t *testing.T) {
	s := newStorage(t)
	s.Put("rust", "https://r.example")
	s.Put("rust", "https://r.example")
	urls, _ := s.Get("rust")
	if len(urls) != 1 {
		t.Fatalf("expected single entry after duplicate put, got %v", urls)
	}
}

func TestGetMissingKeyEmpty(t *testing.T) {
	s := newStorage(t)
	urls, err := s.Get("nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 0 {
		t.Fatalf("expected empty, got %v", urls)
	}
}

func TestSerializeStopsBeforeBudget(t *testing.T) {
	values := []string{"aa", "bb", "cc"} // each costs 3 bytes (2 + terminator)
	got := store.Serialize(values, 7) // room for 2 entries, not the third
	want := "aa\x00bb\x00"
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSerializeKeyword(t *testing.T) {
	s := newStorage(t)
	s.Put("go", "https://go.example/1")
	s.Put("go", "https://go.example/2")
	buf, err := s.SerializeKeyword("go", 1024)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://go.example/1\x00https://go.example/2\x00"
	if string(buf) != want {
		t.Fatalf("got %q want %q", buf, want)
	}
}
