package crawl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ksearch-project/ksearch/crawl"
)

type fakeCrawler struct {
	keywords, outlinks []string
	err                error
}

func (f *fakeCrawler) Crawl(context.Context, string) ([]string, []string, error) {
	return f.keywords, f.outlinks, f.err
}

type fakeIndex struct{ puts map[string][]string }

func (f *fakeIndex) Put(keyword, value string) error {
	if f.puts == nil {
		f.puts = make(map[string][]string)
	}
	f.puts[keyword] = append(f.puts[keyword], value)
	return nil
}

type fakeAnnouncer struct{ announced map[int][]string }

func (f *fakeAnnouncer) Announce(hops int, url string) error {
	if f.announced == nil {
		f.announced = make(map[int][]string)
	}
	f.announced[hops] = append(f.announced[hops], url)
	return nil
}

func TestHandleAnnouncementIndexesAndReannounces(t *testing.T) {
	c := &fakeCrawler{keywords: []string{"Rust", "WASM"}, outlinks: []string{"https://out1"}}
	idx := &fakeIndex{}
	ann := &fakeAnnouncer{}
	p := crawl.New(c, idx, ann)

	p.HandleAnnouncement(context.Background(), 2, "https://r.example")

	if idx.puts["rust"][0] != "https://r.example" || idx.puts["wasm"][0] != "https://r.example" {
		t.Fatalf("got %v", idx.puts)
	}
	if ann.announced[1][0] != "https://out1" {
		t.Fatalf("got %v", ann.announced)
	}
}

func TestHandleAnnouncementZeroHopsNoReannounce(t *testing.T) {
	c := &fakeCrawler{keywords: []string{"x"}, outlinks: []string{"https://out1"}}
	idx := &fakeIndex{}
	ann := &fakeAnnouncer{}
	p := crawl.New(c, idx, ann)

	p.HandleAnnouncement(context.Background(), 0, "https://r.example")

	if len(ann.announced) != 0 {
		t.Fatalf("expected no re-announce at hops=0, got %v", ann.announced)
	}
}

func TestHandleAnnouncementCrawlerFailureNoOp(t *testing.T) {
	c := &fakeCrawler{err: errors.New("boom")}
	idx := &fakeIndex{}
	ann := &fakeAnnouncer{}
	p := crawl.New(c, idx, ann)

	p.HandleAnnouncement(context.Background(), 2, "https://r.example")

	if len(idx.puts) != 0 || len(ann.announced) != 0 {
		t.Fatal("expected no side effects on crawler failure")
	}
}
