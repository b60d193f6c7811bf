// Package crawl implements the URL-Processor (§4.6): turns a monitored DHT
// announcement into local keyword-index entries and further DHT
// announcements for discovered outbound links. Grounded on
// original_source/src/search/service/url-processor/url-processor.c.
package crawl

import (
	"context"

	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/normalize"
)

// Crawler is the external collaborator (§1 "Out of scope"): given a URL,
// return the keywords found on the page and the outbound links discovered
// there. Crawler failures are treated as an empty result by Processor, per
// §4.6 "Robustness" / §7 "Crawler failure".
type Crawler interface {
	Crawl(ctx context.Context, url string) (keywords []string, outlinks []string, err error)
}

// Indexer is the subset of store.Storage the processor needs, kept as an
// interface so tests can substitute a fake without pulling in buntdb.
type Indexer interface {
	Put(keyword, value string) error
}

// Announcer is the subset of dht.Adapter the processor needs to
// re-announce outbound links with a decremented hop budget.
type Announcer interface {
	Announce(hops int, url string) error
}

// NullCrawler is the minimal stub crawler of §3.6: it extracts nothing
// from any URL. A real crawler is an external collaborator per spec.md
// §1; cmd/ksearchd wires this in until one is supplied.
type NullCrawler struct{}

func (NullCrawler) Crawl(context.Context, string) ([]string, []string, error) { return nil, nil, nil }

// Processor wires a Crawler to Storage and the DHT-Adapter.
type Processor struct {
	crawler   Crawler
	index     Indexer
	announcer Announcer
}

func New(c Crawler, idx Indexer, ann Announcer) *Processor {
	return &Processor{crawler: c, index: idx, announcer: ann}
}

// HandleAnnouncement is the DHT monitor callback target (§4.6): parse
// already done by dht.Adapter, so this only crawls, indexes, and
// re-announces.
func (p *Processor) HandleAnnouncement(ctx context.Context, hops int, url string) {
	keywords, outlinks, err := p.crawler.Crawl(ctx, url)
	if err != nil {
		nlog.Warningf("crawl: %s: %v (treated as empty result)", url, err)
		return
	}

	for _, kw := range keywords {
		norm := normalize.Keyword(kw)
		if norm == "" {
			continue
		}
		if err := p.index.Put(norm, url); err != nil {
			nlog.Warningf("crawl: index put %q -> %s: %v", norm, url, err)
		}
	}

	if hops <= 0 {
		return
	}
	for _, link := range outlinks {
		if link == "" {
			continue
		}
		if err := p.announcer.Announce(hops-1, link); err != nil {
			nlog.Warningf("crawl: re-announce %s: %v", link, err)
		}
	}
}
