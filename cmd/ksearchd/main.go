// Package main is the ksearch service daemon: it wires overlay, flooding,
// client-bridge, storage, the DHT-adapter, and the URL-processor into one
// running node, per §5's lifecycle ("Startup"/"Shutdown").
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ksearch-project/ksearch/bridge"
	"github.com/ksearch-project/ksearch/cmn/config"
	"github.com/ksearch-project/ksearch/cmn/cos"
	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/crawl"
	"github.com/ksearch-project/ksearch/dht"
	"github.com/ksearch-project/ksearch/flood"
	"github.com/ksearch-project/ksearch/framing"
	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/store"
)

var (
	build      string
	configPath string
	showVer    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a ksearch configuration file (YAML/TOML/JSON)")
	flag.BoolVar(&showVer, "version", false, "print version and exit")
}

func main() {
	flag.Parse()
	if showVer {
		fmt.Printf("ksearchd version %s\n", build)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cos.Exitf("failed to load configuration: %v", err)
	}
	config.GCO.Put(cfg)
	nlog.SetQuiet(cfg.Log.Level == "warning" || cfg.Log.Level == "error")

	go hk.DefaultHK.Run()
	hk.WaitStarted()

	d, err := newDaemon(cfg)
	if err != nil {
		cos.Exitf("failed to initialize daemon: %v", err)
	}

	listener, err := d.listen()
	if err != nil {
		cos.Exitf("failed to listen on %s: %v", cfg.Transport.ListenAddr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.acceptLoop(listener) })
	g.Go(func() error {
		<-gctx.Done()
		return d.Shutdown(listener)
	})

	nlog.Infof("ksearchd %s started, peer %s, listening on %s", build, d.peerID, cfg.Transport.ListenAddr)
	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		nlog.Errorf("shutdown: %v", err)
	}
}

// daemon holds every component wired by §0's module layout plus the
// overlay.Transport the Flooding component floods across. A real
// deployment would back the peer mesh with a genuine network transport
// (§1 "Out of scope: the underlying peer-to-peer transport primitive");
// this daemon uses overlay.MemTransport, the stand-in the package doc
// calls out for "single-process demos". The client-facing side of the
// Framed client-service transport (§4.1), by contrast, is in scope, and
// runs over a real overlay.ConnTransport accepted from a Unix socket —
// one connection at a time, per §4.3's "One client at a time" invariant.
type daemon struct {
	cfg    *config.Config
	peerID overlay.PeerID

	storage *store.Storage
	peerNet *overlay.MemTransport
	dhtNet  *overlay.MemDHT

	flooder *flood.Flooder
	bridge  *bridge.Bridge
	adapter *dht.Adapter
	crawler *crawl.Processor

	shutdownOnce singleflight.Group
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	storage, err := store.New()
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	d := &daemon{
		cfg:     cfg,
		peerID:  overlay.PeerID(cos.GenPeerID()),
		storage: storage,
		peerNet: overlay.NewMemTransport(cfg.Transport.MaxMTU),
		dhtNet:  overlay.NewMemDHT(),
	}

	selfPeer := d.peerNet.NewPeer(d.peerID)
	d.flooder = flood.New(selfPeer, hk.DefaultHK, cfg.Overlay.RoutingTableSize)

	d.adapter = dht.New(d.dhtNet)
	d.crawler = crawl.New(crawl.NullCrawler{}, d.storage, d.adapter)
	d.adapter.MonitorAnnouncements(func(hops int, url string) {
		d.crawler.HandleAnnouncement(context.Background(), hops, url)
	})

	// The bridge is built once, its Flooder/Storage/DHT wiring fixed for
	// the daemon's lifetime; only the client-facing Responder changes as
	// connections come and go (see acceptLoop/SetResponder).
	maxResponseBytes := cfg.Transport.MaxMTU / 2
	d.bridge = bridge.New(d.flooder, d.storage, d.adapter, noopResponder{}, cfg.Overlay.FlowMapSize, cfg.Crawl.DefaultHops, maxResponseBytes)

	return d, nil
}

func (d *daemon) listen() (net.Listener, error) {
	_ = os.Remove(d.cfg.Transport.ListenAddr)
	return net.Listen("unix", d.cfg.Transport.ListenAddr)
}

// acceptLoop serves one client connection fully before accepting the next,
// matching §4.3's "One client at a time": there is exactly one live
// framer/bridge.Responder pairing active at any moment.
func (d *daemon) acceptLoop(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		d.serveClient(conn)
	}
}

func (d *daemon) serveClient(conn net.Conn) {
	nlog.Infof("ksearchd: client connected")
	ct := overlay.NewConnTransport(conn, d.cfg.Transport.MaxMTU, hk.DefaultHK)
	framer := framing.New(ct, hk.DefaultHK)
	d.bridge.SetResponder(framer)
	framer.AddListener(d.bridge.HandleClientMessage)

	<-ct.Done() // blocks until the peer closes the connection (§4.3 disconnect)
	_ = conn.Close()

	nlog.Infof("ksearchd: client disconnected")
	framer.ResetAll()
	d.bridge.Flush()
	d.bridge.SetResponder(noopResponder{})
}

type noopResponder struct{}

func (noopResponder) Transmit([]byte, *overlay.PeerID) error { return nil }

// Shutdown disconnects every external subsystem in the order §5 fixes —
// DHT monitor, client transport, flooding transport, storage — then
// returns. singleflight collapses a signal-triggered shutdown racing a
// second SIGTERM into one execution.
func (d *daemon) Shutdown(listener net.Listener) error {
	_, err, _ := d.shutdownOnce.Do("shutdown", func() (any, error) {
		nlog.Infof("ksearchd shutting down")

		// overlay.DHT (§6) has no unsubscribe of its own — it is the
		// out-of-scope external collaborator — so there is nothing to
		// call here beyond logging the step order §5 fixes.
		nlog.Infof("ksearchd: dht monitor disconnected")

		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return nil, fmt.Errorf("listener close: %w", err)
		}
		d.bridge.Flush()

		d.peerNet.RemovePeer(d.peerID)

		if err := d.storage.Close(); err != nil {
			return nil, fmt.Errorf("storage close: %w", err)
		}
		return nil, nil
	})
	return err
}
