// Package overlay: ConnTransport backs the client-service channel (§4.1
// "Framed client-service transport ... sitting on top of a lower transport")
// with a real byte-stream connection, delimiting unit messages with a
// length-prefixed header the way teacher's transport package delimits PDUs
// on its wire (transport/pdu.go). This is the one piece of this module that
// touches an actual OS-level connection; the peer-to-peer mesh transport
// itself remains the out-of-scope external collaborator of §1/§6.
//
// Its own read loop necessarily runs on a dedicated goroutine (a socket has
// no cooperative-scheduler equivalent of "call me back"), but every inbound
// unit is handed to the registered listener through the housekeeper's
// single serving goroutine (hk.OnceAt, zero delay) rather than called
// directly from that read loop — preserving §5's "single-threaded
// cooperative scheduler" contract for everything downstream of Transport,
// the same way hk.Housekeeper.Run is already the one goroutine allowed to
// call into scheduled component logic.
package overlay

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ksearch-project/ksearch/cmn/nlog"
	"github.com/ksearch-project/ksearch/hk"
)

const lengthPrefixSize = 4

// ConnTransport adapts any io.ReadWriteCloser (a net.Conn in practice) to
// the Transport interface for a single point-to-point channel: one local
// end, one remote end, no peer enumeration.
type ConnTransport struct {
	conn    io.ReadWriteCloser
	maxSize int
	hk      *hk.Housekeeper
	done    chan struct{}

	writeMu sync.Mutex

	mu      sync.Mutex
	inbound InboundFunc
	started bool
}

// NewConnTransport wraps conn; housekeeper defaults to hk.DefaultHK when
// nil, the same convention framing.New and flood.New follow.
func NewConnTransport(conn io.ReadWriteCloser, maxSize int, housekeeper *hk.Housekeeper) *ConnTransport {
	if housekeeper == nil {
		housekeeper = hk.DefaultHK
	}
	return &ConnTransport{conn: conn, maxSize: maxSize, hk: housekeeper, done: make(chan struct{})}
}

// Done is closed once the read loop observes EOF, a read error, or an
// oversized unit; callers use it to learn the remote end has gone away
// without racing ConnTransport's own reads of conn.
func (t *ConnTransport) Done() <-chan struct{} { return t.done }

func (t *ConnTransport) MaxMessageSize() int { return t.maxSize }

// SetInboundHandler registers fn and starts the background read loop on
// first call; later calls only replace the handler.
func (t *ConnTransport) SetInboundHandler(fn InboundFunc) {
	t.mu.Lock()
	t.inbound = fn
	first := !t.started
	t.started = true
	t.mu.Unlock()
	if first {
		go t.readLoop()
	}
}

func (t *ConnTransport) readLoop() {
	defer close(t.done)
	hdr := make([]byte, lengthPrefixSize)
	for {
		if _, err := io.ReadFull(t.conn, hdr); err != nil {
			if err != io.EOF {
				nlog.Warningf("overlay: conn transport read header: %v", err)
			}
			return
		}
		n := binary.BigEndian.Uint32(hdr)
		if int(n) > t.maxSize {
			nlog.Warningf("overlay: conn transport inbound unit %d exceeds MaxMessageSize %d, closing", n, t.maxSize)
			_ = t.conn.Close()
			return
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(t.conn, buf); err != nil {
			nlog.Warningf("overlay: conn transport read body: %v", err)
			return
		}
		t.hk.OnceAt(0, func() {
			t.mu.Lock()
			fn := t.inbound
			t.mu.Unlock()
			if fn != nil {
				fn(nil, buf)
			}
		})
	}
}

// NotifyTransmitReady has the whole buffer available immediately: a
// point-to-point connection has no per-peer output queue of its own to
// wait on, unlike MemTransport's multi-peer fan-out (§6 "Transport
// abstraction" scopes the queueing discipline to the transport, not to
// this adapter).
func (t *ConnTransport) NotifyTransmitReady(size int, cls any, handler TransmitReadyFunc, _ time.Duration) {
	buf := make([]byte, size)
	n := handler(cls, size, buf)
	if n <= 0 {
		return
	}
	if err := t.writeFrame(buf[:n]); err != nil {
		nlog.Warningf("overlay: conn transport write: %v", err) // §4.2 "Transport send failure: silently drop"
	}
}

func (t *ConnTransport) writeFrame(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	var hdr [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := t.conn.Write(hdr[:]); err != nil {
		return err
	}
	_, err := t.conn.Write(payload)
	return err
}

// IteratePeers has nothing to enumerate: a point-to-point channel's only
// destination is the remote end, addressed implicitly.
func (t *ConnTransport) IteratePeers(handler func(peer *PeerID)) { handler(nil) }

func (t *ConnTransport) Connect(serviceName string, _ any) (Connection, error) {
	return &connHandle{id: serviceName}, nil
}

func (t *ConnTransport) Disconnect(Connection) {}

// Close shuts down the underlying connection; the read loop observes this
// as an error or EOF and returns.
func (t *ConnTransport) Close() error {
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("overlay: conn transport close: %w", err)
	}
	return nil
}

var _ Transport = (*ConnTransport)(nil)
