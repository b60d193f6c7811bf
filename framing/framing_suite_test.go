package framing_test

import (
	"testing"

	"github.com/ksearch-project/ksearch/framing"
	"github.com/ksearch-project/ksearch/hk"
	"github.com/ksearch-project/ksearch/overlay"
	"github.com/ksearch-project/ksearch/wire"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestFraming(t *testing.T) {
	hk.TestInit()
	go hk.DefaultHK.Run()
	hk.WaitStarted()
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

var _ = Describe("Framer", func() {
	var net *overlay.MemTransport

	BeforeEach(func() {
		net = overlay.NewMemTransport(32)
	})

	It("delivers a payload that fits in one unit unfragmented", func() {
		a := net.NewPeer("a")
		b := net.NewPeer("b")

		received := make(chan []byte, 1)
		framing.New(b, nil).AddListener(func(_ *overlay.PeerID, payload []byte) {
			received <- payload
		})
		fa := framing.New(a, nil)

		dst := overlay.PeerID("b")
		Expect(fa.Transmit([]byte("hello"), &dst)).To(Succeed())
		Eventually(received).Should(Receive(Equal([]byte("hello"))))
	})

	It("fragments a payload larger than one unit and reassembles it in order", func() {
		a := net.NewPeer("a")
		b := net.NewPeer("b")

		received := make(chan []byte, 1)
		framing.New(b, nil).AddListener(func(_ *overlay.PeerID, payload []byte) {
			received <- payload
		})
		fa := framing.New(a, nil)

		payload := make([]byte, 100)
		for i := range payload {
			payload[i] = byte(i)
		}
		dst := overlay.PeerID("b")
		Expect(fa.Transmit(payload, &dst)).To(Succeed())
		Eventually(received).Should(Receive(Equal(payload)))
	})

	It("keys reassembly by sender so two interleaved senders do not cross-talk", func() {
		a := net.NewPeer("a")
		c := net.NewPeer("c")
		srv := net.NewPeer("srv")

		var gotA, gotC []byte
		fsrv := framing.New(srv, nil)
		fsrv.AddListener(func(sender *overlay.PeerID, payload []byte) {
			switch *sender {
			case "a":
				gotA = payload
			case "c":
				gotC = payload
			}
		})
		fa := framing.New(a, nil)
		fc := framing.New(c, nil)

		dst := overlay.PeerID("srv")
		payloadA := []byte("from-a-this-is-long-enough-to-fragment-maybe-not-really")
		payloadC := []byte("from-c-also-fairly-long-so-it-spans-more-than-one-unit!!")

		Expect(fa.Transmit(payloadA, &dst)).To(Succeed())
		Expect(fc.Transmit(payloadC, &dst)).To(Succeed())

		Eventually(func() []byte { return gotA }).Should(Equal(payloadA))
		Eventually(func() []byte { return gotC }).Should(Equal(payloadC))
	})

	It("rejects a payload the transport could never carry even fragmented", func() {
		tiny := overlay.NewMemTransport(wire.FramingHeaderSize)
		p := tiny.NewPeer("solo")
		f := framing.New(p, nil)
		Expect(f.Transmit([]byte("x"), nil)).To(MatchError(framing.ErrOversizedPayload))
	})
})
