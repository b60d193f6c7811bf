// Package hk provides mechanism for registering cleanup
// functions which are invoked at specified intervals.
package hk_test

import (
	"testing"
	"time"

	"github.com/ksearch-project/ksearch/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestHousekeeper(t *testing.T) {
	hk.TestInit()
	go hk.DefaultHK.Run()
	hk.WaitStarted()
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

var _ = Describe("Housekeeper", func() {
	It("fires a one-shot task after its delay", func() {
		done := make(chan struct{}, 1)
		hk.DefaultHK.OnceAt(0, func() { done <- struct{}{} })
		Eventually(done).Should(Receive())
	})

	It("fires a repeating task more than once", func() {
		n := make(chan struct{}, 8)
		hk.DefaultHK.Reg("repeat-test", 10*time.Millisecond, func() { n <- struct{}{} })
		Eventually(n).Should(Receive())
		Eventually(n).Should(Receive())
		hk.DefaultHK.Unreg("repeat-test")
	})

	It("does not fire a canceled one-shot task", func() {
		done := make(chan struct{}, 1)
		name := hk.DefaultHK.OnceAt(time.Hour, func() { done <- struct{}{} })
		hk.DefaultHK.Unreg(name)
		Consistently(done).ShouldNot(Receive())
	})
})
