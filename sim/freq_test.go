package sim

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Freq", func() {
	ginkgo.It("should get period", func() {
		f := 10 * Hz
		Expect(f.Period()).To(BeNumerically("~", 0.1, 1e-12))
	})

	ginkgo.It("should panic on zero frequency", func() {
		f := 0 * Hz
		Expect(func() { f.Period() }).To(Panic())
	})

	ginkgo.It("should convert time to cycles", func() {
		f := 10 * Hz
		Expect(f.Cycle(1.5)).To(Equal(uint64(15)))
	})

	ginkgo.It("should get this tick", func() {
		f := 1 * KHz
		Expect(f.ThisTick(102.000000001)).To(
			BeNumerically("~", 102.001, 1e-9))
	})

	ginkgo.It("should get the next tick", func() {
		f := 1 * KHz
		Expect(f.NextTick(102.0)).To(
			BeNumerically("~", 102.001, 1e-9))
	})

	ginkgo.It("should get time after n cycles", func() {
		f := 1 * KHz
		Expect(f.NCyclesLater(13, 102.0000000001)).To(
			BeNumerically("~", 102.013, 1e-9))
	})
})
