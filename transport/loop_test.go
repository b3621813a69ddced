package transport

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CarrierLoop", func() {
	var (
		loop *CarrierLoop
		r    *rand.Rand
	)

	BeforeEach(func() {
		r = rand.New(rand.NewSource(1))
		loop = NewCarrierLoop("LOOP", 100, 2)
	})

	It("should panic on a non-positive length", func() {
		Expect(func() { NewCarrierLoop("X", 0, 1) }).To(Panic())
	})

	It("should distribute carriers evenly", func() {
		loop.AddCarriers(4, 0, r)

		carriers := loop.Carriers()
		Expect(carriers).To(HaveLen(4))
		Expect(carriers[0].Pos).To(Equal(0.0))
		Expect(carriers[1].Pos).To(Equal(25.0))
		Expect(carriers[3].Pos).To(Equal(75.0))
	})

	It("should wrap carriers around the loop", func() {
		loop.AddCarriers(1, 0, r)

		loop.Step(1, 101)

		Expect(loop.Carriers()[0].Pos).To(BeNumerically("~", 1, 1e-9))
	})

	It("should answer presence with the nearest carrier", func() {
		loop.AddCarriers(4, 0, r)

		present, c := loop.PresenceAt(24)
		Expect(present).To(BeTrue())
		Expect(c.ID).To(Equal(2))

		present, _ = loop.PresenceAt(10)
		Expect(present).To(BeFalse())
	})

	It("should see presence across the wrap point", func() {
		loop.AddCarriers(4, 0, r)

		present, c := loop.PresenceAt(99)
		Expect(present).To(BeTrue())
		Expect(c.ID).To(Equal(1))
	})

	It("should bind the nearest free carrier in range", func() {
		loop.AddCarriers(4, 0, r)

		c := loop.BindNearestFree(26, 7)
		Expect(c).ToNot(BeNil())
		Expect(c.ID).To(Equal(2))
		Expect(c.LoadID).To(Equal(uint64(7)))
		Expect(loop.NumLoaded()).To(Equal(1))

		// Carrier 2 is taken now; nothing else is in range.
		Expect(loop.BindNearestFree(26, 8)).To(BeNil())
	})

	It("should unbind and return the load", func() {
		loop.AddCarriers(4, 0, r)
		loop.BindNearestFree(26, 7)

		Expect(loop.Unbind(2)).To(Equal(uint64(7)))
		Expect(loop.Unbind(2)).To(Equal(uint64(0)))
		Expect(loop.Unbind(99)).To(Equal(uint64(0)))
		Expect(loop.NumLoaded()).To(Equal(0))
	})

	It("should jitter carrier speeds within the configured band", func() {
		loop.AddCarriers(10, 0.1, r)

		loop.Step(0.5, 10)

		for _, c := range loop.Carriers() {
			moved := c.Pos - float64(c.ID-1)*10
			Expect(moved).To(BeNumerically(">=", 4.5-1e-9))
			Expect(moved).To(BeNumerically("<=", 5.5+1e-9))
		}
	})
})
