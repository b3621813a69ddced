package control

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sortlab/sortline/sim"
)

var _ = Describe("Unit", func() {
	var u *Unit

	BeforeEach(func() {
		u = NewUnit("U", 0.3)
	})

	It("should start ready", func() {
		Expect(u.Ready()).To(BeTrue())
		Expect(u.Busy()).To(BeFalse())
		Expect(u.Complete()).To(BeFalse())
	})

	It("should run one command cycle", func() {
		u.Step(true, 0.1)
		Expect(u.Busy()).To(BeTrue())
		Expect(u.Ready()).To(BeFalse())

		u.Step(true, 0.2)
		u.Step(true, 0.3)
		Expect(u.Complete()).To(BeFalse())

		u.Step(true, 0.4)
		Expect(u.Busy()).To(BeFalse())
		Expect(u.Complete()).To(BeTrue())
	})

	It("should latch completion for exactly one idle step", func() {
		u.Step(true, 0.1)
		u.Step(true, 0.2)
		u.Step(true, 0.3)
		u.Step(true, 0.4)
		Expect(u.Complete()).To(BeTrue())

		u.Step(false, 0.5)
		Expect(u.Complete()).To(BeTrue())

		u.Step(false, 0.6)
		Expect(u.Complete()).To(BeFalse())
		Expect(u.Ready()).To(BeTrue())
	})

	It("should ignore commands while not ready", func() {
		u.Step(true, 0.1)

		// Still mid-transfer; a second command must not restart it.
		u.Step(true, 0.2)
		u.Step(true, 0.3)
		u.Step(true, 0.4)

		Expect(u.Complete()).To(BeTrue())
	})

	It("should be commandable again after a full cycle", func() {
		times := []sim.VTimeInSec{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
		for _, now := range times {
			u.Step(now < 0.45, now)
		}
		Expect(u.Ready()).To(BeTrue())

		u.Step(true, 0.7)
		Expect(u.Busy()).To(BeTrue())
	})
})
