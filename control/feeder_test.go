package control

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sortlab/sortline/sim"
	"github.com/sortlab/sortline/transport"
)

var _ = Describe("FeederFSM", func() {
	var (
		unit *Unit
		f    *FeederFSM
		loop *transport.CarrierLoop
		now  sim.VTimeInSec
	)

	scan := func(job uint64) FeederOutputs {
		now += 0.1
		return f.Scan(job, loop, now)
	}

	BeforeEach(func() {
		unit = NewUnit("FEEDER.unit", 0.3)
		f = NewFeederFSM("FEEDER", unit, 0, 2.0)
		loop = transport.NewCarrierLoop("UNLOAD", 100, 2)
		loop.AddCarriers(4, 0, rand.New(rand.NewSource(1)))
		now = 0
	})

	It("should stay idle without a job", func() {
		out := scan(0)

		Expect(out.Busy).To(BeFalse())
		Expect(f.State()).To(Equal(FeederIdle))
	})

	It("should feed a job onto the carrier in range", func() {
		scan(7)
		Expect(f.State()).To(Equal(FeederTransfer))

		var fed FeederOutputs
		for i := 0; i < 5; i++ {
			out := scan(7)
			if out.FedJob != 0 {
				fed = out
			}
		}

		Expect(fed.FedJob).To(Equal(uint64(7)))
		Expect(fed.FedCarrier).To(Equal(1))
		Expect(loop.Carrier(1).LoadID).To(Equal(uint64(7)))
		Expect(f.State()).To(Equal(FeederIdle))
	})

	It("should not start while no carrier is in range", func() {
		loop.Step(1, 10) // move all carriers away from position 0

		scan(7)

		Expect(f.State()).To(Equal(FeederIdle))
	})

	It("should abandon when every carrier in range is taken", func() {
		loop.Carrier(1).LoadID = 99

		scan(7)
		Expect(f.State()).To(Equal(FeederTransfer))

		var abandoned, fedAny bool
		for i := 0; i < 5; i++ {
			out := scan(7)
			abandoned = abandoned || out.Abandoned
			fedAny = fedAny || out.FedJob != 0
		}

		Expect(abandoned).To(BeTrue())
		Expect(fedAny).To(BeFalse())
	})
})
