package control

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sortlab/sortline/sim"
)

var _ = Describe("StationFSM", func() {
	var (
		unit *Unit
		st   *StationFSM
		now  sim.VTimeInSec
	)

	scan := func(in StationInputs) StationOutputs {
		now += 0.1
		return st.Scan(in, now)
	}

	BeforeEach(func() {
		unit = NewUnit("ST01.unit", 0.3)
		st = NewStationFSM("ST01", unit, 2.0)
		now = 0
	})

	It("should stay idle without a request", func() {
		out := scan(StationInputs{CarrierPresent: true, CarrierID: 3})

		Expect(out.Busy).To(BeFalse())
		Expect(st.State()).To(Equal(StationIdle))
	})

	It("should stay idle without a carrier", func() {
		st.Arm()

		out := scan(StationInputs{})

		Expect(out.Busy).To(BeFalse())
		Expect(st.Armed()).To(BeTrue())
	})

	It("should run a full load cycle", func() {
		st.Arm()
		in := StationInputs{CarrierPresent: true, CarrierID: 3}

		out := scan(in)
		Expect(out.Busy).To(BeTrue())
		Expect(out.CarrierID).To(Equal(3))
		Expect(st.State()).To(Equal(StationLoading))

		var pulses int
		for i := 0; i < 5; i++ {
			out = scan(in)
			if out.DonePulse {
				pulses++
			}
		}

		Expect(pulses).To(Equal(1))
		Expect(st.Armed()).To(BeFalse())
		Expect(st.State()).To(Equal(StationDone))

		// Back to idle once the carrier moved on.
		scan(StationInputs{})
		Expect(st.State()).To(Equal(StationIdle))
	})

	It("should latch an external request input", func() {
		scan(StationInputs{RequestLoad: true})
		Expect(st.Armed()).To(BeTrue())

		out := scan(StationInputs{CarrierPresent: true, CarrierID: 1})
		Expect(out.Busy).To(BeTrue())
	})

	It("should abandon when the guard window expires", func() {
		unit = NewUnit("ST01.unit", 10)
		st = NewStationFSM("ST01", unit, 0.2)
		st.Arm()
		in := StationInputs{CarrierPresent: true, CarrierID: 3}

		scan(in)

		var abandoned, pulsed bool
		for i := 0; i < 5; i++ {
			out := scan(in)
			abandoned = abandoned || out.Abandoned
			pulsed = pulsed || out.DonePulse
		}

		Expect(abandoned).To(BeTrue())
		Expect(pulsed).To(BeFalse())
		Expect(st.State()).To(Equal(StationIdle))
	})

	It("should drop everything on reset", func() {
		st.Arm()
		scan(StationInputs{CarrierPresent: true, CarrierID: 3})

		out := scan(StationInputs{Reset: true})

		Expect(out.Busy).To(BeFalse())
		Expect(st.Armed()).To(BeFalse())
		Expect(st.State()).To(Equal(StationIdle))
	})
})
