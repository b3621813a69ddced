package plant

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sortlab/sortline/fieldbus"
	"github.com/sortlab/sortline/sim"
	"github.com/sortlab/sortline/transport"
)

// testConfig shrinks the line so that scenarios complete in a few hundred
// ticks.
func testConfig() Config {
	cfg := DefaultConfig()

	cfg.StationPositions = []float64{5}
	cfg.SpawnRates = []float64{0}
	cfg.LoopLength = 40
	cfg.SwitchPos = 20
	cfg.LoopZone = 1.5
	cfg.IntakeFixtures = 8
	cfg.CarrierJitter = 0

	cfg.BeltRows = 2
	cfg.BeltCols = 2
	cfg.BeltLength = 5
	cfg.BeltGapFrac = 0.2

	cfg.DrainLineLength = 10
	cfg.HoldLineLength = 10
	cfg.UnloadLegLength = 5

	cfg.UnloadLoopLength = 40
	cfg.UnloadCarriers = 8
	cfg.UnloadZone = 2
	cfg.UnloadLoopSpeed = 4
	cfg.FeedPos = 5
	cfg.DepotPos = 25

	cfg.SpeedCollect = 2
	cfg.DrainWindow = 60

	cfg.LaneCount = 4
	cfg.LaneCapacity = 10
	cfg.LaneHold = 1

	cfg.FeedQueueCap = 64
	cfg.SortQueueCap = 64

	return cfg
}

func buildTestPlant(cfg Config) (*Plant, *sim.TickRunner) {
	p := MakeBuilder().WithConfig(cfg).Build()
	runner := sim.NewTickRunner(p.Context(), p, cfg.TickRate)

	return p, runner
}

func stepSeconds(runner *sim.TickRunner, cfg Config, seconds float64) {
	runner.StepN(int(seconds * float64(cfg.TickRate)))
}

var _ = Describe("Plant", func() {
	var (
		cfg    Config
		p      *Plant
		runner *sim.TickRunner
	)

	BeforeEach(func() {
		cfg = testConfig()
		p, runner = buildTestPlant(cfg)
	})

	It("should load an armed request onto the intake loop", func() {
		p.ArmStation(1)

		stepSeconds(runner, cfg, 3)

		s := p.Snapshot()
		Expect(s.Created).To(Equal(uint64(1)))
		Expect(s.InLoop).To(Equal(1))

		var loaded bool
		for _, ev := range p.TakeEvents() {
			if ev.Kind == EventLoaded {
				loaded = true
				Expect(ev.Station).To(Equal(1))
			}
		}
		Expect(loaded).To(BeTrue())
	})

	It("should divert items at the switch in serpentine round-robin",
		func() {
			for i := 0; i < 4; i++ {
				p.ArmStation(1)
			}

			stepSeconds(runner, cfg, 25)

			s := p.Snapshot()
			Expect(s.Created).To(Equal(uint64(4)))
			Expect(s.InBelts).To(Equal(4))
			Expect(s.InLoop).To(Equal(0))

			var belts []int
			for _, ev := range p.TakeEvents() {
				if ev.Kind == EventSwitched {
					belts = append(belts, ev.Belt)
				}
			}
			Expect(belts).To(Equal([]int{1, 2, 4, 3}))

			p.SetMode(Drain)
			stepSeconds(runner, cfg, 60)

			s = p.Snapshot()
			Expect(s.InLoop).To(Equal(0))
			Expect(s.InBelts).To(Equal(0))
			Expect(s.InDrain).To(Equal(0))
			Expect(s.Completed).To(Equal(uint64(4)))
		})

	It("should hold items at belt ends while collecting", func() {
		p.ArmStation(1)

		stepSeconds(runner, cfg, 25)

		items := p.grid.Belt(1).Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Pos).To(Equal(cfg.BeltLength))
	})

	It("should drain the line to empty within the window", func() {
		p.ArmStation(1)
		p.ArmStation(1)
		stepSeconds(runner, cfg, 25)
		Expect(p.Snapshot().InBelts).To(Equal(2))

		p.SetMode(Drain)

		belt, line := p.ModeController().DrainSpeeds()
		Expect(belt).To(BeNumerically(">=", cfg.SpeedDrainFloor))
		Expect(line).To(BeNumerically(">=", cfg.SpeedDrainLineFloor))

		stepSeconds(runner, cfg, 60)

		s := p.Snapshot()
		Expect(s.Completed).To(Equal(uint64(2)))
		Expect(s.InBelts).To(Equal(0))
		Expect(s.InDrain).To(Equal(0))
		Expect(s.InFeedQueue).To(Equal(0))
		Expect(s.OnUnloadLoop).To(Equal(0))
		Expect(s.InSortQueue).To(Equal(0))
		Expect(s.InLanes).To(Equal(0))
	})

	It("should scale the drain speed to the deadline window", func() {
		cfg.DrainWindow = 1
		p, runner = buildTestPlant(cfg)

		it := &transport.Item{ID: p.ctx.NextItemID()}
		p.grid.Place(it, 1, 0, 0)

		p.SetMode(Drain)

		// The item is migrated onto the head of the drain line before the
		// speed is computed, so the worst path is the drain line plus the
		// unload leg.
		worst := cfg.DrainLineLength + cfg.UnloadLegLength
		want := cfg.DrainSafety * worst / 1

		belt, line := p.ModeController().DrainSpeeds()
		Expect(belt).To(BeNumerically("~", want, 1e-9))
		Expect(line).To(BeNumerically("~", want, 1e-9))
	})

	It("should reorder the drained set LIFO with artificial spacing",
		func() {
			early := &transport.Item{ID: p.ctx.NextItemID()}
			late := &transport.Item{ID: p.ctx.NextItemID()}
			p.grid.Place(early, 1, 3, 10)
			p.grid.Place(late, 2, 1, 20)

			p.SetMode(Drain)

			items := p.drainLine.Items()
			Expect(items).To(HaveLen(2))
			Expect(items[0]).To(BeIdenticalTo(late))
			Expect(items[0].Pos).To(Equal(0.0))
			Expect(items[1]).To(BeIdenticalTo(early))
			Expect(items[1].Pos).To(BeNumerically("~",
				cfg.DrainSpacing, 1e-12))
		})

	It("should freeze drained work on belt slots when hanging", func() {
		p.ArmStation(1)
		p.ArmStation(1)
		stepSeconds(runner, cfg, 25)
		p.SetMode(Drain)
		stepSeconds(runner, cfg, 1)
		Expect(p.Snapshot().InDrain).To(BeNumerically(">", 0))

		p.SetMode(Hang)

		Expect(p.drainLine.NumItems()).To(Equal(0))

		type slot struct {
			where string
			pos   float64
		}
		slots := map[uint64]slot{}
		for _, it := range p.allItemsInFlight() {
			Expect(it.Held).To(BeTrue())
			slots[it.ID] = slot{it.Where, it.Pos}
		}

		stepSeconds(runner, cfg, 5)

		for _, it := range p.allItemsInFlight() {
			Expect(slots[it.ID].where).To(Equal(it.Where))
			Expect(slots[it.ID].pos).To(Equal(it.Pos))
		}
	})

	It("should pick and hang the loop population", func() {
		p.ArmStation(1)
		p.ArmStation(1)
		stepSeconds(runner, cfg, 6)
		Expect(p.Snapshot().InLoop).To(BeNumerically(">", 0))

		p.PickAndHang()

		stepSeconds(runner, cfg, 5)

		for _, it := range p.allItemsInFlight() {
			Expect(it.Held).To(BeTrue())
		}
		s := p.Snapshot()
		Expect(s.InLoop + s.InBelts + s.InHold).To(
			Equal(int(s.Created)))
	})

	It("should return to collect with gaps enforced again", func() {
		p.SetMode(Drain)
		p.SetMode(Collect)

		Expect(p.Mode()).To(Equal(Collect))
		Expect(p.ModeController().SpeedFor(ClassIntake)).To(
			Equal(cfg.SpeedCollect))
		Expect(p.ModeController().SpeedFor(ClassDrainLine)).To(Equal(0.0))
	})

	It("should take mode commands and load requests from the field",
		func() {
			device := fieldbus.NewSimDevice()
			p = MakeBuilder().
				WithConfig(cfg).
				WithDevice(device).
				Build()
			runner = sim.NewTickRunner(p.Context(), p, cfg.TickRate)

			Expect(device.WriteBool("station01.request", true)).
				To(Succeed())
			Expect(device.WriteBool("cmd.drain", true)).To(Succeed())

			runner.StepN(1)

			Expect(p.Mode()).To(Equal(Drain))

			// The request point is consumed after being latched.
			v, _ := device.ReadBool("station01.request")
			Expect(v).To(BeFalse())

			// The mode points mirror the new mode.
			v, _ = device.ReadBool("mode.drain")
			Expect(v).To(BeTrue())
			v, _ = device.ReadBool("mode.collect")
			Expect(v).To(BeFalse())
		})
})
