package plant

import (
	"fmt"
	"log"
	"log/slog"
	"sync"

	"github.com/sortlab/sortline/control"
	"github.com/sortlab/sortline/dispatch"
	"github.com/sortlab/sortline/fieldbus"
	"github.com/sortlab/sortline/sim"
	"github.com/sortlab/sortline/transport"
)

// Segment names as they appear in Item.Where.
const (
	segLoop      = "LOOP"
	segDrain     = "DRAIN"
	segHold      = "HOLD"
	segUnload    = "UNLOAD"
	segFeedQueue = "FEEDQ"
	segSortQueue = "SORTQ"
)

func laneName(id int) string {
	return fmt.Sprintf("L%02d", id)
}

// HookPosPlantEvent marks the moment an Event is recorded. The hook Item is
// the Event.
var HookPosPlantEvent = &sim.HookPos{Name: "Plant Event"}

// A Plant is the whole sortation line: the intake loop with its load
// stations, the serpentine belt grid, the drain and holding lines, the
// unload carrier loop with feeder, depot and sorter, and the output lanes.
//
// All mutation happens inside Tick on the driving goroutine. Snapshot and
// TakeEvents may be called concurrently from other goroutines.
type Plant struct {
	sim.HookableBase

	mu  sync.RWMutex
	ctx *sim.Context
	cfg Config

	mode  *ModeController
	field *fieldbus.Adapter

	intakeLoop     *transport.Segment
	intakeFixtures *transport.CarrierLoop
	grid           *transport.BeltGrid
	drainLine      *transport.Segment
	holdLine       *transport.Segment
	unloadLoop     *transport.CarrierLoop

	stations   []*control.StationFSM
	stationOut []control.StationOutputs
	pending    []int
	spawnAcc   []float64

	feeder *control.FeederFSM
	depot  *control.DepotFSM
	sorter *control.SorterFSM

	sched *dispatch.Scheduler
	lanes []*dispatch.Lane

	feedQueue sim.Buffer
	sortQueue sim.Buffer

	// riding maps a carrier ID to the item bound to it on the unload loop.
	riding map[int]*transport.Item

	// stored maps item IDs to items held in output lanes.
	stored map[uint64]*transport.Item

	completed uint64

	lastDepotCarrier int

	drainCmd   control.RisingEdge
	hangCmd    control.RisingEdge
	collectCmd control.RisingEdge

	events []Event
}

// A Builder constructs a Plant.
type Builder struct {
	cfg    Config
	device fieldbus.Device
	logger *slog.Logger
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig sets the line configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithDevice sets the field device. Without one, an in-memory device is
// used.
func (b Builder) WithDevice(d fieldbus.Device) Builder {
	b.device = d
	return b
}

// WithLogger sets the logger used for field diagnostics.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build assembles the plant.
func (b Builder) Build() *Plant {
	cfg := b.cfg
	ctx := sim.MakeContext(cfg.Seed)

	device := b.device
	if device == nil {
		device = fieldbus.NewSimDevice()
	}

	p := &Plant{
		ctx:   ctx,
		cfg:   cfg,
		field: fieldbus.NewAdapter(device, b.logger),

		intakeLoop: transport.NewSegment(segLoop, cfg.LoopLength).
			AsCircular(),
		grid: transport.NewBeltGrid(cfg.BeltRows, cfg.BeltCols,
			cfg.BeltLength, cfg.BeltLength*cfg.BeltGapFrac),
		drainLine: transport.NewSegment(segDrain, cfg.DrainLineLength),
		holdLine:  transport.NewSegment(segHold, cfg.HoldLineLength),

		intakeFixtures: transport.NewCarrierLoop(
			"INTAKE", cfg.LoopLength, cfg.LoopZone),
		unloadLoop: transport.NewCarrierLoop(
			"UNLOAD", cfg.UnloadLoopLength, cfg.UnloadZone),

		sched: dispatch.NewScheduler(cfg.AgingThreshold),

		feedQueue: sim.NewBuffer(segFeedQueue, cfg.FeedQueueCap),
		sortQueue: sim.NewBuffer(segSortQueue, cfg.SortQueueCap),

		riding: make(map[int]*transport.Item),
		stored: make(map[uint64]*transport.Item),

		pending:  make([]int, len(cfg.StationPositions)),
		spawnAcc: make([]float64, len(cfg.StationPositions)),
	}

	p.mode = &ModeController{p: p}

	p.drainLine.SetAllowExit(true)

	p.intakeFixtures.AddCarriers(
		cfg.IntakeFixtures, cfg.CarrierJitter, ctx.Rand())
	p.unloadLoop.AddCarriers(
		cfg.UnloadCarriers, cfg.CarrierJitter, ctx.Rand())

	for i := range cfg.StationPositions {
		name := fmt.Sprintf("ST%02d", i+1)
		unit := control.NewUnit(name+".unit", cfg.StationXferTime)
		p.stations = append(p.stations,
			control.NewStationFSM(name, unit, cfg.StationGuard))
	}
	p.stationOut = make([]control.StationOutputs, len(p.stations))

	p.feeder = control.NewFeederFSM("FEEDER",
		control.NewUnit("FEEDER.unit", cfg.FeederXferTime),
		cfg.FeedPos, cfg.FeederGuard)
	p.depot = control.NewDepotFSM("DEPOT",
		control.NewUnit("DEPOT.unit", cfg.DepotXferTime),
		cfg.DepotGuard)
	p.sorter = control.NewSorterFSM("SORTER",
		control.NewUnit("SORTER.unit", cfg.SorterXferTime),
		&freeLanePicker{p: p}, cfg.SorterGuard)

	for i := 1; i <= cfg.LaneCount; i++ {
		p.lanes = append(p.lanes, dispatch.NewLane(i, cfg.LaneCapacity))
	}

	return p
}

// freeLanePicker picks a random lane with spare capacity.
type freeLanePicker struct {
	p *Plant
}

func (fp *freeLanePicker) PickLane() (int, bool) {
	var free []int
	for _, l := range fp.p.lanes {
		if l.CanAccept() {
			free = append(free, l.ID())
		}
	}

	if len(free) == 0 {
		return 0, false
	}

	return free[fp.p.ctx.Rand().Intn(len(free))], true
}

// Buffers returns the hand-off queues of the line, for inspection.
func (p *Plant) Buffers() []sim.Buffer {
	return []sim.Buffer{p.feedQueue, p.sortQueue}
}

// Context returns the plant's simulation context.
func (p *Plant) Context() *sim.Context { return p.ctx }

// Config returns the plant configuration.
func (p *Plant) Config() Config { return p.cfg }

// ModeController returns the mode controller.
func (p *Plant) ModeController() *ModeController { return p.mode }

// Mode returns the current operating mode.
func (p *Plant) Mode() Mode {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.mode.Mode()
}

// SetMode requests a mode transition. The transition applies immediately if
// no tick is in flight, otherwise before the next tick.
func (p *Plant) SetMode(mode Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mode.Set(mode, p.ctx.Now())
}

// ArmStation latches one additional load request on the 1-based station.
func (p *Plant) ArmStation(station int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if station < 1 || station > len(p.pending) {
		return
	}

	p.pending[station-1]++
}

// PickAndHang freezes every item currently riding the intake loop, moving
// each to a random resting place: frozen where it is, a random belt slot,
// or the holding line.
func (p *Plant) PickAndHang() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.ctx.Now()
	r := p.ctx.Rand()

	onLoop := append([]*transport.Item(nil), p.intakeLoop.Items()...)
	for _, it := range onLoop {
		it.Held = true

		switch r.Intn(3) {
		case 0:
			// Frozen in place on the loop.
		case 1:
			p.intakeLoop.Remove(it.ID)
			idx, pos := p.grid.RandomSlot(r)
			p.grid.Place(it, idx, pos, now)
		case 2:
			p.intakeLoop.Remove(it.ID)
			pos := r.Float64() * p.holdLine.Length()
			p.holdLine.Add(it, pos, now)
		}
	}
}

// Tick advances the whole line by one period. It implements sim.Ticker.
func (p *Plant) Tick(now sim.VTimeInSec) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dt := float64(p.cfg.TickRate.Period())

	p.accumulateSpawns(dt)
	p.stepTransport(dt, now)
	p.scanStations(now)
	p.scanFeeder(now)
	p.scanDepot(now)
	p.scanSorter(now)
	p.releaseLanes(now)
	p.syncField()
	p.checkConservation()
}

func (p *Plant) accumulateSpawns(dt float64) {
	if p.mode.Mode() != Collect {
		return
	}

	for i, rate := range p.cfg.SpawnRates {
		p.spawnAcc[i] += rate * dt / 60
		for p.spawnAcc[i] >= 1 {
			p.spawnAcc[i]--
			p.pending[i]++
		}
	}
}

func (p *Plant) stepTransport(dt float64, now sim.VTimeInSec) {
	p.intakeFixtures.Step(dt, p.mode.SpeedFor(ClassIntake))
	p.intakeLoop.Step(dt, p.mode.SpeedFor(ClassIntake))

	// The switch only diverts while the belts downstream are moving.
	if p.mode.Mode() != Hang {
		for _, it := range p.intakeLoop.TakeCrossings(p.cfg.SwitchPos) {
			belt := p.grid.Assign(it, now)
			p.emit(Event{
				Kind: EventSwitched, Time: now,
				Item: it.ID, Belt: belt,
			})
		}
	}

	for _, it := range p.grid.Step(dt, p.mode.SpeedFor(ClassBelt)) {
		p.drainLine.Add(it, 0, now)
		p.emit(Event{Kind: EventDrainEntered, Time: now, Item: it.ID})
	}

	for _, it := range p.drainLine.Step(dt, p.mode.SpeedFor(ClassDrainLine)) {
		if !p.feedQueue.CanPush() {
			p.drainLine.Add(it, p.drainLine.Length(), now)
			continue
		}

		it.MoveTo(segFeedQueue, 0, now)
		p.feedQueue.Push(it)
		p.emit(Event{Kind: EventQueued, Time: now, Item: it.ID})
	}

	p.holdLine.Step(dt, p.mode.SpeedFor(ClassHold))
	p.unloadLoop.Step(dt, p.mode.SpeedFor(ClassUnloadLoop))
}

func (p *Plant) scanStations(now sim.VTimeInSec) {
	for i, st := range p.stations {
		if !st.Armed() && p.pending[i] > 0 {
			p.pending[i]--
			st.Arm()
		}

		present, c := p.intakeFixtures.PresenceAt(p.cfg.StationPositions[i])
		in := control.StationInputs{CarrierPresent: present}
		if present {
			in.CarrierID = c.ID
		}

		out := st.Scan(in, now)
		p.stationOut[i] = out

		switch {
		case out.DonePulse:
			it := &transport.Item{
				ID:        p.ctx.NextItemID(),
				Origin:    i + 1,
				CreatedAt: now,
			}
			p.intakeLoop.Add(it, p.cfg.StationPositions[i], now)
			p.emit(Event{
				Kind: EventLoaded, Time: now,
				Item: it.ID, Station: i + 1,
			})

		case out.Abandoned:
			p.emit(Event{
				Kind: EventAbandoned, Time: now,
				Station: i + 1, Unit: st.Name(),
			})
		}
	}
}

func (p *Plant) scanFeeder(now sim.VTimeInSec) {
	var nextID uint64
	if head, ok := p.feedQueue.Peek().(*transport.Item); ok {
		nextID = head.ID
	}

	out := p.feeder.Scan(nextID, p.unloadLoop, now)

	switch {
	case out.FedJob != 0:
		it := p.feedQueue.Pop().(*transport.Item)
		if it.ID != out.FedJob {
			log.Panicf("feeder fed job %d but queue head was %d",
				out.FedJob, it.ID)
		}

		it.MoveTo(segUnload, 0, now)
		p.riding[out.FedCarrier] = it
		p.sched.Add(&dispatch.Job{
			ID:        it.ID,
			Carrier:   out.FedCarrier,
			CreatedAt: now,
		})
		p.emit(Event{
			Kind: EventFed, Time: now,
			Item: it.ID, Carrier: out.FedCarrier,
		})

	case out.Abandoned:
		p.emit(Event{Kind: EventAbandoned, Time: now, Unit: p.feeder.Name()})
	}
}

func (p *Plant) scanDepot(now sim.VTimeInSec) {
	present, c := p.unloadLoop.PresenceAt(p.cfg.DepotPos)

	in := control.DepotInputs{CarrierPresent: present}
	if present {
		in.CarrierID = c.ID
	}
	if target := p.sched.PickNext(); target != nil {
		in.TargetCarrier = target.Carrier
	}

	out := p.depot.Scan(in, now)

	switch {
	case out.ServicedPulse:
		p.finishService(out.ActiveTarget, now)

	case out.Abandoned:
		p.emit(Event{Kind: EventAbandoned, Time: now, Unit: p.depot.Name()})
	}

	p.countLap(present, c, out)
}

func (p *Plant) finishService(carrierID int, now sim.VTimeInSec) {
	jobID := p.unloadLoop.Unbind(carrierID)
	it := p.riding[carrierID]
	if it == nil || it.ID != jobID {
		log.Panicf("carrier %d serviced with no matching item", carrierID)
	}

	delete(p.riding, carrierID)
	p.sched.Remove(jobID)

	it.MoveTo(segSortQueue, 0, now)
	p.sortQueue.Push(it)
	p.emit(Event{
		Kind: EventServiced, Time: now,
		Item: it.ID, Carrier: carrierID,
	})
}

// countLap counts one unserviced pass per carrier arrival at the depot. A
// pass of the carrier under active transfer does not count.
func (p *Plant) countLap(
	present bool,
	c *transport.Carrier,
	out control.DepotOutputs,
) {
	if !present {
		p.lastDepotCarrier = 0
		return
	}

	arrived := c.ID != p.lastDepotCarrier
	p.lastDepotCarrier = c.ID

	if !arrived || c.LoadID == 0 {
		return
	}
	if out.Busy && out.ActiveTarget == c.ID {
		return
	}
	if out.ServicedPulse && out.ActiveTarget == c.ID {
		return
	}

	p.sched.OnCarrierPassedDepot(c.ID)
	if it := p.riding[c.ID]; it != nil {
		it.Laps++
	}
}

func (p *Plant) scanSorter(now sim.VTimeInSec) {
	var nextID uint64
	if head, ok := p.sortQueue.Peek().(*transport.Item); ok {
		nextID = head.ID
	}

	out := p.sorter.Scan(nextID, now)

	switch {
	case out.StoredJob != 0:
		it := p.sortQueue.Pop().(*transport.Item)
		if it.ID != out.StoredJob {
			log.Panicf("sorter stored job %d but queue head was %d",
				out.StoredJob, it.ID)
		}

		lane := p.lanes[out.StoredLane-1]
		lane.Put(it.ID, now, p.cfg.LaneHold)
		it.MoveTo(laneName(out.StoredLane), 0, now)
		p.stored[it.ID] = it
		p.emit(Event{
			Kind: EventStored, Time: now,
			Item: it.ID, Lane: out.StoredLane,
		})

	case out.Abandoned:
		p.emit(Event{Kind: EventAbandoned, Time: now, Unit: p.sorter.Name()})
	}
}

func (p *Plant) releaseLanes(now sim.VTimeInSec) {
	for _, lane := range p.lanes {
		for _, id := range lane.TickRelease(now) {
			it := p.stored[id]
			if it == nil {
				log.Panicf("lane %d released unknown item %d",
					lane.ID(), id)
			}

			delete(p.stored, id)
			p.completed++
			p.emit(Event{
				Kind: EventReleased, Time: now,
				Item: id, Lane: lane.ID(),
			})
		}
	}
}

// syncField publishes status points and consumes command points. Reads see
// the previous tick's external writes; commands latched here apply within
// the same tick, after all scans.
func (p *Plant) syncField() {
	for i, out := range p.stationOut {
		key := fmt.Sprintf("station%02d", i+1)
		p.field.WriteBool(key+".busy", out.Busy)

		if p.field.ReadBool(key + ".request") {
			p.field.WriteBool(key+".request", false)
			p.pending[i]++
		}
	}

	p.field.WriteBool("feeder.busy", p.feeder.State() == control.FeederTransfer)
	p.field.WriteBool("depot.busy", p.depot.State() == control.DepotTransfer)
	p.field.WriteBool("sorter.busy", p.sorter.State() == control.SorterTransfer)

	now := p.ctx.Now()
	if p.drainCmd.Detect(p.field.ReadBool("cmd.drain")) {
		p.mode.Set(Drain, now)
	}
	if p.hangCmd.Detect(p.field.ReadBool("cmd.hang")) {
		p.mode.Set(Hang, now)
	}
	if p.collectCmd.Detect(p.field.ReadBool("cmd.collect")) {
		p.mode.Set(Collect, now)
	}

	mode := p.mode.Mode()
	p.field.WriteBool("mode.collect", mode == Collect)
	p.field.WriteBool("mode.drain", mode == Drain)
	p.field.WriteBool("mode.hang", mode == Hang)
}

// allItemsInFlight returns every item still on its way to an output lane.
// Items resting in lanes are excluded; their release is purely timed.
func (p *Plant) allItemsInFlight() []*transport.Item {
	var all []*transport.Item

	all = append(all, p.intakeLoop.Items()...)
	for i := 1; i <= p.grid.NumBelts(); i++ {
		all = append(all, p.grid.Belt(i).Items()...)
	}
	all = append(all, p.drainLine.Items()...)
	all = append(all, p.holdLine.Items()...)

	for _, e := range p.feedQueue.Elements() {
		all = append(all, e.(*transport.Item))
	}
	for _, it := range p.riding {
		all = append(all, it)
	}
	for _, e := range p.sortQueue.Elements() {
		all = append(all, e.(*transport.Item))
	}

	return all
}

func (p *Plant) liveCount() uint64 {
	n := p.intakeLoop.NumItems() +
		p.grid.NumItems() +
		p.drainLine.NumItems() +
		p.holdLine.NumItems() +
		p.feedQueue.Size() +
		len(p.riding) +
		p.sortQueue.Size() +
		len(p.stored)

	return uint64(n)
}

// checkConservation panics if an item was created and neither released nor
// accounted for in exactly one location.
func (p *Plant) checkConservation() {
	created := p.ctx.NumItemsCreated()
	live := p.liveCount()

	if created != live+p.completed {
		log.Panicf(
			"item conservation violated: created %d, in flight %d, released %d",
			created, live, p.completed)
	}
}

func (p *Plant) emit(ev Event) {
	p.events = append(p.events, ev)

	if p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosPlantEvent,
			Item:   ev,
		})
	}
}

// TakeEvents returns and clears the events accumulated since the last call.
func (p *Plant) TakeEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := p.events
	p.events = nil

	return ev
}
