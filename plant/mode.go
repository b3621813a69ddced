package plant

import (
	"sort"

	"github.com/sortlab/sortline/sim"
	"github.com/sortlab/sortline/transport"
)

// Mode is the process-wide operating mode of the line.
type Mode int

const (
	// Collect runs normal intake: the loop and belts move, downstream
	// segments are held at zero speed.
	Collect Mode = iota
	// Drain empties all in-flight work within the deadline window.
	Drain
	// Hang freezes all in-flight work in place.
	Hang
)

func (m Mode) String() string {
	switch m {
	case Collect:
		return "COLLECT"
	case Drain:
		return "DRAIN"
	case Hang:
		return "HANG"
	default:
		return "UNKNOWN"
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "COLLECT", "collect":
		return Collect, true
	case "DRAIN", "drain":
		return Drain, true
	case "HANG", "hang":
		return Hang, true
	default:
		return Collect, false
	}
}

// SegmentClass selects which speed a segment receives from the mode
// controller.
type SegmentClass int

const (
	// ClassIntake is the recirculating intake loop.
	ClassIntake SegmentClass = iota
	// ClassBelt is any belt of the grid.
	ClassBelt
	// ClassDrainLine is the shared drain line.
	ClassDrainLine
	// ClassHold is the stationary holding line.
	ClassHold
	// ClassUnloadLoop is the unload carrier loop.
	ClassUnloadLoop
)

// A ModeController owns the system mode and supplies the per-segment speed
// function consumed by all segments. On a Collect-to-Drain transition it
// bulk-migrates the in-flight population onto the drain line and computes a
// deadline-driven speed; on a hang it relocates non-holding items onto
// frozen belt slots.
type ModeController struct {
	p    *Plant
	mode Mode

	drainBeltSpeed float64
	drainLineSpeed float64
}

// Mode returns the current mode.
func (m *ModeController) Mode() Mode { return m.mode }

// DrainSpeeds returns the belt and drain-line speeds computed at the last
// Collect-to-Drain transition.
func (m *ModeController) DrainSpeeds() (belt, line float64) {
	return m.drainBeltSpeed, m.drainLineSpeed
}

// SpeedFor returns the speed of a segment class under the current mode.
func (m *ModeController) SpeedFor(class SegmentClass) float64 {
	cfg := &m.p.cfg

	switch m.mode {
	case Collect:
		switch class {
		case ClassIntake, ClassBelt:
			return cfg.SpeedCollect
		case ClassUnloadLoop:
			return cfg.UnloadLoopSpeed
		}

	case Drain:
		switch class {
		case ClassIntake, ClassBelt:
			return m.drainBeltSpeed
		case ClassDrainLine:
			return m.drainLineSpeed
		case ClassUnloadLoop:
			return cfg.UnloadLoopSpeed
		}

	case Hang:
		if class == ClassIntake {
			return cfg.SpeedCollect
		}
	}

	return 0
}

// Set transitions the controller to the given mode. Transitions take effect
// atomically between ticks; the caller must hold the plant's tick lock.
func (m *ModeController) Set(mode Mode, now sim.VTimeInSec) {
	if mode == m.mode {
		return
	}

	switch mode {
	case Collect:
		m.enterCollect()
	case Drain:
		m.enterDrain(now)
	case Hang:
		m.enterHang(now)
	}
}

func (m *ModeController) enterCollect() {
	m.mode = Collect
	m.p.grid.SetAllowExit(false)
	m.p.grid.SetIgnoreGaps(false)
}

// enterDrain collects every item that is not past the point of no return,
// reorders the set LIFO by arrival at its current location, re-inserts it
// onto the drain line with small artificial offsets, and computes the one
// scalar speed that drains the worst-case remaining path within the
// deadline window.
func (m *ModeController) enterDrain(now sim.VTimeInSec) {
	p := m.p
	cfg := &p.cfg

	var collected []*transport.Item
	collected = append(collected, p.holdLine.TakeAll()...)
	collected = append(collected, p.grid.TakeAll()...)

	// Only explicitly frozen items leave the intake loop; the rest keep
	// circulating and re-enter through the switch point later.
	for _, it := range append([]*transport.Item(nil), p.intakeLoop.Items()...) {
		if it.Held {
			p.intakeLoop.Remove(it.ID)
			collected = append(collected, it)
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].EnteredAt > collected[j].EnteredAt
	})

	for i, it := range collected {
		pos := float64(i) * cfg.DrainSpacing
		if pos > cfg.DrainLineLength-1e-6 {
			pos = cfg.DrainLineLength - 1e-6
		}

		it.Held = false
		p.drainLine.Add(it, pos, now)
	}

	m.computeDrainSpeeds()

	m.mode = Drain
	p.grid.SetAllowExit(true)
	p.grid.SetIgnoreGaps(true)
}

func (m *ModeController) computeDrainSpeeds() {
	cfg := &m.p.cfg

	worst := 0.0
	for _, it := range m.p.allItemsInFlight() {
		if r := m.worstRemaining(it); r > worst {
			worst = r
		}
	}

	window := float64(cfg.DrainWindow)
	if window < 1e-6 {
		window = 1e-6
	}

	minSpeed := cfg.DrainSafety * worst / window

	m.drainBeltSpeed = cfg.SpeedDrainFloor
	if minSpeed > m.drainBeltSpeed {
		m.drainBeltSpeed = minSpeed
	}

	m.drainLineSpeed = cfg.SpeedDrainLineFloor
	if minSpeed > m.drainLineSpeed {
		m.drainLineSpeed = minSpeed
	}
}

// worstRemaining is the worst-case path length from the item's current
// position to the final exit of the line.
func (m *ModeController) worstRemaining(it *transport.Item) float64 {
	cfg := &m.p.cfg

	switch {
	case len(it.Where) > 0 && it.Where[0] == 'B':
		return (cfg.BeltLength - it.Pos) +
			cfg.DrainLineLength + cfg.UnloadLegLength
	case it.Where == segDrain:
		return (cfg.DrainLineLength - it.Pos) + cfg.UnloadLegLength
	case it.Where == segUnload || it.Where == segFeedQueue ||
		it.Where == segSortQueue:
		return cfg.UnloadLegLength
	default:
		// Loop and holding line items must still traverse a belt, the
		// drain line, and the unload leg.
		return cfg.BeltLength + cfg.DrainLineLength + cfg.UnloadLegLength
	}
}

// enterHang relocates every item on the drain line onto a randomly chosen
// belt slot and freezes it there. Items on the intake loop keep circulating
// at intake speed; PickAndHang freezes those explicitly.
func (m *ModeController) enterHang(now sim.VTimeInSec) {
	p := m.p

	for _, it := range p.drainLine.TakeAll() {
		idx, pos := p.grid.RandomSlot(p.ctx.Rand())
		it.Held = true
		p.grid.Place(it, idx, pos, now)
	}

	m.mode = Hang
	p.grid.SetAllowExit(false)
	p.grid.SetIgnoreGaps(false)
}
