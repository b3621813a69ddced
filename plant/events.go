package plant

import "github.com/sortlab/sortline/sim"

// EventKind enumerates what can happen to an item during one tick.
type EventKind int

const (
	// EventLoaded marks a station finishing a load onto the intake loop.
	EventLoaded EventKind = iota
	// EventSwitched marks an item crossing the switch point onto a belt.
	EventSwitched
	// EventDrainEntered marks an item flushed from a belt onto the drain
	// line.
	EventDrainEntered
	// EventQueued marks an item reaching the end of the drain line.
	EventQueued
	// EventFed marks the feeder binding an item to an unload carrier.
	EventFed
	// EventServiced marks the depot unloading the scheduled item.
	EventServiced
	// EventStored marks the sorter depositing an item into a lane.
	EventStored
	// EventReleased marks a lane releasing an item out of the system.
	EventReleased
	// EventAbandoned marks a transfer given up after its guard window.
	EventAbandoned
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventSwitched:
		return "switched"
	case EventDrainEntered:
		return "drain-entered"
	case EventQueued:
		return "queued"
	case EventFed:
		return "fed"
	case EventServiced:
		return "serviced"
	case EventStored:
		return "stored"
	case EventReleased:
		return "released"
	case EventAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// An Event is one observable outcome of a tick. The plant accumulates
// events instead of invoking callbacks, so callers consume a consistent
// post-tick list with no re-entrant mutation.
type Event struct {
	Kind EventKind
	Time sim.VTimeInSec

	Item    uint64
	Station int
	Belt    int
	Carrier int
	Lane    int
	Unit    string
}
