package dispatch

import (
	"log"

	"github.com/sortlab/sortline/sim"
)

// A Lane is a fixed-capacity holding area with per-item timed release.
// Occupancy never exceeds the capacity; release is a pure function of the
// simulation clock.
type Lane struct {
	id       int
	capacity int

	slots     []uint64
	releaseAt map[uint64]sim.VTimeInSec
}

// NewLane creates a lane with the given 1-based id and capacity.
func NewLane(id, capacity int) *Lane {
	return &Lane{
		id:        id,
		capacity:  capacity,
		releaseAt: make(map[uint64]sim.VTimeInSec),
	}
}

// ID returns the lane id.
func (l *Lane) ID() int { return l.id }

// Capacity returns the lane capacity.
func (l *Lane) Capacity() int { return l.capacity }

// Size returns the current occupancy.
func (l *Lane) Size() int { return len(l.slots) }

// CanAccept reports whether the lane has a spare slot.
func (l *Lane) CanAccept() bool {
	return len(l.slots) < l.capacity
}

// Put appends a job scheduled for release after the hold duration.
func (l *Lane) Put(jobID uint64, now, hold sim.VTimeInSec) {
	if !l.CanAccept() {
		log.Panicf("lane %d overflow", l.id)
	}

	l.slots = append(l.slots, jobID)
	l.releaseAt[jobID] = now + hold
}

// TickRelease removes and returns every job whose release time has elapsed.
// Each job is returned exactly once; calling again at the same time returns
// an empty set.
func (l *Lane) TickRelease(now sim.VTimeInSec) []uint64 {
	var released []uint64
	var keep []uint64

	for _, id := range l.slots {
		if l.releaseAt[id] <= now {
			released = append(released, id)
			delete(l.releaseAt, id)
		} else {
			keep = append(keep, id)
		}
	}

	l.slots = keep

	return released
}
