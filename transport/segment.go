package transport

import (
	"log"
	"math"
	"sort"

	"github.com/sortlab/sortline/sim"
)

const arriveEps = 1e-9

// SegmentKind tells whether positions wrap around or terminate.
type SegmentKind int

const (
	// Linear segments emit items once their position reaches the length.
	Linear SegmentKind = iota
	// Circular segments wrap positions modulo the length and never emit.
	Circular
)

// A Segment is a one-dimensional transport path holding positioned items.
// The speed is supplied per tick by the caller; segments own no speed state.
type Segment struct {
	name   string
	kind   SegmentKind
	length float64

	minGap     float64
	enforceGap bool
	allowExit  bool
	ignoreGaps bool

	items []*Item

	// prev positions from the latest Step, for switch-point detection.
	prevPos map[uint64]float64
}

// NewSegment creates a linear segment with the given length in meters.
func NewSegment(name string, length float64) *Segment {
	if length <= 0 {
		log.Panicf("segment %s must have a positive length", name)
	}

	return &Segment{
		name:   name,
		kind:   Linear,
		length: length,
	}
}

// AsCircular makes the segment wrap positions modulo its length.
func (s *Segment) AsCircular() *Segment {
	s.kind = Circular
	return s
}

// WithMinGap turns on following-gap enforcement with the given spacing.
func (s *Segment) WithMinGap(gap float64) *Segment {
	s.minGap = gap
	s.enforceGap = true
	return s
}

// Name returns the segment name.
func (s *Segment) Name() string { return s.name }

// Length returns the segment length in meters.
func (s *Segment) Length() float64 { return s.length }

// Kind returns whether the segment is linear or circular.
func (s *Segment) Kind() SegmentKind { return s.kind }

// NumItems returns the current population count.
func (s *Segment) NumItems() int { return len(s.items) }

// Items returns the current population. The slice must not be mutated.
func (s *Segment) Items() []*Item { return s.items }

// SetAllowExit controls whether the leading item on a linear segment may
// move past the terminal boundary. While exit is disallowed the leader is
// clamped at the segment length and followers queue up behind it.
func (s *Segment) SetAllowExit(allow bool) { s.allowExit = allow }

// SetIgnoreGaps suspends gap enforcement. Followers then move independently
// of the leader, permitting temporary overlap. Used during the drain-flush
// reordering, where explicit insertion spacing replaces the gap constraint.
func (s *Segment) SetIgnoreGaps(ignore bool) { s.ignoreGaps = ignore }

// Add places an item onto the segment at the given position.
func (s *Segment) Add(it *Item, pos float64, now sim.VTimeInSec) {
	if s.kind == Circular {
		pos = math.Mod(pos, s.length)
	}

	it.MoveTo(s.name, pos, now)
	s.items = append(s.items, it)
}

// Remove takes an item off the segment by ID. It returns nil if the item is
// not present.
func (s *Segment) Remove(id uint64) *Item {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return it
		}
	}

	return nil
}

// TakeAll removes and returns every item on the segment.
func (s *Segment) TakeAll() []*Item {
	taken := s.items
	s.items = nil
	return taken
}

// Step advances every item by speed*dt. For linear segments, items that
// reached the terminal boundary are removed and returned; the caller must
// place them into the next stage. Circular segments always return nil; use
// TakeCrossings to test switch-point crossing.
//
// When gap enforcement is configured and not suspended, items are sorted by
// descending position, the leader moves freely (clamped at the length unless
// exit is allowed), and each follower is clamped to the position of the item
// ahead minus the minimum gap.
func (s *Segment) Step(dt float64, speed float64) []*Item {
	if len(s.items) == 0 {
		return nil
	}

	if s.kind == Circular {
		s.stepCircular(dt, speed)
		return nil
	}

	if s.enforceGap && !s.ignoreGaps {
		s.stepConvoy(dt, speed)
	} else {
		for _, it := range s.items {
			if it.Held {
				continue
			}
			it.Pos += speed * dt
			if !s.allowExit && it.Pos > s.length {
				it.Pos = s.length
			}
		}
	}

	if !s.allowExit {
		return nil
	}

	return s.takeArrived()
}

func (s *Segment) stepCircular(dt float64, speed float64) {
	if s.prevPos == nil {
		s.prevPos = make(map[uint64]float64, len(s.items))
	}

	for _, it := range s.items {
		s.prevPos[it.ID] = it.Pos
		if it.Held {
			continue
		}
		it.Pos = math.Mod(it.Pos+speed*dt, s.length)
	}
}

func (s *Segment) stepConvoy(dt float64, speed float64) {
	sort.Slice(s.items, func(i, j int) bool {
		return s.items[i].Pos > s.items[j].Pos
	})

	leader := s.items[0]
	if !leader.Held {
		leader.Pos += speed * dt
		if !s.allowExit && leader.Pos > s.length {
			leader.Pos = s.length
		}
	}

	for i := 1; i < len(s.items); i++ {
		it := s.items[i]
		if it.Held {
			continue
		}

		maxPos := s.items[i-1].Pos - s.minGap
		if !s.allowExit && maxPos > s.length {
			maxPos = s.length
		}

		it.Pos = math.Min(it.Pos+speed*dt, maxPos)
		if it.Pos < 0 {
			it.Pos = 0
		}
	}
}

func (s *Segment) takeArrived() []*Item {
	var arrived []*Item
	var keep []*Item

	for _, it := range s.items {
		if it.Pos >= s.length-arriveEps {
			arrived = append(arrived, it)
		} else {
			keep = append(keep, it)
		}
	}

	s.items = keep

	return arrived
}

// TakeCrossings removes and returns the items that crossed the given switch
// position during the latest Step of a circular segment, in the direction of
// travel, including the wraparound case where the position numerically
// decreased. The result is sorted by resulting position ascending so that
// same-tick crossings hand off in a deterministic, collision-free order.
func (s *Segment) TakeCrossings(switchPos float64) []*Item {
	if s.kind != Circular {
		log.Panicf("segment %s is not circular", s.name)
	}

	var crossed []*Item

	for _, it := range s.items {
		prev, ok := s.prevPos[it.ID]
		if !ok || it.Held {
			continue
		}

		now := it.Pos
		if now == prev {
			continue
		}
		if prev <= switchPos && switchPos <= now &&
			now-prev <= s.length/2 {
			crossed = append(crossed, it)
			continue
		}
		if prev > now && (switchPos >= prev || switchPos <= now) {
			crossed = append(crossed, it)
		}
	}

	sort.Slice(crossed, func(i, j int) bool {
		return crossed[i].Pos < crossed[j].Pos
	})

	for _, it := range crossed {
		s.Remove(it.ID)
		delete(s.prevPos, it.ID)
	}

	return crossed
}
