package transport

import (
	"fmt"
	"math/rand"

	"github.com/sortlab/sortline/sim"
)

// A BeltGrid is a fixed rows x cols arrangement of gap-enforcing belts
// addressed in serpentine order. New arrivals are assigned round-robin
// following that order; on drain, belts flush arrivals onward in the same
// visitation order, preserving the physical flow direction.
type BeltGrid struct {
	rows, cols int
	belts      []*Segment
	order      []int

	rr int
}

// NewBeltGrid creates a grid of rows x cols belts, each of the given length
// and minimum following gap.
func NewBeltGrid(rows, cols int, beltLen, minGap float64) *BeltGrid {
	g := &BeltGrid{
		rows:  rows,
		cols:  cols,
		order: SerpentineOrder(rows, cols),
	}

	for i := 1; i <= rows*cols; i++ {
		name := fmt.Sprintf("B%02d", i)
		g.belts = append(g.belts,
			NewSegment(name, beltLen).WithMinGap(minGap))
	}

	return g
}

// NumBelts returns the number of belts in the grid.
func (g *BeltGrid) NumBelts() int { return len(g.belts) }

// Belt returns the belt with the given 1-based index.
func (g *BeltGrid) Belt(idx int) *Segment { return g.belts[idx-1] }

// Order returns the serpentine traversal order of belt indices.
func (g *BeltGrid) Order() []int { return g.order }

// NumItems returns the total item count across all belts.
func (g *BeltGrid) NumItems() int {
	n := 0
	for _, b := range g.belts {
		n += b.NumItems()
	}

	return n
}

// Assign places a newly arrived item at the start of the next belt in
// round-robin serpentine order and returns the chosen belt index.
func (g *BeltGrid) Assign(it *Item, now sim.VTimeInSec) int {
	idx := g.order[g.rr%len(g.order)]
	g.rr++

	g.Belt(idx).Add(it, 0, now)

	return idx
}

// Place puts an item at an explicit belt position, bypassing round-robin.
// Hang relocation uses it to freeze items at arbitrary slots.
func (g *BeltGrid) Place(it *Item, idx int, pos float64, now sim.VTimeInSec) {
	g.Belt(idx).Add(it, pos, now)
}

// RandomSlot picks a random belt index and position using the given source.
func (g *BeltGrid) RandomSlot(r *rand.Rand) (int, float64) {
	idx := r.Intn(len(g.belts)) + 1
	pos := r.Float64() * g.Belt(idx).Length()

	return idx, pos
}

// SetAllowExit toggles terminal exit on every belt.
func (g *BeltGrid) SetAllowExit(allow bool) {
	for _, b := range g.belts {
		b.SetAllowExit(allow)
	}
}

// SetIgnoreGaps toggles the gap-enforcement relaxation on every belt.
func (g *BeltGrid) SetIgnoreGaps(ignore bool) {
	for _, b := range g.belts {
		b.SetIgnoreGaps(ignore)
	}
}

// Step advances every belt in serpentine order with the given speed and
// returns the items that exited terminal boundaries, in serpentine
// visitation order.
func (g *BeltGrid) Step(dt, speed float64) []*Item {
	var flushed []*Item

	for _, idx := range g.order {
		arrived := g.Belt(idx).Step(dt, speed)
		flushed = append(flushed, arrived...)
	}

	return flushed
}

// TakeAll removes and returns every item on every belt, in serpentine
// visitation order.
func (g *BeltGrid) TakeAll() []*Item {
	var all []*Item

	for _, idx := range g.order {
		all = append(all, g.Belt(idx).TakeAll()...)
	}

	return all
}
