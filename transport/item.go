// Package transport models the physical conveying elements of a sortation
// line: positioned items, linear and circular segments, the serpentine belt
// grid, and recirculating carrier loops.
package transport

import "github.com/sortlab/sortline/sim"

// An Item is one indivisible unit of work flowing through the line.
//
// Items are created when a station finishes a load transfer, relocated by
// segments and transfer state machines, and destroyed when released from a
// buffer lane.
type Item struct {
	// ID is unique and monotonically increasing within one run.
	ID uint64

	// Origin is the 1-based index of the station that loaded the item.
	Origin int

	// CreatedAt is the simulation time the item entered the system.
	CreatedAt sim.VTimeInSec

	// Where names the segment or lane currently holding the item.
	Where string

	// Pos is the scalar position within the current segment, in meters.
	Pos float64

	// EnteredAt is when the item arrived at its current location. Drain
	// reordering uses it as the LIFO key.
	EnteredAt sim.VTimeInSec

	// Laps counts how many times the item's carrier passed the depot
	// without being serviced.
	Laps int

	// Held marks an item frozen in place by a hang command.
	Held bool
}

// MoveTo relocates the item to a new segment at the given position.
func (it *Item) MoveTo(where string, pos float64, now sim.VTimeInSec) {
	it.Where = where
	it.Pos = pos
	it.EnteredAt = now
}
