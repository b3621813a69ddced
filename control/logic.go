// Package control implements the transfer control logic of the sortation
// line: ladder-style timer and edge primitives, the equipment unit model,
// and the station, depot, feeder, and sorter state machines.
package control

import "github.com/sortlab/sortline/sim"

// A TON is a delay-on timer. Done goes true once the enable input has been
// held for the preset duration; dropping the enable input resets the timer.
type TON struct {
	Preset  sim.VTimeInSec
	Done    bool
	Elapsed sim.VTimeInSec

	running bool
	start   sim.VTimeInSec
}

// Update drives the timer with the enable input at the given time.
func (t *TON) Update(enable bool, now sim.VTimeInSec) {
	if !enable {
		t.running = false
		t.Elapsed = 0
		t.Done = false

		return
	}

	if !t.running {
		t.running = true
		t.start = now
		t.Elapsed = 0
		t.Done = false

		return
	}

	t.Elapsed = now - t.start
	t.Done = t.Elapsed >= t.Preset
}

// A RisingEdge detects a false-to-true transition of a boolean signal.
type RisingEdge struct {
	prev bool
}

// Detect consumes the current signal value and reports whether a rising
// edge occurred.
func (e *RisingEdge) Detect(now bool) bool {
	r := !e.prev && now
	e.prev = now

	return r
}

// A FallingEdge detects a true-to-false transition of a boolean signal.
type FallingEdge struct {
	prev bool
}

// Detect consumes the current signal value and reports whether a falling
// edge occurred.
func (e *FallingEdge) Detect(now bool) bool {
	f := e.prev && !now
	e.prev = now

	return f
}
