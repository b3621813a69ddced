package control

import "github.com/sortlab/sortline/sim"

// A Unit models a physical transfer actuator with a fixed operation
// duration. Only one command cycle may be in flight at a time. The complete
// status is latched for exactly one non-commanded step, giving controllers a
// race-free window to observe it before the unit returns to ready.
type Unit struct {
	name     string
	duration sim.VTimeInSec

	ready    bool
	busy     bool
	complete bool

	timer   TON
	latched int
}

// NewUnit creates a ready equipment unit whose transfer takes the given
// duration.
func NewUnit(name string, duration sim.VTimeInSec) *Unit {
	return &Unit{
		name:     name,
		duration: duration,
		ready:    true,
		timer:    TON{Preset: duration},
	}
}

// Name returns the unit name.
func (u *Unit) Name() string { return u.name }

// Ready reports whether the unit can accept a command.
func (u *Unit) Ready() bool { return u.ready }

// Busy reports whether a transfer is in flight.
func (u *Unit) Busy() bool { return u.busy }

// Complete reports the latched completion pulse.
func (u *Unit) Complete() bool { return u.complete }

// Step drives the unit with the commanded input at the given time.
func (u *Unit) Step(cmd bool, now sim.VTimeInSec) {
	if cmd && u.ready && !u.busy {
		u.ready = false
		u.busy = true
		u.timer.Update(true, now)
	}

	if u.busy {
		u.timer.Update(true, now)
		if u.timer.Done {
			u.busy = false
			u.complete = true
			u.latched = 1
			u.timer.Update(false, now)
		}

		return
	}

	if u.latched > 0 {
		u.latched--
		return
	}

	u.complete = false
	u.ready = true
}
