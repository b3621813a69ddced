package control

import "github.com/sortlab/sortline/sim"

// DepotState is the closed set of states of a DepotFSM.
type DepotState int

const (
	// DepotIdle waits for the scheduler to supply a target.
	DepotIdle DepotState = iota
	// DepotWaitTarget waits for the carrier bearing the target job.
	DepotWaitTarget
	// DepotTransfer has the equipment commanded.
	DepotTransfer
)

// DepotInputs are the sensed inputs of one depot scan.
type DepotInputs struct {
	CarrierPresent bool
	CarrierID      int

	// TargetCarrier is the carrier bearing the job the scheduler chose;
	// zero means no target.
	TargetCarrier int
}

// DepotOutputs are the command and status outputs of one depot scan.
type DepotOutputs struct {
	Cmd           bool
	Busy          bool
	ServicedPulse bool
	Abandoned     bool
	ActiveTarget  int
}

// A DepotFSM unloads the scheduler-chosen job off its carrier at the depot
// position. The transfer starts once the carrier bearing the target is
// present and the equipment is ready; completion emits a one-tick serviced
// pulse so the caller can inform the scheduler and forward the job
// downstream.
type DepotFSM struct {
	name string
	unit *Unit

	state DepotState
	guard TON
	out   DepotOutputs
}

// NewDepotFSM creates a depot controlling the given equipment unit with the
// given transfer guard window.
func NewDepotFSM(name string, unit *Unit, guard sim.VTimeInSec) *DepotFSM {
	return &DepotFSM{
		name:  name,
		unit:  unit,
		guard: TON{Preset: guard},
	}
}

// Name returns the depot name.
func (d *DepotFSM) Name() string { return d.name }

// State returns the current state.
func (d *DepotFSM) State() DepotState { return d.state }

// Scan runs one controller scan and steps the equipment unit exactly once.
func (d *DepotFSM) Scan(in DepotInputs, now sim.VTimeInSec) DepotOutputs {
	o := &d.out
	o.ServicedPulse = false
	o.Abandoned = false

	switch d.state {
	case DepotIdle:
		o.Cmd = false
		o.Busy = false
		o.ActiveTarget = in.TargetCarrier

		if in.TargetCarrier != 0 {
			d.state = DepotWaitTarget
		}

	case DepotWaitTarget:
		o.ActiveTarget = in.TargetCarrier

		switch {
		case in.TargetCarrier == 0:
			d.state = DepotIdle

		case in.CarrierPresent &&
			in.CarrierID == in.TargetCarrier &&
			d.unit.Ready():
			o.Cmd = true
			o.Busy = true
			d.guard.Update(true, now)
			d.state = DepotTransfer
		}

	case DepotTransfer:
		d.guard.Update(true, now)

		switch {
		case d.unit.Complete():
			o.Cmd = false
			o.Busy = false
			o.ServicedPulse = in.CarrierPresent &&
				in.CarrierID == o.ActiveTarget
			o.Abandoned = !o.ServicedPulse
			d.guard.Update(false, now)
			d.state = DepotIdle

		case d.guard.Done:
			o.Cmd = false
			o.Busy = false
			o.Abandoned = true
			d.guard.Update(false, now)
			d.state = DepotIdle
		}
	}

	d.unit.Step(o.Cmd, now)

	return *o
}
