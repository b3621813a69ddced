package control

import (
	"github.com/sortlab/sortline/sim"
	"github.com/sortlab/sortline/transport"
)

// FeederState is the closed set of states of a FeederFSM.
type FeederState int

const (
	// FeederIdle waits for a queued job and a free carrier in range.
	FeederIdle FeederState = iota
	// FeederTransfer has the equipment commanded.
	FeederTransfer
)

// FeederOutputs are the results of one feeder scan.
type FeederOutputs struct {
	Busy bool

	// FedJob and FedCarrier are set together on the scan where a job was
	// successfully bound to a carrier.
	FedJob     uint64
	FedCarrier int

	Abandoned bool
}

// A FeederFSM hands the next queued job onto a free carrier of the unload
// loop at the feed position.
type FeederFSM struct {
	name string
	unit *Unit
	pos  float64

	state      FeederState
	currentJob uint64
	guard      TON
}

// NewFeederFSM creates a feeder at the given loop position, controlling the
// given equipment unit with the given transfer guard window.
func NewFeederFSM(
	name string,
	unit *Unit,
	pos float64,
	guard sim.VTimeInSec,
) *FeederFSM {
	return &FeederFSM{
		name:  name,
		unit:  unit,
		pos:   pos,
		guard: TON{Preset: guard},
	}
}

// Name returns the feeder name.
func (f *FeederFSM) Name() string { return f.name }

// State returns the current state.
func (f *FeederFSM) State() FeederState { return f.state }

// Scan runs one controller scan. nextJob is the job at the head of the
// waiting queue, zero if none. The caller must dequeue the job shown in
// FedJob once it is reported fed.
func (f *FeederFSM) Scan(
	nextJob uint64,
	loop *transport.CarrierLoop,
	now sim.VTimeInSec,
) FeederOutputs {
	o := FeederOutputs{}

	switch f.state {
	case FeederIdle:
		if nextJob != 0 && f.unit.Ready() {
			if near, _ := loop.PresenceAt(f.pos); near {
				f.currentJob = nextJob
				f.guard.Update(true, now)
				f.state = FeederTransfer
			}
		}

	case FeederTransfer:
		o.Busy = true
		f.guard.Update(true, now)

		switch {
		case f.unit.Complete():
			if c := loop.BindNearestFree(f.pos, f.currentJob); c != nil {
				o.FedJob = f.currentJob
				o.FedCarrier = c.ID
			} else {
				o.Abandoned = true
			}

			o.Busy = false
			f.currentJob = 0
			f.guard.Update(false, now)
			f.state = FeederIdle

		case f.guard.Done:
			o.Busy = false
			o.Abandoned = true
			f.currentJob = 0
			f.guard.Update(false, now)
			f.state = FeederIdle
		}
	}

	f.unit.Step(f.state == FeederTransfer, now)

	return o
}
