package control

import "github.com/sortlab/sortline/sim"

// StationState is the closed set of states of a StationFSM.
type StationState int

const (
	// StationIdle waits for an armed request and a carrier.
	StationIdle StationState = iota
	// StationLoading has the equipment commanded.
	StationLoading
	// StationDone waits for the carrier to move on.
	StationDone
)

// StationInputs are the sensed inputs of one station scan.
type StationInputs struct {
	CarrierPresent bool
	CarrierID      int
	RequestLoad    bool
	Reset          bool
}

// StationOutputs are the command and status outputs of one station scan.
type StationOutputs struct {
	Cmd       bool
	Busy      bool
	DonePulse bool
	Abandoned bool
	CarrierID int
}

// A StationFSM gates a load transfer onto a passing carrier. An externally
// armed request plus carrier presence plus equipment readiness starts the
// transfer; completion emits a one-tick done pulse and disarms the request.
// If the guard timer expires before the equipment reports completion, the
// attempt is abandoned, not retried.
type StationFSM struct {
	name string
	unit *Unit

	state StationState
	armed bool
	guard TON
	out   StationOutputs
}

// NewStationFSM creates a station controlling the given equipment unit with
// the given transfer guard window.
func NewStationFSM(name string, unit *Unit, guard sim.VTimeInSec) *StationFSM {
	return &StationFSM{
		name:  name,
		unit:  unit,
		guard: TON{Preset: guard},
	}
}

// Name returns the station name.
func (s *StationFSM) Name() string { return s.name }

// State returns the current state.
func (s *StationFSM) State() StationState { return s.state }

// Armed reports whether a load request is pending.
func (s *StationFSM) Armed() bool { return s.armed }

// Arm latches an external load request.
func (s *StationFSM) Arm() { s.armed = true }

// Scan runs one controller scan and steps the equipment unit exactly once.
func (s *StationFSM) Scan(in StationInputs, now sim.VTimeInSec) StationOutputs {
	o := &s.out
	o.DonePulse = false
	o.Abandoned = false

	if in.Reset {
		s.state = StationIdle
		s.armed = false
		o.Cmd = false
		o.Busy = false
	}

	if in.RequestLoad {
		s.armed = true
	}

	switch s.state {
	case StationIdle:
		o.Cmd = false
		o.Busy = false
		o.CarrierID = 0

		if s.armed && in.CarrierPresent && s.unit.Ready() {
			o.Cmd = true
			o.Busy = true
			o.CarrierID = in.CarrierID
			s.guard.Update(true, now)
			s.state = StationLoading
		}

	case StationLoading:
		s.guard.Update(true, now)

		switch {
		case s.unit.Complete():
			o.Cmd = false
			o.Busy = false
			o.DonePulse = true
			s.armed = false
			s.guard.Update(false, now)
			s.state = StationDone

		case s.guard.Done:
			o.Cmd = false
			o.Busy = false
			o.Abandoned = true
			s.guard.Update(false, now)
			s.state = StationIdle
		}

	case StationDone:
		if !in.CarrierPresent {
			s.state = StationIdle
		}
	}

	s.unit.Step(o.Cmd, now)

	return *o
}
