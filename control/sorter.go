package control

import "github.com/sortlab/sortline/sim"

// A LanePicker chooses an output lane with spare capacity for a sorted job.
// The pick runs when the transfer starts; a false return means no lane can
// accept and the hand-off must wait.
type LanePicker interface {
	PickLane() (int, bool)
}

// SorterState is the closed set of states of a SorterFSM.
type SorterState int

const (
	// SorterIdle waits for a queued job and an accepting lane.
	SorterIdle SorterState = iota
	// SorterTransfer has the equipment commanded.
	SorterTransfer
)

// SorterOutputs are the results of one sorter scan.
type SorterOutputs struct {
	Busy bool

	// StoredJob and StoredLane are set together on the scan where a job
	// was successfully deposited into a lane.
	StoredJob  uint64
	StoredLane int

	Abandoned bool
}

// A SorterFSM takes queued jobs off the line and deposits them into output
// lanes chosen by the LanePicker.
type SorterFSM struct {
	name   string
	unit   *Unit
	picker LanePicker

	state      SorterState
	currentJob uint64
	targetLane int
	guard      TON
}

// NewSorterFSM creates a sorter controlling the given equipment unit with
// the given transfer guard window.
func NewSorterFSM(
	name string,
	unit *Unit,
	picker LanePicker,
	guard sim.VTimeInSec,
) *SorterFSM {
	return &SorterFSM{
		name:   name,
		unit:   unit,
		picker: picker,
		guard:  TON{Preset: guard},
	}
}

// Name returns the sorter name.
func (s *SorterFSM) Name() string { return s.name }

// State returns the current state.
func (s *SorterFSM) State() SorterState { return s.state }

// Scan runs one controller scan. nextJob is the job at the head of the
// sorter queue, zero if none. The caller must dequeue the job shown in
// StoredJob once it is reported stored.
func (s *SorterFSM) Scan(nextJob uint64, now sim.VTimeInSec) SorterOutputs {
	o := SorterOutputs{}

	switch s.state {
	case SorterIdle:
		if nextJob != 0 && s.unit.Ready() {
			if lane, ok := s.picker.PickLane(); ok {
				s.currentJob = nextJob
				s.targetLane = lane
				s.guard.Update(true, now)
				s.state = SorterTransfer
			}
		}

	case SorterTransfer:
		o.Busy = true
		s.guard.Update(true, now)

		switch {
		case s.unit.Complete():
			o.Busy = false
			o.StoredJob = s.currentJob
			o.StoredLane = s.targetLane
			s.currentJob = 0
			s.targetLane = 0
			s.guard.Update(false, now)
			s.state = SorterIdle

		case s.guard.Done:
			o.Busy = false
			o.Abandoned = true
			s.currentJob = 0
			s.targetLane = 0
			s.guard.Update(false, now)
			s.state = SorterIdle
		}
	}

	s.unit.Step(s.state == SorterTransfer, now)

	return o
}
