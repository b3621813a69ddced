package plant

import "github.com/sortlab/sortline/sim"

// A Snapshot is a consistent view of the line state after a tick. It is
// safe to read while the tick loop runs.
type Snapshot struct {
	Time sim.VTimeInSec `json:"time"`
	Mode string         `json:"mode"`

	Created   uint64 `json:"created"`
	Completed uint64 `json:"completed"`

	InLoop       int `json:"in_loop"`
	InBelts      int `json:"in_belts"`
	InDrain      int `json:"in_drain"`
	InHold       int `json:"in_hold"`
	InFeedQueue  int `json:"in_feed_queue"`
	OnUnloadLoop int `json:"on_unload_loop"`
	InSortQueue  int `json:"in_sort_queue"`
	InLanes      int `json:"in_lanes"`

	WaitingJobs    int     `json:"waiting_jobs"`
	PendingLoads   []int   `json:"pending_loads"`
	LaneOccupancy  []int   `json:"lane_occupancy"`
	DrainBeltSpeed float64 `json:"drain_belt_speed"`
	DrainLineSpeed float64 `json:"drain_line_speed"`
}

// Snapshot captures the current line state.
func (p *Plant) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Time: p.ctx.Now(),
		Mode: p.mode.Mode().String(),

		Created:   p.ctx.NumItemsCreated(),
		Completed: p.completed,

		InLoop:       p.intakeLoop.NumItems(),
		InBelts:      p.grid.NumItems(),
		InDrain:      p.drainLine.NumItems(),
		InHold:       p.holdLine.NumItems(),
		InFeedQueue:  p.feedQueue.Size(),
		OnUnloadLoop: len(p.riding),
		InSortQueue:  p.sortQueue.Size(),
		InLanes:      len(p.stored),

		WaitingJobs:  p.sched.Len(),
		PendingLoads: append([]int(nil), p.pending...),
	}

	s.DrainBeltSpeed, s.DrainLineSpeed = p.mode.DrainSpeeds()

	for _, lane := range p.lanes {
		s.LaneOccupancy = append(s.LaneOccupancy, lane.Size())
	}

	return s
}
