// Package dispatch decides which waiting job is serviced next at the depot
// and models the buffered output lanes.
package dispatch

import "github.com/sortlab/sortline/sim"

// A Job is an entry in the scheduler's waiting set: a loaded carrier
// circulating past the depot, waiting to be serviced.
type Job struct {
	ID        uint64
	Carrier   int
	CreatedAt sim.VTimeInSec
	Laps      int
}

// A Scheduler picks the next job to service at the depot. The policy is
// LIFO with starvation avoidance: jobs whose lap count reached the aging
// threshold are served oldest-first before any fresh job; otherwise the
// most recently created job wins, favoring throughput of new work.
type Scheduler struct {
	agingThreshold int
	jobs           []*Job
}

// NewScheduler creates a scheduler that considers a job aged once its lap
// count reaches the given threshold.
func NewScheduler(agingThreshold int) *Scheduler {
	return &Scheduler{agingThreshold: agingThreshold}
}

// Add registers a job in the waiting set.
func (s *Scheduler) Add(j *Job) {
	s.jobs = append(s.jobs, j)
}

// Len returns the waiting set size.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}

// Jobs returns the waiting set. The slice must not be mutated.
func (s *Scheduler) Jobs() []*Job {
	return s.jobs
}

// PickNext returns the job to service next, or nil if none is waiting.
func (s *Scheduler) PickNext() *Job {
	if len(s.jobs) == 0 {
		return nil
	}

	var oldestAged *Job
	var freshest *Job

	for _, j := range s.jobs {
		if j.Laps >= s.agingThreshold {
			if oldestAged == nil || j.CreatedAt < oldestAged.CreatedAt {
				oldestAged = j
			}
			continue
		}

		if freshest == nil || j.CreatedAt > freshest.CreatedAt {
			freshest = j
		}
	}

	if oldestAged != nil {
		return oldestAged
	}

	return freshest
}

// OnCarrierPassedDepot increments the lap count of every waiting job bound
// to the given carrier. The caller must not report the carrier of the job
// just serviced.
func (s *Scheduler) OnCarrierPassedDepot(carrierID int) {
	for _, j := range s.jobs {
		if j.Carrier == carrierID {
			j.Laps++
		}
	}
}

// Remove evicts a serviced job from the waiting set.
func (s *Scheduler) Remove(jobID uint64) {
	for i, j := range s.jobs {
		if j.ID == jobID {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}
