package monitoring

import (
	"sync"

	"github.com/rs/xid"
)

// A ProgressBar tracks how much of a long-running action is completed.
type ProgressBar struct {
	lock sync.Mutex

	ID         string `json:"id"`
	Name       string `json:"name"`
	StartTime  int64  `json:"start_time"`
	Total      uint64 `json:"total"`
	InProgress uint64 `json:"in_progress"`
	Finished   uint64 `json:"finished"`
}

// CreateProgressBar creates a new progress bar to be shown on the status
// page.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:    xid.New().String(),
		Name:  name,
		Total: total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the status page.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// MoveToInProgress marks some units as dispatched.
func (b *ProgressBar) MoveToInProgress(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress += amount
}

// MoveToFinished marks some units as completed.
func (b *ProgressBar) MoveToFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.InProgress >= amount {
		b.InProgress -= amount
	} else {
		b.InProgress = 0
	}

	b.Finished += amount
}
