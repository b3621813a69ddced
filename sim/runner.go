package sim

import (
	"sync"
	"time"
)

// A Ticker is an object that updates simulation state with fixed-size ticks.
type Ticker interface {
	Tick(now VTimeInSec)
}

// A TickRunner drives a Ticker at a fixed rate. Each iteration advances the
// simulation clock by one period, runs the tick, and sleeps for whatever is
// left of the period's wall-clock budget. The pacing is best effort: a slow
// tick consumes the next tick's slack instead of blocking.
//
// All simulation state is mutated on the goroutine that calls Run or StepN,
// never concurrently.
type TickRunner struct {
	HookableBase

	freq   Freq
	ctx    *Context
	ticker Ticker

	pauseLock    sync.Mutex
	isPaused     bool
	isPausedLock sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTickRunner creates a TickRunner that drives the given ticker at the
// given frequency.
func NewTickRunner(ctx *Context, ticker Ticker, freq Freq) *TickRunner {
	return &TickRunner{
		freq:   freq,
		ctx:    ctx,
		ticker: ticker,
		stop:   make(chan struct{}),
	}
}

// CurrentTime returns the simulation time the runner has reached.
func (r *TickRunner) CurrentTime() VTimeInSec {
	return r.ctx.Now()
}

// Freq returns the tick frequency.
func (r *TickRunner) Freq() Freq {
	return r.freq
}

// StepN runs n ticks back to back without wall-clock pacing. It is meant for
// tests and batch runs.
func (r *TickRunner) StepN(n int) {
	for i := 0; i < n; i++ {
		r.runOneTick()
	}
}

// Run drives the ticker until Stop is called, pacing ticks against the wall
// clock.
func (r *TickRunner) Run() {
	period := time.Duration(float64(r.freq.Period()) * float64(time.Second))

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		start := time.Now()
		r.runOneTick()

		remaining := period - time.Since(start)
		if remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (r *TickRunner) runOneTick() {
	r.pauseLock.Lock()
	defer r.pauseLock.Unlock()

	r.ctx.Advance(r.freq.Period())
	now := r.ctx.Now()

	r.InvokeHook(HookCtx{Domain: r, Pos: HookPosBeforeTick, Item: now})
	r.ticker.Tick(now)
	r.InvokeHook(HookCtx{Domain: r, Pos: HookPosAfterTick, Item: now})
}

// Pause prevents the runner from starting more ticks until Continue is
// called. The tick in flight, if any, completes first.
func (r *TickRunner) Pause() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if r.isPaused {
		return
	}

	r.pauseLock.Lock()
	r.isPaused = true
}

// Continue allows a paused runner to tick again.
func (r *TickRunner) Continue() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if !r.isPaused {
		return
	}

	r.pauseLock.Unlock()
	r.isPaused = false
}

// Stop terminates Run after the current tick. It is safe to call more than
// once.
func (r *TickRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}
