package sim

import (
	"log"
	"math/rand"
)

// A Context owns the process-wide mutable state of one simulation run: the
// simulation clock, the item ID counter, and the random source. Components
// receive a Context explicitly instead of reaching for globals, so two runs
// with the same seed are bit-for-bit repeatable.
type Context struct {
	now    VTimeInSec
	nextID uint64
	rand   *rand.Rand
}

// MakeContext creates a Context with the clock at zero and the random source
// seeded with the given seed.
func MakeContext(seed int64) *Context {
	return &Context{
		nextID: 1,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Now returns the current simulation time.
func (c *Context) Now() VTimeInSec {
	return c.now
}

// CurrentTime returns the current simulation time. It makes Context a
// TimeTeller.
func (c *Context) CurrentTime() VTimeInSec {
	return c.now
}

// Advance moves the simulation clock forward by dt.
func (c *Context) Advance(dt VTimeInSec) {
	if dt < 0 {
		log.Panic("cannot advance the clock backward")
	}
	c.now += dt
}

// NextItemID returns a fresh, monotonically increasing item ID.
func (c *Context) NextItemID() uint64 {
	id := c.nextID
	c.nextID++
	return id
}

// NumItemsCreated returns how many IDs have been handed out so far.
func (c *Context) NumItemsCreated() uint64 {
	return c.nextID - 1
}

// Rand returns the simulation's random source.
func (c *Context) Rand() *rand.Rand {
	return c.rand
}

// Reset moves the clock back to zero, restarts the ID sequence, and reseeds
// the random source.
func (c *Context) Reset(seed int64) {
	c.now = 0
	c.nextID = 1
	c.rand = rand.New(rand.NewSource(seed))
}
