package transport

import (
	"log"
	"math"
	"math/rand"
)

// A Carrier is a physical transport fixture riding a recirculating loop. A
// job may be bound to it; a LoadID of zero means the carrier is empty.
type Carrier struct {
	ID     int
	Pos    float64
	LoadID uint64

	// jitter scales the commanded loop speed to model slack between
	// fixtures. Fixed at creation.
	jitter float64
}

// A CarrierLoop is a closed loop of carriers moving at a commanded speed.
// It answers presence-zone queries at fixed equipment positions and binds
// jobs to its carriers.
type CarrierLoop struct {
	name     string
	length   float64
	zone     float64
	carriers []*Carrier
}

// NewCarrierLoop creates a loop with the given circumference and presence
// zone half-width, both in meters.
func NewCarrierLoop(name string, length, zone float64) *CarrierLoop {
	if length <= 0 {
		log.Panicf("carrier loop %s must have a positive length", name)
	}

	return &CarrierLoop{
		name:   name,
		length: length,
		zone:   zone,
	}
}

// AddCarriers evenly distributes count carriers around the loop. Each
// carrier gets a speed jitter factor of 1±jitter drawn from r.
func (l *CarrierLoop) AddCarriers(count int, jitter float64, r *rand.Rand) {
	for i := 0; i < count; i++ {
		l.carriers = append(l.carriers, &Carrier{
			ID:     i + 1,
			Pos:    math.Mod(float64(i)*(l.length/float64(count)), l.length),
			jitter: 1 + (r.Float64()*2-1)*jitter,
		})
	}
}

// Name returns the loop name.
func (l *CarrierLoop) Name() string { return l.name }

// Carriers returns all carriers on the loop.
func (l *CarrierLoop) Carriers() []*Carrier { return l.carriers }

// Carrier returns the carrier with the given ID, or nil.
func (l *CarrierLoop) Carrier(id int) *Carrier {
	for _, c := range l.carriers {
		if c.ID == id {
			return c
		}
	}

	return nil
}

// NumLoaded returns how many carriers currently bear a job.
func (l *CarrierLoop) NumLoaded() int {
	n := 0
	for _, c := range l.carriers {
		if c.LoadID != 0 {
			n++
		}
	}

	return n
}

// Step advances every carrier by its jittered share of speed*dt, wrapping
// around the loop.
func (l *CarrierLoop) Step(dt, speed float64) {
	for _, c := range l.carriers {
		c.Pos = math.Mod(c.Pos+speed*c.jitter*dt, l.length)
	}
}

func (l *CarrierLoop) ringDist(a, b float64) float64 {
	d := math.Mod(a-b+l.length, l.length)
	return math.Min(d, l.length-d)
}

// PresenceAt reports whether a carrier is within the presence zone of the
// given position, and which one. With several carriers in the zone the
// nearest wins.
func (l *CarrierLoop) PresenceAt(pos float64) (bool, *Carrier) {
	var nearest *Carrier
	best := math.Inf(1)

	for _, c := range l.carriers {
		if d := l.ringDist(c.Pos, pos); d < best {
			best = d
			nearest = c
		}
	}

	if nearest == nil || best > l.zone {
		return false, nil
	}

	return true, nearest
}

// BindNearestFree binds a job to the nearest free carrier within the
// presence zone of pos. It returns the carrier, or nil if no free carrier is
// in range.
func (l *CarrierLoop) BindNearestFree(pos float64, loadID uint64) *Carrier {
	var nearest *Carrier
	best := math.Inf(1)

	for _, c := range l.carriers {
		if c.LoadID != 0 {
			continue
		}
		if d := l.ringDist(c.Pos, pos); d < best {
			best = d
			nearest = c
		}
	}

	if nearest == nil || best > l.zone {
		return nil
	}

	nearest.LoadID = loadID

	return nearest
}

// Unbind clears the job bound to the given carrier and returns the job ID
// that was bound, or zero.
func (l *CarrierLoop) Unbind(carrierID int) uint64 {
	c := l.Carrier(carrierID)
	if c == nil {
		return 0
	}

	id := c.LoadID
	c.LoadID = 0

	return id
}
