package fieldbus

import "sync"

// A SimDevice is an in-memory Device for standalone runs and tests. Unknown
// keys read as false.
type SimDevice struct {
	mu     sync.RWMutex
	points map[string]bool
}

// NewSimDevice creates an empty simulated device.
func NewSimDevice() *SimDevice {
	return &SimDevice{points: make(map[string]bool)}
}

// ReadBool returns the value of a point.
func (d *SimDevice) ReadBool(key string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.points[key], nil
}

// WriteBool sets the value of a point.
func (d *SimDevice) WriteBool(key string, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.points[key] = value

	return nil
}
