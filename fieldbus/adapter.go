package fieldbus

import "log/slog"

// An Adapter wraps a Device so that field failures can never stall the tick
// loop. Failed writes are logged and dropped; failed reads are logged and
// answered with the last value successfully read or written for that key,
// treating the point as "value unknown this tick".
type Adapter struct {
	device Device
	logger *slog.Logger

	lastKnown map[string]bool
}

// NewAdapter creates an adapter around the given device.
func NewAdapter(device Device, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		device:    device,
		logger:    logger,
		lastKnown: make(map[string]bool),
	}
}

// ReadBool reads a point, falling back to the last known value on failure.
func (a *Adapter) ReadBool(key string) bool {
	v, err := a.device.ReadBool(key)
	if err != nil {
		a.logger.Warn("field read failed, using last known value",
			"key", key, "err", err)
		return a.lastKnown[key]
	}

	a.lastKnown[key] = v

	return v
}

// WriteBool writes a point. Failures are logged; the value is remembered as
// last known either way so that subsequent failed reads stay consistent
// with the core's view.
func (a *Adapter) WriteBool(key string, value bool) {
	a.lastKnown[key] = value

	if err := a.device.WriteBool(key, value); err != nil {
		a.logger.Warn("field write failed", "key", key, "err", err)
	}
}
