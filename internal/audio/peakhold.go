package audio

import (
	"math"
	"time"
)

// DefaultPeakHoldDuration is the default duration that peak values are
// held before falling back to the current level.
const DefaultPeakHoldDuration = 3000 * time.Millisecond

// PeakHolder keeps the highest normalized level for a hold duration so
// short transients stay visible on the meter. It is owned by the single
// processing path and performs no locking.
type PeakHolder struct {
	held         float64
	heldAt       time.Time
	holdDuration time.Duration
}

// NewPeakHolder creates a peak holder with the given hold duration.
// A non-positive duration falls back to the default.
func NewPeakHolder(hold time.Duration) *PeakHolder {
	if hold <= 0 {
		hold = DefaultPeakHoldDuration
	}
	return &PeakHolder{
		held:         math.Inf(-1),
		holdDuration: hold,
	}
}

// Update records the level of one buffer and returns the currently held
// peak. The held value is replaced when the new level reaches it or when
// the hold duration has expired.
func (p *PeakHolder) Update(level float64, now time.Time) float64 {
	if level >= p.held || now.Sub(p.heldAt) > p.holdDuration {
		p.held = level
		p.heldAt = now
	}
	return p.held
}
