package sense

import (
	"sync"
	"time"
)

// DecayClock models the off-time capacitor: full charge while powered,
// draining linearly to zero over Full once power is cut.
type DecayClock struct {
	mu    sync.Mutex
	Full  time.Duration
	now   func() time.Time
	cutAt time.Time
	off   bool
}

func NewDecayClock(full time.Duration) *DecayClock {
	return &DecayClock{Full: full, now: time.Now}
}

// SetClock replaces the time source; simulators advance a virtual clock
// across a power cut.
func (d *DecayClock) SetClock(now func() time.Time) {
	d.mu.Lock()
	d.now = now
	d.mu.Unlock()
}

// PowerOff marks the moment power went away.
func (d *DecayClock) PowerOff() {
	d.mu.Lock()
	d.cutAt, d.off = d.now(), true
	d.mu.Unlock()
}

// ReadDecay is the charge left, 255 for an instant cut and 0 once Full
// has elapsed or before any cut.
func (d *DecayClock) ReadDecay() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.off || d.Full <= 0 {
		return 0
	}
	el := d.now().Sub(d.cutAt)
	if el >= d.Full {
		return 0
	}
	if el < 0 {
		el = 0
	}
	return uint8(255 - int64(el)*255/int64(d.Full))
}

// Clear recharges the capacitor.
func (d *DecayClock) Clear() {
	d.mu.Lock()
	d.off = false
	d.mu.Unlock()
}
