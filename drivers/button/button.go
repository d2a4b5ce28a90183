// Package button reads the light's switch.
package button

import "sync/atomic"

// Manual is a switch set by software: a simulator key or a test.
type Manual struct {
	down atomic.Bool
}

func (m *Manual) Set(pressed bool) { m.down.Store(pressed) }
func (m *Manual) Pressed() bool    { return m.down.Load() }

// Toggle flips the switch and returns the new level.
func (m *Manual) Toggle() bool {
	for {
		old := m.down.Load()
		if m.down.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
