// Package pwmout drives the output channels: RP2 PWM slices on hardware and
// a recording driver for tests and the simulator.
package pwmout

import (
	"sync"

	"lightcode-go/light/output"
)

// Recorder is an output.Driver that remembers what was written.
type Recorder struct {
	mu      sync.Mutex
	duty    [output.MaxChannels]uint8
	writes  int
	changes int
}

func (r *Recorder) SetChannelDuty(ch int, duty uint8) {
	if ch < 0 || ch >= output.MaxChannels {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.duty[ch] != duty {
		r.changes++
	}
	r.duty[ch] = duty
}

// Duties is the last physical duty per channel.
func (r *Recorder) Duties() output.Duties {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duty
}

// Writes counts every SetChannelDuty call; Changes only those that moved a
// channel.
func (r *Recorder) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *Recorder) Changes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes
}
