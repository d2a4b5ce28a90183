// Package modes holds mode groups, ramp tables and the UI state machine.
package modes

import (
	"lightcode-go/errcode"
	"lightcode-go/light/output"
	"lightcode-go/x/ramp"
)

// Special selects a pattern instead of a steady duty.
type Special uint8

const (
	NoSpecial Special = iota
	Strobe
	Beacon
	BikingStrobe
	BattCheck
	Timer
	GroupBlink
)

var specialNames = [...]string{"", "strobe", "beacon", "biking_strobe", "battcheck", "timer", "group_blink"}

func (s Special) String() string {
	if int(s) < len(specialNames) {
		return specialNames[s]
	}
	return "unknown"
}

// ParseSpecial is the inverse of String. The empty string is NoSpecial.
func ParseSpecial(s string) (Special, bool) {
	for i, n := range specialNames {
		if n == s {
			return Special(i), true
		}
	}
	return NoSpecial, false
}

// Level is one selectable output: a direct duty per channel, a 1-based ramp
// position, or a special pattern. Ramp and Special take precedence over Duty.
type Level struct {
	Duty    output.Duties
	Ramp    uint8
	Special Special
}

// D is a direct-duty level.
func D(duties ...uint8) Level {
	var l Level
	copy(l.Duty[:], duties)
	return l
}

// R is a ramp-position level.
func R(pos uint8) Level { return Level{Ramp: pos} }

// S is a special-pattern level.
func S(k Special) Level { return Level{Special: k} }

func (l Level) IsSpecial() bool { return l.Special != NoSpecial }

func (l Level) isSentinel() bool {
	return l.Special == NoSpecial && l.Ramp == 0 && l.Duty.IsOff()
}

// RampTable is a per-channel brightness curve. All channels have the same
// length and each never decreases.
type RampTable struct {
	Channels [][]uint8
}

// NewRamp validates and wraps channel curves.
func NewRamp(channels ...[]uint8) (RampTable, error) {
	r := RampTable{Channels: channels}
	return r, r.Validate()
}

// Len is the number of ramp positions; 0 means ramping is unavailable.
func (r RampTable) Len() int {
	if len(r.Channels) == 0 {
		return 0
	}
	return len(r.Channels[0])
}

func (r RampTable) Validate() error {
	if len(r.Channels) == 0 {
		return nil
	}
	if len(r.Channels) > output.MaxChannels {
		return &errcode.E{C: errcode.InvalidParams, Op: "modes.ramp", Msg: "too many channels"}
	}
	n := len(r.Channels[0])
	if n == 0 || n > 255 {
		return &errcode.E{C: errcode.OutOfRange, Op: "modes.ramp", Msg: "length must be 1..255"}
	}
	for _, ch := range r.Channels {
		if len(ch) != n {
			return &errcode.E{C: errcode.RampLengthSkew, Op: "modes.ramp"}
		}
		if !ramp.Monotonic(ch) {
			return &errcode.E{C: errcode.RampNotMonotonic, Op: "modes.ramp"}
		}
	}
	return nil
}

// At returns the duties at a 1-based position, clamped to the table.
func (r RampTable) At(pos uint8) output.Duties {
	var d output.Duties
	n := r.Len()
	if n == 0 {
		return d
	}
	i := int(pos) - 1
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	for ch, curve := range r.Channels {
		d[ch] = curve[i]
	}
	return d
}

// Nearest returns the first position whose brightest channel reaches the
// brightest channel of d, or the top position if none does.
func (r RampTable) Nearest(d output.Duties) uint8 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	want := d.Max()
	for i := 1; i <= n; i++ {
		if r.At(uint8(i)).Max() >= want {
			return uint8(i)
		}
	}
	return uint8(n)
}

// DecodeTable reads a zero-terminated compact duty table. The terminator
// must be present exactly once, as the last byte.
func DecodeTable(tbl []uint8) ([]uint8, error) {
	for i, v := range tbl {
		if v != 0 {
			continue
		}
		if i != len(tbl)-1 {
			return nil, &errcode.E{C: errcode.TrailingData, Op: "modes.decode"}
		}
		if i == 0 {
			return nil, &errcode.E{C: errcode.EmptyGroup, Op: "modes.decode"}
		}
		return tbl[:i], nil
	}
	return nil, &errcode.E{C: errcode.MissingTerminator, Op: "modes.decode"}
}
