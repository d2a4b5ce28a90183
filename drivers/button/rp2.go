//go:build rp2040 || rp2350

package button

import "machine"

// Pin is a switch on a GPIO. With ActiveLow the input is pulled up and the
// switch shorts it to ground.
type Pin struct {
	p         machine.Pin
	activeLow bool
}

func NewPin(p machine.Pin, activeLow bool) *Pin {
	mode := machine.PinInputPulldown
	if activeLow {
		mode = machine.PinInputPullup
	}
	p.Configure(machine.PinConfig{Mode: mode})
	return &Pin{p: p, activeLow: activeLow}
}

func (b *Pin) Pressed() bool { return b.p.Get() != b.activeLow }
