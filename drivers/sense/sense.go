// Package sense provides the analog inputs of the light: battery voltage,
// temperature and the off-time capacitor.
package sense

import "sync/atomic"

// Trace replays a fixed sequence of readings and then holds the last one.
// It serves as a voltage or a temperature sampler.
type Trace struct {
	vals []uint8
	i    int
}

func NewTrace(vals ...uint8) *Trace { return &Trace{vals: vals} }

func (t *Trace) next() uint8 {
	if len(t.vals) == 0 {
		return 0
	}
	v := t.vals[t.i]
	if t.i < len(t.vals)-1 {
		t.i++
	}
	return v
}

func (t *Trace) ReadVoltage() uint8     { return t.next() }
func (t *Trace) ReadTemperature() uint8 { return t.next() }

// Knob is a reading another goroutine can turn, e.g. from a simulator key.
type Knob struct {
	v atomic.Uint32
}

func NewKnob(v uint8) *Knob {
	k := &Knob{}
	k.Set(v)
	return k
}

func (k *Knob) Set(v uint8) { k.v.Store(uint32(v)) }
func (k *Knob) Get() uint8  { return uint8(k.v.Load()) }

// Add moves the reading by d, saturating at 0 and 255.
func (k *Knob) Add(d int) uint8 {
	for {
		old := k.v.Load()
		n := int(old) + d
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		if k.v.CompareAndSwap(old, uint32(n)) {
			return uint8(n)
		}
	}
}

func (k *Knob) ReadVoltage() uint8     { return k.Get() }
func (k *Knob) ReadTemperature() uint8 { return k.Get() }
