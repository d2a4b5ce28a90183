//go:build rp2040 || rp2350

package sense

import (
	"machine"

	"lightcode-go/x/mathx"
)

// ADC reads a divided battery voltage; the top 8 bits are the reading.
type ADC struct {
	adc machine.ADC
}

func NewADC(pin machine.Pin) *ADC {
	machine.InitADC()
	a := machine.ADC{Pin: pin}
	a.Configure(machine.ADCConfig{})
	return &ADC{adc: a}
}

func (a *ADC) ReadVoltage() uint8 { return uint8(a.adc.Get() >> 8) }

// DieTemp is the RP2 on-die sensor in whole degrees.
type DieTemp struct{}

func (DieTemp) ReadTemperature() uint8 {
	return uint8(mathx.Clamp(machine.ReadTemperature()/1000, 0, 255))
}

// OffTimeCap is a capacitor on pin charged while the light runs. After a
// power cut its remaining voltage tells how long the light was off.
type OffTimeCap struct {
	pin machine.Pin
	adc machine.ADC
}

func NewOffTimeCap(pin machine.Pin) *OffTimeCap {
	machine.InitADC()
	a := machine.ADC{Pin: pin}
	a.Configure(machine.ADCConfig{})
	return &OffTimeCap{pin: pin, adc: a}
}

func (c *OffTimeCap) ReadDecay() uint8 { return uint8(c.adc.Get() >> 8) }

// Clear drives the pin high so the capacitor charges while the light runs.
func (c *OffTimeCap) Clear() {
	c.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.pin.High()
}
