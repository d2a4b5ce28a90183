package eeprom

import (
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// WriteCycle is the AT24 internal write time; the part ignores the bus
// until it has passed.
const WriteCycle = 5 * time.Millisecond

// AT24 exposes a window of an AT24Cxx EEPROM as cells. Erasing a cell
// writes 0xFF.
type AT24 struct {
	dev   at24cx.Device
	base  uint16
	size  int
	sleep func(time.Duration)
}

// NewAT24 uses size bytes starting at base. addr 0 selects the default
// device address.
func NewAT24(bus drivers.I2C, addr uint16, base uint16, size int) *AT24 {
	dev := at24cx.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	dev.Configure(at24cx.Config{})
	return &AT24{dev: dev, base: base, size: size, sleep: time.Sleep}
}

func (a *AT24) Len() int { return a.size }

func (a *AT24) ReadCell(i int) (byte, error) {
	if i < 0 || i >= a.size {
		return 0, ErrRange
	}
	return a.dev.ReadByte(a.base + uint16(i))
}

func (a *AT24) WriteCell(i int, b byte) error {
	if i < 0 || i >= a.size {
		return ErrRange
	}
	if err := a.dev.WriteByte(a.base+uint16(i), b); err != nil {
		return err
	}
	a.sleep(WriteCycle)
	return nil
}

func (a *AT24) EraseCell(i int) error { return a.WriteCell(i, erased) }
