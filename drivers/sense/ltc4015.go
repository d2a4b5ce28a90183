package sense

import (
	"context"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"lightcode-go/x/logx"
	"lightcode-go/x/mathx"
)

// VBAT reads per cell; the scale is for lithium chemistries.
const (
	LTC4015Address = 0x68
	ltcRegVBAT     = 0x3A
	ltcVBATnV      = 192264 // per LSB
)

// DefaultFullScaleMV maps per-cell millivolts onto the 8-bit reading of a
// 1.1 V reference behind a 19.1k/4.7k divider, the scale the built-in
// profile thresholds use.
const DefaultFullScaleMV = 5570

// LTC4015 serves the charger's battery voltage as a regulation sample on
// lights that charge in place. Like SHTC3 it is polled off the tick
// interrupt; until the first poll it reads 0.
type LTC4015 struct {
	bus         drivers.I2C
	addr        uint16
	fullScaleMV uint32
	last        atomic.Uint32
	w           [1]byte
	r           [2]byte
}

// NewLTC4015 checks that the charger answers. A zero fullScaleMV uses
// DefaultFullScaleMV.
func NewLTC4015(bus drivers.I2C, fullScaleMV uint32) (*LTC4015, error) {
	d := &LTC4015{bus: bus, addr: LTC4015Address, fullScaleMV: fullScaleMV}
	if d.fullScaleMV == 0 {
		d.fullScaleMV = DefaultFullScaleMV
	}
	if _, err := d.word(ltcRegVBAT); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *LTC4015) word(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:], d.r[:]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

// Poll reads VBAT once.
func (d *LTC4015) Poll() error {
	raw, err := d.word(ltcRegVBAT)
	if err != nil {
		return err
	}
	mv := uint32(uint64(raw) * ltcVBATnV / 1_000_000)
	d.last.Store(mathx.Min(mv*255/d.fullScaleMV, 255))
	return nil
}

// Run polls every period until ctx is done.
func (d *LTC4015) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		if err := d.Poll(); err != nil {
			logx.Warn("sense: ltc4015: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (d *LTC4015) ReadVoltage() uint8 { return uint8(d.last.Load()) }
