//go:build rp2040 || rp2350

package pwmout

import (
	"machine"

	"lightcode-go/errcode"
	"lightcode-go/x/mathx"
)

// pwmCtrl is the part of a machine PWM slice the driver uses.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

func sliceCtrl(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

type channel struct {
	ctrl pwmCtrl
	idx  uint8
	top  uint32
}

// RP2 maps logical channels to PWM pins. Every pin runs at the same
// frequency; pins sharing a slice share its period.
type RP2 struct {
	ch []channel
}

// NewRP2 configures one PWM pin per channel.
func NewRP2(freqHz uint64, pins ...machine.Pin) (*RP2, error) {
	if len(pins) == 0 {
		return nil, errcode.InvalidParams
	}
	period := uint64(1e9) / mathx.Max(freqHz, 1)
	d := &RP2{}
	configured := map[uint8]bool{}
	for _, p := range pins {
		slice, err := machine.PWMPeripheral(p)
		if err != nil {
			return nil, err
		}
		ctrl := sliceCtrl(slice)
		if !configured[slice] {
			if err := ctrl.Configure(machine.PWMConfig{Period: period}); err != nil {
				return nil, err
			}
			configured[slice] = true
		}
		idx, err := ctrl.Channel(p)
		if err != nil {
			return nil, err
		}
		d.ch = append(d.ch, channel{ctrl: ctrl, idx: idx, top: ctrl.Top()})
	}
	return d, nil
}

// SetChannelDuty scales an 8-bit duty onto the slice's counter range.
func (d *RP2) SetChannelDuty(ch int, duty uint8) {
	if ch < 0 || ch >= len(d.ch) {
		return
	}
	c := d.ch[ch]
	c.ctrl.Set(c.idx, uint32(duty)*c.top/255)
}
