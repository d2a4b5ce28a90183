package sense

import (
	"context"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"

	"lightcode-go/x/logx"
	"lightcode-go/x/mathx"
)

// SHTC3 polls the sensor off the tick interrupt and serves the latest
// whole-degree reading. Until the first poll it reads 0.
type SHTC3 struct {
	dev  shtc3.Device
	last atomic.Uint32
}

func NewSHTC3(bus drivers.I2C) *SHTC3 {
	return &SHTC3{dev: shtc3.New(bus)}
}

// Poll takes one measurement.
func (s *SHTC3) Poll() error {
	if err := s.dev.WakeUp(); err != nil {
		return err
	}
	mc, err := s.dev.ReadTemperature()
	_ = s.dev.Sleep()
	if err != nil {
		return err
	}
	s.last.Store(uint32(mathx.Clamp(mc/1000, 0, 255)))
	return nil
}

// Run polls every period until ctx is done.
func (s *SHTC3) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		if err := s.Poll(); err != nil {
			logx.Warn("sense: shtc3: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *SHTC3) ReadTemperature() uint8 { return uint8(s.last.Load()) }
