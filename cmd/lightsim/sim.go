package main

import (
	"io"
	"time"

	"lightcode-go/bus"
	"lightcode-go/drivers/button"
	"lightcode-go/drivers/eeprom"
	"lightcode-go/drivers/pwmout"
	"lightcode-go/drivers/sense"
	"lightcode-go/light/persist"
	"lightcode-go/services/config"
	"lightcode-go/services/ui"
	"lightcode-go/types"
	"lightcode-go/x/timex"
)

// storeSize is eight slots, the size of the reserved EEPROM area on the
// reference boards.
const storeSize = 8 * persist.SlotSize

type simOptions struct {
	StorePath string // empty keeps the store in RAM
	Volt      uint8
	Temp      int // <0 simulates a board without a thermal sensor
	DecayFull time.Duration
}

func defaultSimOptions() simOptions {
	return simOptions{Volt: 150, Temp: -1, DecayFull: 2 * time.Second}
}

// Sim is a light on virtual time: every Step advances the clock by one
// tick period regardless of wall time.
type Sim struct {
	p      config.Profile
	opts   simOptions
	clock  time.Time
	ticks  uint64
	cells  persist.Cells
	closer io.Closer

	Btn   button.Manual
	Volt  *sense.Knob
	Temp  *sense.Knob
	Decay *sense.DecayClock
	Drv   *pwmout.Recorder
	Bus   *bus.Bus
	ctl   *ui.Controller
}

func newSim(p config.Profile, opts simOptions) (*Sim, error) {
	s := &Sim{
		p:     p,
		opts:  opts,
		clock: time.Unix(0, 0),
		Volt:  sense.NewKnob(opts.Volt),
		Decay: sense.NewDecayClock(opts.DecayFull),
		Bus:   bus.NewBus(32),
	}
	if opts.Temp >= 0 {
		s.Temp = sense.NewKnob(uint8(opts.Temp))
	}
	s.Decay.SetClock(func() time.Time { return s.clock })

	if opts.StorePath != "" {
		f, err := eeprom.OpenFile(opts.StorePath, storeSize)
		if err != nil {
			return nil, err
		}
		s.cells, s.closer = f, f
	} else {
		s.cells = eeprom.NewMem(storeSize)
	}
	if err := s.boot(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// boot powers the board up on fresh output hardware and the kept cells.
func (s *Sim) boot() error {
	s.Drv = &pwmout.Recorder{}
	hw := ui.Hardware{
		Driver:  s.Drv,
		Cells:   s.cells,
		Voltage: s.Volt,
		Conn:    s.Bus.NewConnection("ui"),
	}
	if s.Temp != nil {
		hw.Thermal = s.Temp
	}
	if s.p.Clicky {
		hw.OffTime = s.Decay
	}
	ctl, err := ui.New(s.p, hw)
	if err != nil {
		return err
	}
	ctl.Boot()
	s.ctl = ctl
	return nil
}

func (s *Sim) Controller() *ui.Controller { return s.ctl }
func (s *Sim) Profile() config.Profile    { return s.p }
func (s *Sim) Ticks() uint64              { return s.ticks }

// Elapsed is the virtual time since the first boot.
func (s *Sim) Elapsed() time.Duration { return s.clock.Sub(time.Unix(0, 0)) }

func (s *Sim) Step() {
	s.ctl.Tick(s.Btn.Pressed())
	s.ticks++
	s.clock = s.clock.Add(timex.Period(s.p.TickMs))
}

func (s *Sim) Steps(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// TicksFor converts a duration into whole ticks, rounding up.
func (s *Sim) TicksFor(d time.Duration) int {
	return int(timex.Ticks(uint32(d.Milliseconds()), s.p.TickMs))
}

// PowerCycle cuts power for off and boots again.
func (s *Sim) PowerCycle(off time.Duration) error {
	s.Btn.Set(false)
	s.Decay.PowerOff()
	s.clock = s.clock.Add(off)
	return s.boot()
}

// Reload boots a new profile against the same store, as after reflashing.
func (s *Sim) Reload(p config.Profile) error {
	old := s.p
	s.p = p
	if err := s.boot(); err != nil {
		s.p = old
		return err
	}
	return nil
}

// State is the last published light state.
func (s *Sim) State() types.LightState {
	if m, ok := s.Bus.Retained(bus.Parse(types.TopicState)); ok {
		if st, ok := m.Payload.(types.LightState); ok {
			return st
		}
	}
	return types.LightState{}
}

// Regulation is read straight from the monitor; the bus only carries it
// when a decision is made.
func (s *Sim) Regulation() types.RegulationValue {
	st := s.ctl.Monitor().Snapshot()
	return types.RegulationValue{
		Voltage:     st.Voltage,
		Temperature: st.Temperature,
		VoltSteps:   st.VoltSteps,
		ThermSteps:  st.ThermSteps,
		Shutoff:     st.Shutoff,
		Glitches:    st.Glitches,
	}
}

func (s *Sim) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
