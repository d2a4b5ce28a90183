// Package regulate watches battery voltage and temperature and decides
// when the output must step down or shut off. Stepdowns are transient and
// never persisted.
package regulate

import (
	"sync/atomic"

	"lightcode-go/errcode"
	"lightcode-go/x/strconvx"
)

// Sampler reads the battery voltage as a raw 8-bit ADC value.
type Sampler interface {
	ReadVoltage() uint8
}

// ThermalSampler reads the driver temperature as a raw 8-bit value.
type ThermalSampler interface {
	ReadTemperature() uint8
}

type Config struct {
	LowVoltage   uint8  // readings below this count as low
	Critical     uint8  // debounced readings below this shut off at any level; 0 disables
	LowDebounce  uint8  // consecutive low ticks per stepdown window
	StepGapTicks uint32 // minimum ticks between voltage stepdowns

	PlausibleMin uint8 // readings outside [PlausibleMin, PlausibleMax] are glitches
	PlausibleMax uint8
	MaxJump      uint8 // a larger jump from the last accepted value is a glitch; 0 disables

	TempTarget        uint8  // step down above this; 0 disables thermal regulation
	TempHysteresis    uint8  // step back up once below TempTarget-TempHysteresis
	ThermalTicks      uint32 // ticks between thermal adjustments
	MinTurboTicks     uint32 // no thermal stepdown sooner than this after a level change
	TurboTimeoutTicks uint32 // timed turbo stepdown when no thermal sensor exists; 0 disables
}

// DefaultConfig follows a 16 ms tick and an 8-bit ADC on a 1S cell.
func DefaultConfig() Config {
	return Config{
		LowVoltage:        129,
		Critical:          124,
		LowDebounce:       4,
		StepGapTicks:      62,
		PlausibleMin:      40,
		PlausibleMax:      250,
		MaxJump:           40,
		TempTarget:        0,
		TempHysteresis:    5,
		ThermalTicks:      125,
		MinTurboTicks:     1875,
		TurboTimeoutTicks: 7500,
	}
}

func (c Config) Validate() error {
	if c.LowDebounce == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "regulate.config", Msg: "low_debounce must be > 0"}
	}
	if c.PlausibleMax < c.PlausibleMin {
		return &errcode.E{C: errcode.InvalidParams, Op: "regulate.config", Msg: "plausible range inverted"}
	}
	if c.Critical > c.LowVoltage {
		return &errcode.E{C: errcode.InvalidParams, Op: "regulate.config", Msg: "critical above low voltage"}
	}
	if c.TempTarget > 0 && c.ThermalTicks == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "regulate.config", Msg: "thermal_ticks must be > 0"}
	}
	return nil
}

type Decision uint8

const (
	Steady Decision = iota
	StepDown
	StepUp
	Shutoff
)

func (d Decision) String() string {
	switch d {
	case StepDown:
		return "step_down"
	case StepUp:
		return "step_up"
	case Shutoff:
		return "shutoff"
	}
	return "steady"
}

// Input is what the monitor needs to know about the output each tick.
type Input struct {
	On      bool // output is lit
	AtFloor bool // no further stepdown exists for the current level
	Turbo   bool // the turbo level is selected
}

// State is a snapshot for telemetry.
type State struct {
	Voltage     uint8
	Temperature uint8
	VoltSteps   uint8
	ThermSteps  uint8
	LowCount    uint8
	Shutoff     bool
	Glitches    uint32
}

// Monitor is ticked from the timer interrupt. Steps, Shutdown and Snapshot
// may be read concurrently from the main loop; ResetSteps may be called
// from it.
type Monitor struct {
	cfg   Config
	volt  Sampler
	therm ThermalSampler

	vf, tf glitchFilter

	voltage    uint8
	temp       uint8
	voltSteps  uint8
	thermSteps uint8
	lowCount   uint8
	shutoff    bool
	sinceStep  uint32
	sinceLevel uint32
	thermTick  uint32
	stepped    bool
	tfSeen     uint32

	reset   atomic.Bool
	out     atomic.Uint64
	glitchN atomic.Uint32
	glitch  atomic.Uint32 // last dropped reading: value | sensor<<8 | 1<<16
}

// NewMonitor builds a monitor. therm may be nil.
func NewMonitor(cfg Config, v Sampler, therm ThermalSampler) *Monitor {
	m := &Monitor{cfg: cfg, volt: v, therm: therm}
	m.vf = glitchFilter{min: cfg.PlausibleMin, max: cfg.PlausibleMax, maxJump: cfg.MaxJump}
	m.tf = glitchFilter{min: 0, max: 255, maxJump: cfg.MaxJump}
	return m
}

// ResetSteps forgets all stepdowns and any shutoff, e.g. after the user
// picks a new level or wakes the light.
func (m *Monitor) ResetSteps() { m.reset.Store(true) }

// Steps is the total number of active stepdowns. It reads 0 while a reset
// is waiting for the next Tick.
func (m *Monitor) Steps() int {
	if m.reset.Load() {
		return 0
	}
	s := m.Snapshot()
	return int(s.VoltSteps) + int(s.ThermSteps)
}

// Shutdown reports a latched shutoff.
func (m *Monitor) Shutdown() bool { return m.Snapshot().Shutoff }

func (m *Monitor) Snapshot() State {
	v := m.out.Load()
	return State{
		Voltage:     uint8(v),
		Temperature: uint8(v >> 8),
		VoltSteps:   uint8(v >> 16),
		ThermSteps:  uint8(v >> 24),
		LowCount:    uint8(v >> 32),
		Shutoff:     v>>40&1 != 0,
		Glitches:    m.glitchN.Load(),
	}
}

func (m *Monitor) publish() {
	v := uint64(m.voltage) | uint64(m.temp)<<8 | uint64(m.voltSteps)<<16 |
		uint64(m.thermSteps)<<24 | uint64(m.lowCount)<<32
	if m.shutoff {
		v |= 1 << 40
	}
	m.out.Store(v)
	if n := m.vf.count + m.tf.count; n != m.glitchN.Load() {
		g := uint32(m.vf.last) | 1<<16
		if m.tf.count != m.tfSeen {
			g = uint32(m.tf.last) | 1<<8 | 1<<16
		}
		m.tfSeen = m.tf.count
		m.glitch.Store(g)
		m.glitchN.Store(n)
	}
}

// LastGlitch describes the most recently dropped reading as a
// SensorGlitch error, or nil when none was dropped.
func (m *Monitor) LastGlitch() error {
	g := m.glitch.Load()
	if g == 0 {
		return nil
	}
	op := "regulate.voltage"
	if g&(1<<8) != 0 {
		op = "regulate.temperature"
	}
	return &errcode.E{C: errcode.SensorGlitch, Op: op, Msg: "dropped reading " + strconvx.Itoa(int(uint8(g)))}
}

// Tick samples the sensors and returns at most one decision.
func (m *Monitor) Tick(in Input) Decision {
	defer m.publish()

	if m.reset.Swap(false) {
		m.voltSteps, m.thermSteps, m.lowCount = 0, 0, 0
		m.shutoff, m.stepped = false, false
		m.sinceLevel, m.thermTick = 0, 0
	}
	if m.volt == nil {
		return Steady
	}
	v, ok := m.vf.accept(m.volt.ReadVoltage())
	if !ok {
		return Steady
	}
	m.voltage = v
	if !in.On || m.shutoff {
		m.lowCount = 0
		return Steady
	}
	if m.sinceStep < ^uint32(0) {
		m.sinceStep++
	}
	if m.sinceLevel < ^uint32(0) {
		m.sinceLevel++
	}
	if d := m.voltagePolicy(v, in); d != Steady {
		return d
	}
	return m.thermalPolicy(in)
}

func (m *Monitor) voltagePolicy(v uint8, in Input) Decision {
	if v >= m.cfg.LowVoltage {
		m.lowCount = 0
		return Steady
	}
	m.lowCount++
	if m.lowCount < m.cfg.LowDebounce {
		return Steady
	}
	m.lowCount = 0
	if m.cfg.Critical > 0 && v < m.cfg.Critical {
		m.shutoff = true
		return Shutoff
	}
	if m.stepped && m.sinceStep < m.cfg.StepGapTicks {
		return Steady
	}
	if in.AtFloor {
		m.shutoff = true
		return Shutoff
	}
	m.voltSteps++
	m.sinceStep, m.stepped = 0, true
	return StepDown
}

func (m *Monitor) thermalPolicy(in Input) Decision {
	if m.therm == nil {
		if m.cfg.TurboTimeoutTicks > 0 && in.Turbo && m.thermSteps == 0 &&
			m.sinceLevel >= m.cfg.TurboTimeoutTicks && !in.AtFloor {
			m.thermSteps = 1
			return StepDown
		}
		return Steady
	}
	if m.cfg.TempTarget == 0 {
		return Steady
	}
	m.thermTick++
	if m.thermTick < m.cfg.ThermalTicks {
		return Steady
	}
	m.thermTick = 0
	t, ok := m.tf.accept(m.therm.ReadTemperature())
	if !ok {
		return Steady
	}
	m.temp = t
	switch {
	case t > m.cfg.TempTarget && !in.AtFloor && m.sinceLevel >= m.cfg.MinTurboTicks:
		m.thermSteps++
		return StepDown
	case int(t) < int(m.cfg.TempTarget)-int(m.cfg.TempHysteresis) && m.thermSteps > 0:
		m.thermSteps--
		return StepUp
	}
	return Steady
}
