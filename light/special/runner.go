// Package special generates the blink patterns for non-steady modes. The
// runner is advanced one tick at a time and never blocks, so a switch event
// can cancel a pattern at tick granularity.
package special

import (
	"lightcode-go/errcode"
	"lightcode-go/light/modes"
	"lightcode-go/light/output"
	"lightcode-go/x/mathx"
)

// BattMode selects what the battery check blinks out.
type BattMode uint8

const (
	BattRaw     BattMode = iota // raw ADC reading
	BattPercent                 // 0..100 between BattEmpty and BattFull
	BattVolts                   // tenths of a volt
)

func (m BattMode) String() string {
	switch m {
	case BattPercent:
		return "percent"
	case BattVolts:
		return "volts"
	}
	return "raw"
}

// ParseBattMode accepts "raw", "percent" or "volts".
func ParseBattMode(s string) (BattMode, error) {
	switch s {
	case "", "raw":
		return BattRaw, nil
	case "percent":
		return BattPercent, nil
	case "volts":
		return BattVolts, nil
	}
	return BattRaw, &errcode.E{C: errcode.InvalidParams, Op: "special.battmode", Msg: s}
}

// Config durations are in ticks.
type Config struct {
	StrobeOn, StrobeOff uint32
	BeaconOn, BeaconOff uint32

	BikeFlashes         uint8
	BikeOn, BikeOff     uint32
	BikePause           uint32
	BikeBase            uint8 // steady duty between stutters

	BlinkOn, BlinkOff uint32 // one digit blink
	ZeroOn            uint32 // dim flash standing for a zero digit
	DigitPause        uint32 // between digit groups
	LoopPause         uint32 // before a battery readout repeats

	FlashDuty uint8
	DimDuty   uint8

	Batt       BattMode
	BattEmpty  uint8 // raw reading shown as 0 %
	BattFull   uint8 // raw reading shown as 100 %
	VoltNum    uint16
	VoltDen    uint16 // tenths of a volt = raw*VoltNum/VoltDen

	TimerMinutes     uint8
	TimerMinuteTicks uint32
}

// DefaultConfig is tuned for a 16 ms tick.
func DefaultConfig() Config {
	return Config{
		StrobeOn: 2, StrobeOff: 4,
		BeaconOn: 6, BeaconOff: 125,
		BikeFlashes: 4, BikeOn: 2, BikeOff: 4, BikePause: 60, BikeBase: 40,
		BlinkOn: 16, BlinkOff: 23, ZeroOn: 4, DigitPause: 62, LoopPause: 125,
		FlashDuty: 120, DimDuty: 8,
		Batt: BattRaw, BattEmpty: 124, BattFull: 180, VoltNum: 42, VoltDen: 180,
		TimerMinutes: 5, TimerMinuteTicks: 3750,
	}
}

// Inputs is the context a pattern starts from.
type Inputs struct {
	Voltage uint8         // raw battery reading for the battery check
	Group   int           // 0-based group for the group blink
	Level   output.Duties // steady level for strobes and the timer
}

type step struct {
	duty  output.Duties
	ticks uint32
}

type Runner struct {
	cfg  Config
	kind modes.Special

	steps    []step
	i        int
	loopFrom int // -1 ends after the last step
	refill   func() bool

	cur  output.Duties
	left uint32

	timerLeft int
	level     output.Duties
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg, loopFrom: -1}
}

// Active is the running pattern, NoSpecial when idle.
func (r *Runner) Active() modes.Special { return r.kind }

// Stop cancels the running pattern.
func (r *Runner) Stop() {
	r.kind = modes.NoSpecial
	r.steps = r.steps[:0]
	r.i, r.left, r.loopFrom = 0, 0, -1
	r.refill = nil
	r.cur = output.Off
}

// Start replaces any running pattern with k.
func (r *Runner) Start(k modes.Special, in Inputs) {
	r.Stop()
	r.kind = k
	r.level = in.Level
	if r.level.IsOff() {
		r.level = output.Single(r.cfg.FlashDuty)
	}
	c := r.cfg
	switch k {
	case modes.Strobe:
		r.add(r.level, c.StrobeOn)
		r.add(output.Off, c.StrobeOff)
		r.loopFrom = 0
	case modes.Beacon:
		r.add(r.level, c.BeaconOn)
		r.add(output.Off, c.BeaconOff)
		r.loopFrom = 0
	case modes.BikingStrobe:
		base := output.Single(c.BikeBase)
		for i := uint8(0); i < c.BikeFlashes; i++ {
			r.add(r.level, c.BikeOn)
			r.add(base, c.BikeOff)
		}
		r.add(base, c.BikePause)
		r.loopFrom = 0
	case modes.BattCheck:
		r.digits(r.BatteryValue(in.Voltage), true)
		r.add(output.Off, c.LoopPause)
		r.loopFrom = 0
	case modes.Timer:
		r.timerLeft = int(c.TimerMinutes)
		r.refill = r.nextMinute
	case modes.GroupBlink:
		r.add(output.Off, c.BlinkOff)
		r.digits(in.Group+1, false)
	default:
		r.kind = modes.NoSpecial
	}
}

// Tick returns the duties for this tick. It reports false once a one-shot
// pattern has finished or when nothing is running.
func (r *Runner) Tick() (output.Duties, bool) {
	if r.kind == modes.NoSpecial {
		return output.Off, false
	}
	for r.left == 0 {
		if !r.advance() {
			r.Stop()
			return output.Off, false
		}
	}
	r.left--
	return r.cur, true
}

func (r *Runner) advance() bool {
	if r.i >= len(r.steps) {
		switch {
		case r.refill != nil && r.refill():
		case r.loopFrom >= 0 && r.loopFrom < len(r.steps):
			r.i = r.loopFrom
		default:
			return false
		}
	}
	if r.i >= len(r.steps) {
		return false
	}
	s := r.steps[r.i]
	r.i++
	r.cur, r.left = s.duty, s.ticks
	return true
}

// add appends a step; every step lasts at least one tick.
func (r *Runner) add(d output.Duties, ticks uint32) {
	r.steps = append(r.steps, step{d, mathx.Max(ticks, 1)})
}

// BatteryValue converts a raw reading into the number the battery check shows.
func (r *Runner) BatteryValue(raw uint8) int {
	c := r.cfg
	switch c.Batt {
	case BattPercent:
		return int(mathx.MapU8(raw, c.BattEmpty, c.BattFull, 0, 100))
	case BattVolts:
		if c.VoltDen == 0 {
			return 0
		}
		return int(mathx.RoundDiv(uint32(raw)*uint32(c.VoltNum), uint32(c.VoltDen)))
	}
	return int(raw)
}

// digits blinks v as hundreds, tens and ones groups. A zero digit after the
// first non-zero one is a short dim flash. With leading set, an empty
// leading group still takes its slot as a silent pause.
func (r *Runner) digits(v int, leading bool) {
	c := r.cfg
	v = mathx.Clamp(v, 0, 999)
	groups := [3]int{v / 100, v / 10 % 10, v % 10}
	flash := output.Single(c.FlashDuty)
	dim := output.Single(c.DimDuty)
	started := false
	for gi, d := range groups {
		last := gi == len(groups)-1
		switch {
		case d == 0 && !started && !last:
			if leading && gi == 0 {
				r.add(output.Off, c.DigitPause)
			} else {
				continue
			}
		case d == 0:
			r.add(dim, c.ZeroOn)
			r.add(output.Off, c.BlinkOff)
		default:
			started = true
			for i := 0; i < d; i++ {
				r.add(flash, c.BlinkOn)
				r.add(output.Off, c.BlinkOff)
			}
		}
		if !last {
			r.add(output.Off, c.DigitPause)
		}
	}
}

// nextMinute queues the blink-out for the remaining minutes followed by a
// minute at the steady level; once the count is spent it parks on a glimmer.
func (r *Runner) nextMinute() bool {
	c := r.cfg
	r.steps, r.i = r.steps[:0], 0
	if r.timerLeft <= 0 {
		r.add(output.Single(c.DimDuty), 1)
		r.loopFrom = 0
		r.refill = nil
		return true
	}
	flash := output.Single(c.FlashDuty)
	for i := 0; i < r.timerLeft; i++ {
		r.add(flash, c.BlinkOn)
		r.add(output.Off, c.BlinkOff)
	}
	r.add(r.level, c.TimerMinuteTicks)
	r.timerLeft--
	return true
}
