package config

import (
	"strings"

	"lightcode-go/errcode"
	"lightcode-go/light/click"
	"lightcode-go/light/modes"
	"lightcode-go/light/output"
	"lightcode-go/light/regulate"
	"lightcode-go/light/special"
	"lightcode-go/x/ramp"
	"lightcode-go/x/strconvx"
	"lightcode-go/x/timex"
)

// File is the user-editable profile. Durations are milliseconds; Profile
// converts them to ticks of TickMs. A file may name a built-in Base whose
// values fill every key the file leaves out.
type File struct {
	Name         string `toml:"name"`
	Base         string `toml:"base,omitempty"`
	TickMs       uint32 `toml:"tick_ms"`
	Channels     int    `toml:"channels"`
	ActiveLow    bool   `toml:"active_low"`
	Clicky       bool   `toml:"clicky"`
	CommitMs     uint32 `toml:"commit_ms"`
	DefaultGroup int    `toml:"default_group"`
	Moon         bool   `toml:"moon"`

	Click    ClickFile    `toml:"click"`
	OffTime  OffTimeFile  `toml:"offtime"`
	Gestures GestureFile  `toml:"gestures"`
	Ramp     RampFile     `toml:"ramp"`
	Regulate RegulateFile `toml:"regulate"`
	Special  SpecialFile  `toml:"special"`
	Groups   []GroupFile  `toml:"group"`
}

type ClickFile struct {
	Debounce uint8  `toml:"debounce"`
	ShortMs  uint32 `toml:"short_ms"`
	LongMs   uint32 `toml:"long_ms"`
	GapMs    uint32 `toml:"gap_ms"`
}

type OffTimeFile struct {
	ShortAbove  uint8 `toml:"short_above"`
	MediumAbove uint8 `toml:"medium_above"`
}

type GestureFile struct {
	LockHoldMs  uint32 `toml:"lock_hold_ms"`
	GroupClicks uint8  `toml:"group_clicks"`
	OffClicks   uint8  `toml:"off_clicks"`
}

// RampFile either generates a single-channel curve or lists every channel.
type RampFile struct {
	Curve    string    `toml:"curve"` // none, linear, cubic
	Steps    int       `toml:"steps"`
	Low      uint8     `toml:"low"`
	High     uint8     `toml:"high"`
	StepMs   uint32    `toml:"step_ms"`
	PauseMs  uint32    `toml:"pause_ms"`
	Channels [][]uint8 `toml:"channels,omitempty"`
}

type RegulateFile struct {
	LowVoltage     uint8  `toml:"low_voltage"`
	Critical       uint8  `toml:"critical"`
	LowDebounce    uint8  `toml:"low_debounce"`
	StepGapMs      uint32 `toml:"step_gap_ms"`
	PlausibleMin   uint8  `toml:"plausible_min"`
	PlausibleMax   uint8  `toml:"plausible_max"`
	MaxJump        uint8  `toml:"max_jump"`
	TempTarget     uint8  `toml:"temp_target"`
	TempHysteresis uint8  `toml:"temp_hysteresis"`
	ThermalMs      uint32 `toml:"thermal_ms"`
	MinTurboMs     uint32 `toml:"min_turbo_ms"`
	TurboTimeoutMs uint32 `toml:"turbo_timeout_ms"`
}

type SpecialFile struct {
	StrobeOnMs  uint32 `toml:"strobe_on_ms"`
	StrobeOffMs uint32 `toml:"strobe_off_ms"`
	BeaconOnMs  uint32 `toml:"beacon_on_ms"`
	BeaconOffMs uint32 `toml:"beacon_off_ms"`

	BikeFlashes uint8  `toml:"bike_flashes"`
	BikeOnMs    uint32 `toml:"bike_on_ms"`
	BikeOffMs   uint32 `toml:"bike_off_ms"`
	BikePauseMs uint32 `toml:"bike_pause_ms"`
	BikeBase    uint8  `toml:"bike_base"`

	BlinkOnMs    uint32 `toml:"blink_on_ms"`
	BlinkOffMs   uint32 `toml:"blink_off_ms"`
	ZeroOnMs     uint32 `toml:"zero_on_ms"`
	DigitPauseMs uint32 `toml:"digit_pause_ms"`
	LoopPauseMs  uint32 `toml:"loop_pause_ms"`
	FlashDuty    uint8  `toml:"flash_duty"`
	DimDuty      uint8  `toml:"dim_duty"`

	BattCheck string `toml:"battcheck"` // raw, percent, volts
	BattEmpty uint8  `toml:"batt_empty"`
	BattFull  uint8  `toml:"batt_full"`
	VoltNum   uint16 `toml:"volt_num"`
	VoltDen   uint16 `toml:"volt_den"`

	TimerMinutes  uint8  `toml:"timer_minutes"`
	TimerMinuteMs uint32 `toml:"timer_minute_ms"`
}

// GroupFile lists levels as strings: "40" or "255/40" for direct duties
// (one value per channel), "r120" for a ramp position, or a special name
// such as "strobe". Table is the legacy zero-terminated duty table and is
// appended after Levels.
type GroupFile struct {
	Name     string   `toml:"name"`
	Levels   []string `toml:"levels,omitempty"`
	Table    []uint8  `toml:"table,omitempty"`
	Hidden   []string `toml:"hidden,omitempty"`
	Moon     bool     `toml:"moon"`
	Reversed bool     `toml:"reversed"`
	Memory   string   `toml:"memory"` // last, none
	Turbo    int      `toml:"turbo"`  // 1-based index into the levels; 0 picks the brightest
}

// DefaultFile carries the stock timings for a 16 ms tick. It has no groups,
// so a file that uses it as its base must declare at least one.
func DefaultFile() File {
	return File{
		Name:     "default",
		TickMs:   16,
		Channels: 1,
		CommitMs: 1000,
		Moon:     true,
		Click:    ClickFile{Debounce: 2, ShortMs: 300, LongMs: 900, GapMs: 400},
		OffTime:  OffTimeFile{ShortAbove: 190, MediumAbove: 94},
		Gestures: GestureFile{LockHoldMs: 2000, GroupClicks: 5, OffClicks: 4},
		Ramp:     RampFile{Curve: "none", StepMs: 16, PauseMs: 480},
		Regulate: RegulateFile{
			LowVoltage: 129, Critical: 124, LowDebounce: 4, StepGapMs: 1000,
			PlausibleMin: 40, PlausibleMax: 250, MaxJump: 40,
			TempHysteresis: 5, ThermalMs: 2000, MinTurboMs: 30000, TurboTimeoutMs: 120000,
		},
		Special: SpecialFile{
			StrobeOnMs: 32, StrobeOffMs: 64, BeaconOnMs: 96, BeaconOffMs: 2000,
			BikeFlashes: 4, BikeOnMs: 32, BikeOffMs: 64, BikePauseMs: 960, BikeBase: 40,
			BlinkOnMs: 256, BlinkOffMs: 368, ZeroOnMs: 64, DigitPauseMs: 992, LoopPauseMs: 2000,
			FlashDuty: 120, DimDuty: 8,
			BattCheck: "raw", BattEmpty: 124, BattFull: 180, VoltNum: 42, VoltDen: 180,
			TimerMinutes: 5, TimerMinuteMs: 60000,
		},
	}
}

func fileErr(name, msg string, err error) error {
	if name == "" {
		name = "unnamed"
	}
	return &errcode.E{C: errcode.InvalidProfile, Op: "config.file", Msg: name + ": " + msg, Err: err}
}

// ParseLevel decodes one level string.
func ParseLevel(s string) (modes.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return modes.Level{}, &errcode.E{C: errcode.InvalidParams, Op: "config.level", Msg: "empty level"}
	}
	if k, ok := modes.ParseSpecial(s); ok {
		return modes.S(k), nil
	}
	if s[0] == 'r' {
		n, err := strconvx.ParseUint(s[1:], 10, 8)
		if err != nil || n == 0 {
			return modes.Level{}, &errcode.E{C: errcode.InvalidParams, Op: "config.level", Msg: s, Err: err}
		}
		return modes.R(uint8(n)), nil
	}
	parts := strings.Split(s, "/")
	if len(parts) > output.MaxChannels {
		return modes.Level{}, &errcode.E{C: errcode.InvalidParams, Op: "config.level", Msg: s + ": too many channels"}
	}
	duties := make([]uint8, len(parts))
	for i, p := range parts {
		n, err := strconvx.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return modes.Level{}, &errcode.E{C: errcode.InvalidParams, Op: "config.level", Msg: s, Err: err}
		}
		duties[i] = uint8(n)
	}
	return modes.D(duties...), nil
}

// FormatLevel is the inverse of ParseLevel.
func FormatLevel(l modes.Level) string {
	switch {
	case l.IsSpecial():
		return l.Special.String()
	case l.Ramp > 0:
		return "r" + strconvx.Itoa(int(l.Ramp))
	}
	n := 1
	for i := output.MaxChannels - 1; i > 0; i-- {
		if l.Duty[i] != 0 {
			n = i + 1
			break
		}
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconvx.Itoa(int(l.Duty[i]))
	}
	return strings.Join(parts, "/")
}

func parseLevels(ss []string) ([]modes.Level, error) {
	out := make([]modes.Level, 0, len(ss))
	for _, s := range ss {
		l, err := ParseLevel(s)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (g GroupFile) group() (modes.Group, error) {
	levels, err := parseLevels(g.Levels)
	if err != nil {
		return modes.Group{}, err
	}
	if len(g.Table) > 0 {
		duties, err := modes.DecodeTable(g.Table)
		if err != nil {
			return modes.Group{}, err
		}
		for _, d := range duties {
			levels = append(levels, modes.D(d))
		}
	}
	hidden, err := parseLevels(g.Hidden)
	if err != nil {
		return modes.Group{}, err
	}
	mem, err := modes.ParseMemory(g.Memory)
	if err != nil {
		return modes.Group{}, err
	}
	return modes.Group{
		Name:     g.Name,
		Levels:   levels,
		Hidden:   hidden,
		Moon:     g.Moon,
		Reversed: g.Reversed,
		Memory:   mem,
		Turbo:    g.Turbo - 1,
	}, nil
}

func (r RampFile) table() (modes.RampTable, error) {
	if len(r.Channels) > 0 {
		return modes.NewRamp(r.Channels...)
	}
	switch strings.ToLower(r.Curve) {
	case "", "none":
		return modes.RampTable{}, nil
	case "linear":
		return modes.NewRamp(ramp.Linear(r.Steps, r.Low, r.High))
	case "cubic":
		return modes.NewRamp(ramp.Power(r.Steps, r.Low, r.High, 3))
	}
	return modes.RampTable{}, &errcode.E{C: errcode.InvalidParams, Op: "config.ramp", Msg: "unknown curve " + r.Curve}
}

// Profile converts the file into ticks and validates the result.
func (f File) Profile() (Profile, error) {
	p := Profile{
		Name:         f.Name,
		TickMs:       f.TickMs,
		Channels:     f.Channels,
		ActiveLow:    f.ActiveLow,
		Clicky:       f.Clicky,
		DefaultGroup: f.DefaultGroup,
	}
	if p.TickMs == 0 {
		return Profile{}, fileErr(f.Name, "tick_ms must be > 0", nil)
	}
	ticks := func(ms uint32) uint32 { return timex.Ticks(ms, f.TickMs) }
	p.CommitTicks = ticks(f.CommitMs)

	for i, gf := range f.Groups {
		g, err := gf.group()
		if err != nil {
			return Profile{}, fileErr(f.Name, "group "+strconvx.Itoa(i+1), err)
		}
		p.Groups = append(p.Groups, g)
	}
	rt, err := f.Ramp.table()
	if err != nil {
		return Profile{}, fileErr(f.Name, "ramp", err)
	}
	p.Ramp = rt

	p.Engine = modes.Config{
		MoonEnabled:    f.Moon,
		LockHoldTicks:  ticks(f.Gestures.LockHoldMs),
		GroupClicks:    f.Gestures.GroupClicks,
		OffClicks:      f.Gestures.OffClicks,
		RampStepTicks:  uint8(min(ticks(f.Ramp.StepMs), 255)),
		RampPauseTicks: uint16(min(ticks(f.Ramp.PauseMs), 0xFFFF)),
	}
	p.Click = click.Config{
		Debounce:   f.Click.Debounce,
		ShortTicks: ticks(f.Click.ShortMs),
		LongTicks:  ticks(f.Click.LongMs),
		GapTicks:   ticks(f.Click.GapMs),
	}
	p.OffTime = click.OffTimeConfig{ShortAbove: f.OffTime.ShortAbove, MediumAbove: f.OffTime.MediumAbove}

	rg := f.Regulate
	p.Regulate = regulate.Config{
		LowVoltage:        rg.LowVoltage,
		Critical:          rg.Critical,
		LowDebounce:       rg.LowDebounce,
		StepGapTicks:      ticks(rg.StepGapMs),
		PlausibleMin:      rg.PlausibleMin,
		PlausibleMax:      rg.PlausibleMax,
		MaxJump:           rg.MaxJump,
		TempTarget:        rg.TempTarget,
		TempHysteresis:    rg.TempHysteresis,
		ThermalTicks:      ticks(rg.ThermalMs),
		MinTurboTicks:     ticks(rg.MinTurboMs),
		TurboTimeoutTicks: ticks(rg.TurboTimeoutMs),
	}

	sp := f.Special
	batt, err := special.ParseBattMode(sp.BattCheck)
	if err != nil {
		return Profile{}, fileErr(f.Name, "battcheck", err)
	}
	p.Special = special.Config{
		StrobeOn: ticks(sp.StrobeOnMs), StrobeOff: ticks(sp.StrobeOffMs),
		BeaconOn: ticks(sp.BeaconOnMs), BeaconOff: ticks(sp.BeaconOffMs),
		BikeFlashes: sp.BikeFlashes, BikeOn: ticks(sp.BikeOnMs), BikeOff: ticks(sp.BikeOffMs),
		BikePause: ticks(sp.BikePauseMs), BikeBase: sp.BikeBase,
		BlinkOn: ticks(sp.BlinkOnMs), BlinkOff: ticks(sp.BlinkOffMs), ZeroOn: ticks(sp.ZeroOnMs),
		DigitPause: ticks(sp.DigitPauseMs), LoopPause: ticks(sp.LoopPauseMs),
		FlashDuty: sp.FlashDuty, DimDuty: sp.DimDuty,
		Batt: batt, BattEmpty: sp.BattEmpty, BattFull: sp.BattFull,
		VoltNum: sp.VoltNum, VoltDen: sp.VoltDen,
		TimerMinutes: sp.TimerMinutes, TimerMinuteTicks: ticks(sp.TimerMinuteMs),
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
