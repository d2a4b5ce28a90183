// Package config holds light profiles: the runtime Profile the controller
// consumes, the TOML File schema users edit, and the built-in profiles.
package config

import (
	"fmt"

	"lightcode-go/errcode"
	"lightcode-go/light/click"
	"lightcode-go/light/modes"
	"lightcode-go/light/output"
	"lightcode-go/light/regulate"
	"lightcode-go/light/special"
	"lightcode-go/types"
)

// SchemaVersion is published in types.Info so telemetry readers can detect
// incompatible firmware.
const SchemaVersion = 1

// Profile is everything the controller needs, already converted to ticks.
type Profile struct {
	Name         string
	TickMs       uint32
	Channels     int
	ActiveLow    bool
	Clicky       bool   // power is cut on every click; boot decides the mode
	CommitTicks  uint32 // steady ticks before the mode is committed
	DefaultGroup int

	Groups []modes.Group
	Ramp   modes.RampTable
	Engine modes.Config

	Click    click.Config
	OffTime  click.OffTimeConfig
	Regulate regulate.Config
	Special  special.Config
}

func invalid(name, msg string) error {
	return &errcode.E{C: errcode.InvalidProfile, Op: "config.validate", Msg: name + ": " + msg}
}

// Validate rejects profiles the engine or controller cannot run. Errors
// carry errcode.InvalidProfile and wrap the underlying cause.
func (p Profile) Validate() error {
	if p.TickMs == 0 {
		return invalid(p.Name, "tick_ms must be > 0")
	}
	if p.Channels < 1 || p.Channels > output.MaxChannels {
		return invalid(p.Name, fmt.Sprintf("channels must be 1..%d", output.MaxChannels))
	}
	if p.DefaultGroup < 0 || p.DefaultGroup >= len(p.Groups) {
		return invalid(p.Name, "default_group out of range")
	}
	if p.Click.Debounce == 0 || p.Click.ShortTicks == 0 || p.Click.ShortTicks >= p.Click.LongTicks {
		return invalid(p.Name, "click thresholds must satisfy 0 < short < long")
	}
	if p.Click.GapTicks == 0 {
		return invalid(p.Name, "click gap must be > 0")
	}
	if p.OffTime.MediumAbove > p.OffTime.ShortAbove {
		return invalid(p.Name, "offtime medium threshold above short threshold")
	}
	if n := len(p.Ramp.Channels); n > p.Channels {
		return invalid(p.Name, "ramp has more channels than the driver")
	}
	for _, g := range p.Groups {
		if err := p.checkChannels(g.Levels); err != nil {
			return invalid(p.Name, g.Name+": "+err.Error())
		}
		if err := p.checkChannels(g.Hidden); err != nil {
			return invalid(p.Name, g.Name+": "+err.Error())
		}
	}
	if _, err := modes.New(p.Groups, p.Ramp, p.Engine); err != nil {
		return &errcode.E{C: errcode.InvalidProfile, Op: "config.validate", Msg: p.Name, Err: err}
	}
	if err := p.Regulate.Validate(); err != nil {
		return &errcode.E{C: errcode.InvalidProfile, Op: "config.validate", Msg: p.Name, Err: err}
	}
	if p.Special.Batt == special.BattPercent && p.Special.BattFull <= p.Special.BattEmpty {
		return invalid(p.Name, "batt_full must be above batt_empty")
	}
	if p.Special.Batt == special.BattVolts && p.Special.VoltDen == 0 {
		return invalid(p.Name, "volt_den must be > 0")
	}
	return nil
}

func (p Profile) checkChannels(ls []modes.Level) error {
	for _, l := range ls {
		for ch := p.Channels; ch < output.MaxChannels; ch++ {
			if l.Duty[ch] != 0 {
				return fmt.Errorf("level drives channel %d", ch+1)
			}
		}
	}
	return nil
}

// Info is the retained description published at boot.
func (p Profile) Info() types.Info {
	return types.Info{
		SchemaVersion: SchemaVersion,
		Profile:       p.Name,
		Channels:      p.Channels,
		Groups:        len(p.Groups),
		TickMs:        p.TickMs,
	}
}
