package config

import (
	"sort"

	"lightcode-go/errcode"
)

// Built-in profiles. Each constructor returns a fresh File so callers may
// edit the slices.
var builtins = map[string]func() File{
	"blf-a6":     blfA6,
	"narsil":     narsil,
	"tail-light": tailLight,
}

// blfA6 is a clicky two-channel driver: channel 1 is the 7135 bank, channel
// 2 the FET. Hidden modes sit below moon in reverse order.
func blfA6() File {
	f := DefaultFile()
	f.Name = "blf-a6"
	f.Channels = 2
	f.Clicky = true
	f.Gestures.LockHoldMs = 0
	f.Regulate.TurboTimeoutMs = 45000
	f.Special.BattCheck = "raw"
	hidden := []string{"biking_strobe", "battcheck", "strobe", "0/255"}
	f.Groups = []GroupFile{
		{
			Name:   "seven",
			Levels: []string{"3", "20", "110", "255/7", "255/56", "255/137", "0/255"},
			Hidden: hidden,
			Moon:   true,
			Turbo:  7,
		},
		{
			Name:   "four",
			Levels: []string{"20", "230", "255/90", "0/255"},
			Hidden: append([]string(nil), hidden...),
			Memory: "none",
			Turbo:  4,
		},
	}
	return f
}

// narsil is an e-switch light with a smooth ramp, thermal regulation and a
// volts readout.
func narsil() File {
	f := DefaultFile()
	f.Name = "narsil"
	f.Channels = 1
	f.Clicky = false
	f.Ramp = RampFile{Curve: "cubic", Steps: 150, Low: 1, High: 255, StepMs: 16, PauseMs: 480}
	f.Regulate.TempTarget = 55
	f.Regulate.TempHysteresis = 5
	f.Regulate.TurboTimeoutMs = 0
	f.Special.BattCheck = "volts"
	f.Groups = []GroupFile{
		{
			Name:   "ramp",
			Levels: []string{"r1", "r40", "r80", "r120", "r150"},
			Hidden: []string{"timer", "beacon", "strobe"},
			Moon:   true,
		},
		{
			Name:   "discrete",
			Levels: []string{"1", "8", "35", "110", "255"},
			Hidden: []string{"timer", "beacon", "strobe"},
			Moon:   true,
			Memory: "none",
		},
	}
	return f
}

// tailLight is a clicky single-channel light with no off-time sensor: a
// quick tap always advances, memory comes from the short-press marker.
func tailLight() File {
	f := DefaultFile()
	f.Name = "tail-light"
	f.Channels = 1
	f.Clicky = true
	f.CommitMs = 500
	f.Gestures.LockHoldMs = 0
	f.Regulate.LowVoltage = 123
	f.Regulate.Critical = 113
	f.Special.BattCheck = "percent"
	f.Special.BattEmpty = 139
	f.Special.BattFull = 184
	f.Groups = []GroupFile{
		{
			Name:   "tail",
			Levels: []string{"3", "14", "39", "120", "255", "beacon", "battcheck"},
			Moon:   true,
			Turbo:  5,
		},
	}
	return f
}

// Names lists the built-in profiles, sorted.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for n := range builtins {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Builtin returns a copy of a built-in profile file.
func Builtin(name string) (File, bool) {
	mk, ok := builtins[name]
	if !ok {
		return File{}, false
	}
	return mk(), true
}

// Lookup resolves a built-in profile by name.
func Lookup(name string) (Profile, error) {
	f, ok := Builtin(name)
	if !ok {
		return Profile{}, &errcode.E{C: errcode.UnknownProfile, Op: "config.lookup", Msg: name}
	}
	return f.Profile()
}
