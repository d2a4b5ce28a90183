package modes

import (
	"strings"

	"lightcode-go/errcode"
	"lightcode-go/x/mathx"
)

// MemoryPolicy decides what a group restores after a full power-down.
type MemoryPolicy uint8

const (
	MemoryLast MemoryPolicy = iota // come back in the last committed mode
	MemoryNone                     // always start from the first mode
)

func (m MemoryPolicy) String() string {
	if m == MemoryNone {
		return "none"
	}
	return "last"
}

// ParseMemory accepts "last" or "none" (case-insensitive).
func ParseMemory(s string) (MemoryPolicy, error) {
	switch strings.ToLower(s) {
	case "", "last":
		return MemoryLast, nil
	case "none":
		return MemoryNone, nil
	}
	return MemoryLast, &errcode.E{C: errcode.InvalidParams, Op: "modes.memory", Msg: s}
}

// Group is an ordered set of selectable levels.
//
// Levels are declared dimmest first; Levels[0] is the moon level when Moon
// is set. Hidden levels sit "below" the first mode and are declared in
// reverse: stepping back from the first mode reaches the last Hidden entry,
// and stepping back from Hidden[0] returns to the first mode.
type Group struct {
	Name     string
	Levels   []Level
	Hidden   []Level
	Moon     bool
	Reversed bool // cycle from the brightest level down
	Memory   MemoryPolicy
	Turbo    int // index into Levels used by the turbo gesture; <0 picks the brightest
}

// maxModes is what a persisted mode byte can address.
const maxModes = 127

// Validate checks the group shape against the ramp table it will resolve in.
func (g Group) Validate(r RampTable) error {
	if len(g.Levels) == 0 {
		return &errcode.E{C: errcode.EmptyGroup, Op: "modes.group", Msg: g.Name}
	}
	if len(g.Levels)+len(g.Hidden) > maxModes {
		return &errcode.E{C: errcode.OutOfRange, Op: "modes.group", Msg: g.Name}
	}
	if g.Moon && len(g.Levels) < 2 {
		return &errcode.E{C: errcode.InvalidParams, Op: "modes.group", Msg: g.Name + ": moon needs a second level"}
	}
	if g.Turbo >= len(g.Levels) || (g.Turbo >= 0 && g.Levels[g.Turbo].IsSpecial()) {
		return &errcode.E{C: errcode.InvalidParams, Op: "modes.group", Msg: g.Name + ": turbo index"}
	}
	check := func(ls []Level) error {
		for _, l := range ls {
			if l.isSentinel() {
				return &errcode.E{C: errcode.TrailingData, Op: "modes.group", Msg: g.Name + ": zero level inside group"}
			}
			if l.Ramp > 0 && int(l.Ramp) > r.Len() {
				return &errcode.E{C: errcode.OutOfRange, Op: "modes.group", Msg: g.Name + ": ramp position"}
			}
			if l.Special > GroupBlink {
				return &errcode.E{C: errcode.InvalidParams, Op: "modes.group", Msg: g.Name + ": special code"}
			}
		}
		return nil
	}
	if err := check(g.Levels); err != nil {
		return err
	}
	return check(g.Hidden)
}

// solid returns the levels in the normal cycle.
func (g *Group) solid(moonEnabled bool) []Level {
	if g.Moon && !moonEnabled {
		return g.Levels[1:]
	}
	return g.Levels
}

// count is the number of flat positions: normal modes then hidden ones.
func (g *Group) count(moonEnabled bool) int {
	return len(g.solid(moonEnabled)) + len(g.Hidden)
}

// at resolves a flat position. Out-of-range positions read the first mode.
func (g *Group) at(m int, moonEnabled bool) Level {
	sol := g.solid(moonEnabled)
	n := len(sol)
	switch {
	case m >= 0 && m < n:
		if g.Reversed {
			return sol[n-1-m]
		}
		return sol[m]
	case m >= n && m < n+len(g.Hidden):
		return g.Hidden[m-n]
	}
	if g.Reversed {
		return sol[n-1]
	}
	return sol[0]
}

// posOf maps a Levels index to its flat position in the normal cycle.
func (g *Group) posOf(idx int, moonEnabled bool) int {
	if g.Moon && !moonEnabled {
		idx--
	}
	n := len(g.solid(moonEnabled))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	if g.Reversed {
		return n - 1 - idx
	}
	return idx
}

// next wraps to the first mode, including from any hidden mode.
func (g *Group) next(m int, moonEnabled bool) int {
	n := len(g.solid(moonEnabled))
	if m < 0 || m >= n {
		return 0
	}
	return mathx.Wrap(m+1, n)
}

// prev walks backwards; from the first mode it enters the hidden modes.
func (g *Group) prev(m int, moonEnabled bool) int {
	n := len(g.solid(moonEnabled))
	total := n + len(g.Hidden)
	switch {
	case m == n && len(g.Hidden) > 0:
		return 0
	case m < 0 || m >= total:
		return total - 1
	}
	return mathx.Wrap(m-1, total)
}
