package modes

import (
	"lightcode-go/errcode"
	"lightcode-go/light/click"
	"lightcode-go/light/output"
)

type State uint8

const (
	StateOff State = iota
	StateSolid
	StateRamping
	StateLocked
	StateSpecial
)

var stateNames = [...]string{"off", "solid", "ramping", "locked", "special"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Change reports what a transition touched.
type Change uint8

const (
	ChangeLevel Change = 1 << iota // selected output level moved
	ChangeState                    // engine state moved
	ChangeLock                     // lock flag toggled
	ChangeGroup                    // active group switched
)

func (c Change) Has(f Change) bool { return c&f != 0 }

type Config struct {
	MoonEnabled    bool
	LockHoldTicks  uint32 // hold length from off that toggles the lock
	GroupClicks    uint8  // clicks that cycle the mode group; 0 disables
	OffClicks      uint8  // clicks that switch off from on; 0 disables
	RampStepTicks  uint8  // hold ticks per ramp position
	RampPauseTicks uint16 // pause at either end of the ramp
}

func DefaultConfig() Config {
	return Config{
		MoonEnabled:    true,
		LockHoldTicks:  125,
		GroupClicks:    5,
		OffClicks:      4,
		RampStepTicks:  1,
		RampPauseTicks: 30,
	}
}

// Position is the persisted selection.
type Position struct {
	Group uint8
	Mode  uint8 // flat position, see Group
	Ramp  uint8 // 1-based ramp position, 0 for a discrete mode
}

// Engine is the click-driven UI state machine. It owns no hardware; the
// caller resolves Output into duties and runs specials.
type Engine struct {
	groups []Group
	ramp   RampTable
	cfg    Config

	state   State
	pos     Position
	gesture Special // special entered by a gesture, not by the selected level
	resume  State

	turbo    bool
	preTurbo Position

	rampUp   bool
	rampTick uint8
	pause    uint16
	holdDone bool
}

// New validates every group against the ramp table.
func New(groups []Group, r RampTable, cfg Config) (*Engine, error) {
	if len(groups) == 0 {
		return nil, &errcode.E{C: errcode.EmptyGroup, Op: "modes.new"}
	}
	if len(groups) > maxModes {
		return nil, &errcode.E{C: errcode.OutOfRange, Op: "modes.new", Msg: "too many groups"}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := g.Validate(r); err != nil {
			return nil, err
		}
	}
	if cfg.RampStepTicks == 0 {
		cfg.RampStepTicks = 1
	}
	return &Engine{groups: groups, ramp: r, cfg: cfg}, nil
}

func (e *Engine) State() State       { return e.state }
func (e *Engine) Position() Position { return e.pos }
func (e *Engine) Ramp() RampTable    { return e.ramp }
func (e *Engine) Groups() int        { return len(e.groups) }
func (e *Engine) InTurbo() bool      { return e.turbo }
func (e *Engine) Group() *Group      { return &e.groups[e.pos.Group] }
func (e *Engine) RampingUp() bool    { return e.rampUp }

// Special returns the pattern being shown, NoSpecial outside StateSpecial.
func (e *Engine) Special() Special {
	if e.state != StateSpecial {
		return NoSpecial
	}
	if e.gesture != NoSpecial {
		return e.gesture
	}
	return e.Level().Special
}

// Restore loads a persisted position, clamping anything out of range.
// It returns errcode.InvalidModeIndex when a field had to be corrected.
func (e *Engine) Restore(p Position) error {
	var err error
	if int(p.Group) >= len(e.groups) {
		p.Group, p.Mode, p.Ramp = 0, 0, 0
		err = errcode.InvalidModeIndex
	}
	g := &e.groups[p.Group]
	if int(p.Mode) >= g.count(e.cfg.MoonEnabled) {
		p.Mode = 0
		err = errcode.InvalidModeIndex
	}
	if int(p.Ramp) > e.ramp.Len() {
		p.Ramp = 0
		err = errcode.InvalidModeIndex
	}
	e.pos = p
	e.turbo = false
	return err
}

// ModeIndex is the user-facing index: normal modes count up from 0,
// hidden modes count down from -1.
func (e *Engine) ModeIndex() int {
	n := len(e.Group().solid(e.cfg.MoonEnabled))
	m := int(e.pos.Mode)
	if m >= n {
		return -(m - n + 1)
	}
	return m
}

// Level is the selected level, ignoring regulation.
func (e *Engine) Level() Level {
	if e.pos.Ramp > 0 {
		return R(e.pos.Ramp)
	}
	return e.Group().at(int(e.pos.Mode), e.cfg.MoonEnabled)
}

// Duties resolves a non-special level.
func (e *Engine) Duties(l Level) output.Duties {
	switch {
	case l.IsSpecial():
		return output.Off
	case l.Ramp > 0:
		return e.ramp.At(l.Ramp)
	}
	return l.Duty
}

// Output is the steady output for the current state. Specials resolve to
// Off here; their runner drives the channels.
func (e *Engine) Output() output.Duties {
	switch e.state {
	case StateSolid, StateRamping:
		return e.Duties(e.Level())
	}
	return output.Off
}

// TurnOn lights the selected level.
func (e *Engine) TurnOn() {
	e.gesture = NoSpecial
	e.state = StateSolid
	if e.Level().IsSpecial() {
		e.state = StateSpecial
		e.resume = StateSolid
	}
}

// Lock enters the locked state directly, used when booting with the
// persisted lock flag set.
func (e *Engine) Lock() {
	e.state = StateLocked
	e.gesture = NoSpecial
	e.turbo = false
}

func (e *Engine) TurnOff() {
	e.state = StateOff
	e.gesture = NoSpecial
	e.turbo = false
}

// Next advances one mode in cycle order, wrapping to the first mode.
func (e *Engine) Next() {
	e.pos.Mode = uint8(e.Group().next(int(e.pos.Mode), e.cfg.MoonEnabled))
	e.pos.Ramp = 0
	e.turbo = false
}

// Prev steps back one mode; from the first mode it enters the hidden modes.
func (e *Engine) Prev() {
	e.pos.Mode = uint8(e.Group().prev(int(e.pos.Mode), e.cfg.MoonEnabled))
	e.pos.Ramp = 0
	e.turbo = false
}

// First selects the first mode of the active group.
func (e *Engine) First() {
	e.pos.Mode, e.pos.Ramp = 0, 0
	e.turbo = false
}

// NextGroup cycles the active group and selects its first mode.
func (e *Engine) NextGroup() {
	e.pos.Group = uint8((int(e.pos.Group) + 1) % len(e.groups))
	e.First()
}

// EndSpecial returns from a gesture special such as the battery check.
func (e *Engine) EndSpecial() {
	if e.state != StateSpecial {
		return
	}
	e.gesture = NoSpecial
	if e.resume == StateOff {
		e.state = StateOff
		return
	}
	e.TurnOn()
}

// Handle applies one switch event.
func (e *Engine) Handle(ev click.Event) Change {
	if ev.Kind != click.LongClick && ev.Kind != click.Hold {
		e.holdDone = false
	}
	switch e.state {
	case StateLocked:
		return e.lockGesture(ev, StateOff)
	case StateOff:
		return e.handleOff(ev)
	case StateRamping:
		return e.handleRamping(ev)
	case StateSpecial:
		if e.gesture != NoSpecial {
			return e.cancelGesture(ev)
		}
	}
	return e.handleOn(ev)
}

func (e *Engine) lockGesture(ev click.Event, to State) Change {
	if (ev.Kind == click.LongClick || ev.Kind == click.Hold) &&
		ev.Held >= e.cfg.LockHoldTicks && e.cfg.LockHoldTicks > 0 && !e.holdDone {
		e.holdDone = true
		e.state = to
		e.turbo = false
		return ChangeLock | ChangeState
	}
	return 0
}

func (e *Engine) handleOff(ev click.Event) Change {
	switch ev.Kind {
	case click.ShortClick, click.MediumClick:
		e.TurnOn()
		return ChangeState
	case click.DoubleClick:
		e.toggleTurbo()
		e.TurnOn()
		return ChangeState | ChangeLevel
	case click.TripleClick:
		e.enterGesture(BattCheck, StateOff)
		return ChangeState
	case click.MultiClick:
		if e.cfg.GroupClicks > 0 && ev.Count == e.cfg.GroupClicks {
			e.NextGroup()
			e.enterGesture(GroupBlink, StateSolid)
			return ChangeGroup | ChangeLevel | ChangeState
		}
	case click.LongClick, click.Hold:
		return e.lockGesture(ev, StateLocked)
	}
	return 0
}

func (e *Engine) handleOn(ev click.Event) Change {
	switch ev.Kind {
	case click.ShortClick:
		e.Next()
		e.TurnOn()
		return ChangeLevel | ChangeState
	case click.MediumClick:
		e.Prev()
		e.TurnOn()
		return ChangeLevel | ChangeState
	case click.DoubleClick:
		e.toggleTurbo()
		e.TurnOn()
		return ChangeLevel | ChangeState
	case click.TripleClick:
		e.enterGesture(BattCheck, StateSolid)
		return ChangeState
	case click.MultiClick:
		switch {
		case e.cfg.GroupClicks > 0 && ev.Count == e.cfg.GroupClicks:
			e.NextGroup()
			e.enterGesture(GroupBlink, StateSolid)
			return ChangeGroup | ChangeLevel | ChangeState
		case e.cfg.OffClicks > 0 && ev.Count == e.cfg.OffClicks:
			e.TurnOff()
			return ChangeState
		}
	case click.LongClick, click.Hold:
		if e.state == StateSolid && e.startRamp() {
			return ChangeLevel | ChangeState
		}
	}
	return 0
}

func (e *Engine) cancelGesture(ev click.Event) Change {
	switch ev.Kind {
	case click.Hold, click.Release, click.None:
		return 0
	}
	e.EndSpecial()
	return ChangeState
}

func (e *Engine) enterGesture(k Special, resume State) {
	e.gesture = k
	e.resume = resume
	e.state = StateSpecial
}

// TurboLevel is the level the turbo gesture selects in the active group.
func (e *Engine) TurboLevel() Level {
	return e.Group().Levels[e.turboIndex()]
}

func (e *Engine) turboIndex() int {
	g := e.Group()
	if g.Turbo < 0 {
		return e.brightest(g.Levels)
	}
	return g.Turbo
}

func (e *Engine) toggleTurbo() {
	if e.turbo {
		e.pos = e.preTurbo
		e.turbo = false
		return
	}
	g := e.Group()
	e.preTurbo = e.pos
	e.pos.Mode = uint8(g.posOf(e.turboIndex(), e.cfg.MoonEnabled))
	e.pos.Ramp = 0
	e.turbo = true
}

func (e *Engine) brightest(ls []Level) int {
	best, bestDuty := 0, -1
	for i, l := range ls {
		if l.IsSpecial() {
			continue
		}
		if d := int(e.Duties(l).Max()); d > bestDuty {
			best, bestDuty = i, d
		}
	}
	return best
}

// startRamp enters ramping from the nearest ramp position. The direction
// alternates between holds and always points away from an end.
func (e *Engine) startRamp() bool {
	n := e.ramp.Len()
	if n == 0 {
		return false
	}
	e.pos.Ramp = e.ramp.Nearest(e.Duties(e.Level()))
	e.rampUp = !e.rampUp
	switch int(e.pos.Ramp) {
	case n:
		e.rampUp = false
	case 1:
		e.rampUp = true
	}
	e.turbo = false
	e.rampTick, e.pause = 0, 0
	e.state = StateRamping
	return true
}

func (e *Engine) handleRamping(ev click.Event) Change {
	switch ev.Kind {
	case click.Hold:
		return e.stepRamp()
	case click.Release:
		e.state = StateSolid
		return ChangeState
	}
	return 0
}

func (e *Engine) stepRamp() Change {
	if e.pause > 0 {
		e.pause--
		return 0
	}
	e.rampTick++
	if e.rampTick < e.cfg.RampStepTicks {
		return 0
	}
	e.rampTick = 0
	n := uint8(e.ramp.Len())
	switch {
	case e.rampUp && e.pos.Ramp < n:
		e.pos.Ramp++
	case !e.rampUp && e.pos.Ramp > 1:
		e.pos.Ramp--
	default:
		// Breathing: bounce off the end after a short pause.
		e.rampUp = !e.rampUp
		e.pause = e.cfg.RampPauseTicks
		return 0
	}
	return ChangeLevel
}
