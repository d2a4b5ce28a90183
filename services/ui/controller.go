// Package ui runs the light: it samples the switch and sensors from the
// tick interrupt, drives the mode engine from the main loop, persists the
// selection and writes the output channels.
package ui

import (
	"context"
	"sync/atomic"
	"time"

	"lightcode-go/bus"
	"lightcode-go/errcode"
	"lightcode-go/light/click"
	"lightcode-go/light/modes"
	"lightcode-go/light/output"
	"lightcode-go/light/persist"
	"lightcode-go/light/regulate"
	"lightcode-go/light/special"
	"lightcode-go/services/config"
	"lightcode-go/types"
	"lightcode-go/x/logx"
	"lightcode-go/x/timex"
)

// Hardware is what the controller drives. Cells, Thermal, OffTime and Conn
// may be nil.
type Hardware struct {
	Driver  output.Driver
	Cells   persist.Cells
	Voltage regulate.Sampler
	Thermal regulate.ThermalSampler
	OffTime click.OffTimeSensor
	Conn    *bus.Connection
}

// SwitchPin reads the raw switch level.
type SwitchPin interface {
	Pressed() bool
}

// Bits of the engine summary the interrupt side reads.
const (
	inOn uint32 = 1 << iota
	inFloor
	inTurbo
)

type Controller struct {
	p   config.Profile
	hw  Hardware
	eng *modes.Engine
	cls *click.Classifier
	mon *regulate.Monitor
	run *special.Runner
	out *output.Mapper
	st  *persist.Store

	// Shared between ISR and Step.
	events   click.Latest
	inputs   atomic.Uint32
	regDirty atomic.Bool
	sleeping atomic.Bool

	steady    uint32
	committed bool
	glitches  uint32
	lastState types.LightState
	published bool
}

// New validates p and wires the light core to hw.
func New(p config.Profile, hw Hardware) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if hw.Driver == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "ui.new", Msg: "nil output driver"}
	}
	eng, err := modes.New(p.Groups, p.Ramp, p.Engine)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		p:   p,
		hw:  hw,
		eng: eng,
		cls: click.NewClassifier(p.Click),
		mon: regulate.NewMonitor(p.Regulate, hw.Voltage, hw.Thermal),
		run: special.NewRunner(p.Special),
		out: output.NewMapper(hw.Driver, p.Channels, p.ActiveLow),
	}
	if hw.Cells != nil {
		st, err := persist.New(hw.Cells)
		if err != nil {
			logx.Warn("ui: persistence disabled: %v", err)
		} else {
			c.st = st
		}
	}
	return c, nil
}

func (c *Controller) Engine() *modes.Engine      { return c.eng }
func (c *Controller) Monitor() *regulate.Monitor { return c.mon }
func (c *Controller) Profile() config.Profile    { return c.p }
func (c *Controller) Output() output.Duties      { return c.out.Last() }
func (c *Controller) Store() *persist.Store      { return c.st }
func (c *Controller) DroppedEvents() uint32      { return c.events.Dropped() }

// Sleeping reports a low-battery shutoff that has not been woken yet.
func (c *Controller) Sleeping() bool { return c.sleeping.Load() }

// Boot restores the persisted selection and applies the power-on policy.
func (c *Controller) Boot() {
	var saved persist.State
	fresh := true
	if c.st != nil {
		s, err := c.st.Load()
		switch errcode.Of(err) {
		case errcode.OK:
			saved, fresh = s, false
		case errcode.UnreadableStore:
			logx.Info("ui: store empty, using defaults")
		default:
			logx.Warn("ui: store load: %v", err)
		}
	}
	pos := modes.Position{Group: saved.Group, Mode: saved.Mode, Ramp: saved.Ramp}
	if fresh {
		pos = modes.Position{Group: uint8(c.p.DefaultGroup)}
	}
	if err := c.eng.Restore(pos); err != nil {
		logx.Warn("ui: restore: %v", err)
	}

	off := click.ReadOffTime(c.hw.OffTime, c.p.OffTime)
	switch {
	case saved.Locked:
		c.eng.Lock()
	case c.p.Clicky:
		c.clickyBoot(off, saved.ShortPress)
		c.eng.TurnOn()
		c.save(true)
	}
	logx.Info("ui: boot profile=%s state=%s group=%d mode=%d",
		c.p.Name, c.eng.State().String(), int(c.eng.Position().Group), c.eng.ModeIndex())

	if c.hw.Conn != nil {
		c.hw.Conn.Publish(c.hw.Conn.NewMessage(bus.Parse(types.TopicInfo), c.p.Info(), true))
	}
	c.apply()
}

// clickyBoot turns a power cut into a click. The off-time sensor decides
// on every boot; without one the short-press marker stands in and only a
// cut before the commit point advances.
func (c *Controller) clickyBoot(off click.Event, shortPress bool) {
	if c.hw.OffTime == nil {
		if shortPress {
			c.eng.Next()
		}
		return
	}
	switch off.Kind {
	case click.OffTimeShort:
		c.eng.Next()
	case click.OffTimeMedium:
		c.eng.Prev()
	default:
		if c.eng.Group().Memory == modes.MemoryNone {
			c.eng.First()
		}
	}
}

// ISR is the tick interrupt body. It must not block.
func (c *Controller) ISR(pressed bool) {
	if ev := c.cls.Sample(pressed); ev.Kind != click.None {
		c.events.Post(ev)
	}
	in := c.inputs.Load()
	d := c.mon.Tick(regulate.Input{
		On:      in&inOn != 0,
		AtFloor: in&inFloor != 0,
		Turbo:   in&inTurbo != 0,
	})
	if d != regulate.Steady {
		c.regDirty.Store(true)
	}
}

// Step is one main-loop pass: take the latest event, run the engine,
// handle regulation, persist and write the output.
func (c *Controller) Step() {
	if ev, ok := c.events.Take(); ok {
		c.handle(ev)
	}
	if c.regDirty.Swap(false) {
		c.regulation()
	}
	if n := c.mon.Snapshot().Glitches; n != c.glitches {
		c.glitches = n
		logx.Warn("ui: %v", c.mon.LastGlitch())
	}
	c.apply()
	c.commit()
}

// Tick runs ISR and Step back to back.
func (c *Controller) Tick(pressed bool) {
	c.ISR(pressed)
	c.Step()
}

// Run ticks at the profile rate until ctx is done. The interrupt side and
// the main loop share one goroutine here; firmware calls ISR from the
// hardware timer instead.
func (c *Controller) Run(ctx context.Context, pin SwitchPin) error {
	t := time.NewTicker(timex.Period(c.p.TickMs))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.Tick(pin.Pressed())
		}
	}
}

func (c *Controller) handle(ev click.Event) {
	if c.hw.Conn != nil {
		c.hw.Conn.Publish(c.hw.Conn.NewMessage(bus.Parse(types.TopicEvent), types.SwitchEvent{
			Kind: ev.Kind.String(), Count: int(ev.Count), TS: timex.NowMs(),
		}, false))
	}
	if c.sleeping.Swap(false) {
		logx.Info("ui: wake")
		c.mon.ResetSteps()
	}
	ch := c.eng.Handle(ev)
	if ch == 0 {
		return
	}
	logx.Debug("ui: %s -> %s mode=%d", ev.Kind.String(), c.eng.State().String(), c.eng.ModeIndex())
	if ch.Has(modes.ChangeLevel) || ch.Has(modes.ChangeState) {
		c.steady, c.committed = 0, false
	}
	if ch.Has(modes.ChangeLevel) {
		c.mon.ResetSteps()
	}
	if ch.Has(modes.ChangeLock) || ch.Has(modes.ChangeGroup) {
		c.save(false)
	}
}

func (c *Controller) regulation() {
	s := c.mon.Snapshot()
	logx.Debug("ui: regulation volt=%d steps=%d/%d", int(s.Voltage), int(s.VoltSteps), int(s.ThermSteps))
	if s.Shutoff && c.eng.State() != modes.StateOff && c.eng.State() != modes.StateLocked {
		logx.Warn("ui: low battery shutoff volt=%d", int(s.Voltage))
		c.eng.TurnOff()
		c.run.Stop()
		c.sleeping.Store(true)
	}
	if c.hw.Conn != nil {
		c.hw.Conn.Publish(c.hw.Conn.NewMessage(bus.Parse(types.TopicRegulation), types.RegulationValue{
			Voltage:     s.Voltage,
			Temperature: s.Temperature,
			VoltSteps:   s.VoltSteps,
			ThermSteps:  s.ThermSteps,
			Shutoff:     s.Shutoff,
			Glitches:    s.Glitches,
			TS:          timex.NowMs(),
		}, true))
	}
}

// apply resolves the output for this tick and publishes the state on change.
func (c *Controller) apply() {
	steps := c.mon.Steps()
	var duties output.Duties

	sp := c.eng.Special()
	levelSpecial := sp != modes.NoSpecial && sp == c.eng.Level().Special
	if levelSpecial && steps > 0 {
		// Regulated specials fall back to a steady level.
		sp = modes.NoSpecial
	}
	if sp != c.run.Active() {
		if sp == modes.NoSpecial {
			c.run.Stop()
		} else {
			c.run.Start(sp, c.specialInputs(sp))
		}
	}

	switch {
	case c.run.Active() != modes.NoSpecial:
		d, ok := c.run.Tick()
		if ok {
			duties = d
			break
		}
		if levelSpecial {
			c.eng.TurnOff()
		} else {
			c.eng.EndSpecial()
		}
		c.steady, c.committed = 0, false
		duties = c.steadyDuties(steps)
	case c.eng.State() == modes.StateSpecial:
		duties = c.eng.Duties(c.eng.Effective(steps))
	default:
		duties = c.steadyDuties(steps)
	}
	c.out.Apply(duties)

	var in uint32
	switch c.eng.State() {
	case modes.StateSolid:
		if c.eng.InTurbo() || duties.Max() == 255 {
			in |= inTurbo
		}
		fallthrough
	case modes.StateRamping, modes.StateSpecial:
		in |= inOn
	}
	if c.eng.AtFloor(steps) {
		in |= inFloor
	}
	c.inputs.Store(in)
	c.publishState(duties)
}

func (c *Controller) steadyDuties(steps int) output.Duties {
	switch c.eng.State() {
	case modes.StateSolid, modes.StateRamping:
		return c.eng.Duties(c.eng.Effective(steps))
	}
	return output.Off
}

func (c *Controller) specialInputs(sp modes.Special) special.Inputs {
	in := special.Inputs{
		Voltage: c.mon.Snapshot().Voltage,
		Group:   int(c.eng.Position().Group),
	}
	switch sp {
	case modes.Strobe, modes.Beacon, modes.BikingStrobe:
		in.Level = c.eng.Duties(c.eng.TurboLevel())
	case modes.Timer:
		in.Level = c.eng.Duties(c.eng.Effective(1))
	}
	return in
}

// commit saves the selection once the output has been steady for
// CommitTicks, clearing the short-press marker.
func (c *Controller) commit() {
	if c.eng.State() != modes.StateSolid || c.committed {
		return
	}
	c.steady++
	if c.steady < c.p.CommitTicks {
		return
	}
	c.committed = true
	c.save(false)
}

func (c *Controller) save(shortPress bool) {
	if c.st == nil {
		return
	}
	pos := c.eng.Position()
	s := persist.State{
		Mode:       pos.Mode,
		Ramp:       pos.Ramp,
		Group:      pos.Group,
		Locked:     c.eng.State() == modes.StateLocked,
		ShortPress: shortPress,
	}
	if !shortPress && c.eng.Group().Memory == modes.MemoryNone {
		s.Mode, s.Ramp = 0, 0
	}
	if err := c.st.Save(s); err != nil {
		logx.Error("ui: save: %v", err)
		return
	}
	logx.Debug("ui: saved group=%d mode=%d ramp=%d short=%t", int(s.Group), int(s.Mode), int(s.Ramp), s.ShortPress)
}

func (c *Controller) publishState(d output.Duties) {
	pos := c.eng.Position()
	s := types.LightState{
		State:   c.eng.State().String(),
		Group:   int(pos.Group),
		Mode:    c.eng.ModeIndex(),
		Ramp:    pos.Ramp,
		Special: c.run.Active().String(),
		Duties:  [3]uint8(d),
		Locked:  c.eng.State() == modes.StateLocked,
	}
	if c.published && s == c.lastState {
		return
	}
	c.lastState, c.published = s, true
	if c.hw.Conn == nil {
		return
	}
	s.TS = timex.NowMs()
	c.hw.Conn.Publish(c.hw.Conn.NewMessage(bus.Parse(types.TopicState), s, true))
}
