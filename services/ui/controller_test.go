package ui

import (
	"testing"

	"lightcode-go/bus"
	"lightcode-go/drivers/eeprom"
	"lightcode-go/drivers/pwmout"
	"lightcode-go/drivers/sense"
	"lightcode-go/errcode"
	"lightcode-go/light/modes"
	"lightcode-go/light/output"
	"lightcode-go/light/persist"
	"lightcode-go/services/config"
	"lightcode-go/types"
)

func rampFile() config.File {
	f := config.DefaultFile()
	f.Name = "test-ramp"
	f.Click.Debounce = 1
	f.Ramp = config.RampFile{Curve: "linear", Steps: 150, Low: 1, High: 255, StepMs: 16, PauseMs: 480}
	f.Groups = []config.GroupFile{{
		Name:   "ramp",
		Levels: []string{"r1", "r50", "r100", "r150"},
		Hidden: []string{"battcheck"},
		Moon:   true,
	}}
	return f
}

func discreteFile() config.File {
	f := config.DefaultFile()
	f.Name = "test-discrete"
	f.Click.Debounce = 1
	f.Groups = []config.GroupFile{
		{Name: "a", Levels: []string{"10", "50", "120", "255"}},
		{Name: "b", Levels: []string{"5", "200"}},
	}
	return f
}

func mustProfile(t *testing.T, f config.File) config.Profile {
	t.Helper()
	p, err := f.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

type rig struct {
	t     *testing.T
	p     config.Profile
	c     *Controller
	drv   *pwmout.Recorder
	cells *eeprom.Mem
	volt  *sense.Knob
	decay *fakeCap
	bus   *bus.Bus
}

type fakeCap struct{ v uint8 }

func (f *fakeCap) ReadDecay() uint8 { return f.v }
func (f *fakeCap) Clear()           { f.v = 0 }

func newRig(t *testing.T, p config.Profile, cells *eeprom.Mem, decay *fakeCap) *rig {
	t.Helper()
	if cells == nil {
		cells = eeprom.NewMem(8 * persist.SlotSize)
	}
	r := &rig{t: t, p: p, drv: &pwmout.Recorder{}, cells: cells, volt: sense.NewKnob(150), decay: decay, bus: bus.NewBus(64)}
	hw := Hardware{
		Driver:  r.drv,
		Cells:   cells,
		Voltage: r.volt,
		Conn:    r.bus.NewConnection("ui"),
	}
	if decay != nil {
		hw.OffTime = decay
	}
	c, err := New(p, hw)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.c = c
	c.Boot()
	return r
}

// reboot simulates a power cycle on the same cells.
func (r *rig) reboot() *rig { return newRig(r.t, r.p, r.cells, r.decay) }

func (r *rig) hold(n int) {
	for i := 0; i < n; i++ {
		r.c.Tick(true)
	}
}

func (r *rig) release(n int) {
	for i := 0; i < n; i++ {
		r.c.Tick(false)
	}
}

// clicks presses briefly n times and waits for the sequence to resolve.
func (r *rig) clicks(n int) {
	for i := 0; i < n; i++ {
		r.hold(3)
		r.release(3)
	}
	r.release(int(r.p.Click.GapTicks) + 2)
}

func (r *rig) saved() persist.State {
	s, err := persist.New(r.cells)
	if err != nil {
		r.t.Fatal(err)
	}
	st, err := s.Load()
	if err != nil {
		r.t.Fatalf("load: %v", err)
	}
	return st
}

func TestRampReleaseCommitAndResume(t *testing.T) {
	p := mustProfile(t, rampFile())
	r := newRig(t, p, nil, nil)
	if r.c.Engine().State() != modes.StateOff {
		t.Fatal("e-switch boots off")
	}

	r.clicks(1)
	if r.c.Engine().State() != modes.StateSolid || r.c.Engine().Position().Mode != 0 {
		t.Fatalf("click from off: state=%v pos=%+v", r.c.Engine().State(), r.c.Engine().Position())
	}

	// LongClick at LongTicks enters the ramp at 1; every Hold after adds one.
	r.hold(int(p.Click.LongTicks) + 119)
	if got := r.c.Engine().Position().Ramp; got != 120 {
		t.Fatalf("ramp while held = %d, want 120", got)
	}
	r.release(1)
	if r.c.Engine().State() != modes.StateSolid {
		t.Fatalf("release should leave ramping, got %v", r.c.Engine().State())
	}
	want := p.Ramp.At(120)
	if r.c.Output() != want || r.drv.Duties() != want {
		t.Fatalf("output %v / driver %v, want %v", r.c.Output(), r.drv.Duties(), want)
	}

	r.release(int(p.CommitTicks) + 1)
	if st := r.saved(); st.Ramp != 120 || st.ShortPress {
		t.Fatalf("committed %+v", st)
	}

	r2 := r.reboot()
	if r2.c.Engine().Position().Ramp != 120 {
		t.Fatalf("restored ramp = %d", r2.c.Engine().Position().Ramp)
	}
	r2.clicks(1)
	if r2.c.Output() != want {
		t.Fatalf("resumed output %v, want %v", r2.c.Output(), want)
	}
}

func TestSteadyOutputIsIdempotent(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.release(int(p.CommitTicks) + 5)

	changes := r.drv.Changes()
	writes := r.c.Store().Writes()
	r.release(500)
	if r.drv.Changes() != changes {
		t.Fatalf("steady output rewrote a channel: %d -> %d", changes, r.drv.Changes())
	}
	if r.c.Store().Writes() != writes {
		t.Fatalf("steady output wrote the store: %d -> %d", writes, r.c.Store().Writes())
	}
	if r.c.Output() != output.Single(10) {
		t.Fatalf("output %v", r.c.Output())
	}
}

func TestStatePublishedRetained(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.clicks(1)

	m, ok := r.bus.Retained(bus.Parse(types.TopicState))
	if !ok {
		t.Fatal("no retained state")
	}
	st := m.Payload.(types.LightState)
	if st.State != "solid" || st.Mode != 1 || st.Duties[0] != 50 {
		t.Fatalf("published %+v", st)
	}
	info, ok := r.bus.Retained(bus.Parse(types.TopicInfo))
	if !ok || info.Payload.(types.Info).Profile != "test-discrete" {
		t.Fatalf("info %+v", info)
	}
}

func TestLockPersistsAcrossReboot(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)

	r.hold(int(p.Engine.LockHoldTicks) + 2)
	r.release(5)
	if r.c.Engine().State() != modes.StateLocked {
		t.Fatalf("hold from off should lock, got %v", r.c.Engine().State())
	}
	if !r.saved().Locked {
		t.Fatal("lock not saved")
	}

	r2 := r.reboot()
	if r2.c.Engine().State() != modes.StateLocked {
		t.Fatalf("boot state %v", r2.c.Engine().State())
	}
	r2.clicks(2)
	if !r2.c.Output().IsOff() {
		t.Fatal("locked light must ignore clicks")
	}

	r2.hold(int(p.Engine.LockHoldTicks) + 2)
	r2.release(5)
	if r2.c.Engine().State() != modes.StateOff || r2.saved().Locked {
		t.Fatalf("unlock: state=%v saved=%+v", r2.c.Engine().State(), r2.saved())
	}
	r2.clicks(1)
	if r2.c.Output() != output.Single(10) {
		t.Fatalf("after unlock output %v", r2.c.Output())
	}
}

func clickyFile() config.File {
	f := discreteFile()
	f.Name = "test-clicky"
	f.Clicky = true
	return f
}

func TestClickyBootWithOffTimeSensor(t *testing.T) {
	p := mustProfile(t, clickyFile())
	decay := &fakeCap{}
	r := newRig(t, p, nil, decay)
	if r.c.Engine().State() != modes.StateSolid || r.c.Engine().ModeIndex() != 0 {
		t.Fatalf("first boot: %v mode %d", r.c.Engine().State(), r.c.Engine().ModeIndex())
	}
	if !r.saved().ShortPress {
		t.Fatal("boot must set the short-press marker")
	}

	decay.v = 255 // quick tap
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 1 {
		t.Fatalf("short off-time: mode %d, want 1", r.c.Engine().ModeIndex())
	}

	decay.v = 150 // medium tap
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 0 {
		t.Fatalf("medium off-time: mode %d, want 0", r.c.Engine().ModeIndex())
	}

	decay.v = 255
	r = r.reboot()
	r.release(int(p.CommitTicks) + 1)
	if r.saved().ShortPress {
		t.Fatal("commit must clear the marker")
	}
	decay.v = 255 // a quick tap after the commit point still advances
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 2 {
		t.Fatalf("quick tap after commit: mode %d, want 2", r.c.Engine().ModeIndex())
	}

	decay.v = 0 // long off keeps the mode in a memory group
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 2 {
		t.Fatalf("long off-time: mode %d", r.c.Engine().ModeIndex())
	}
	r.release(int(p.CommitTicks) + 1)
	decay.v = 0
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 2 {
		t.Fatalf("long off after commit: mode %d", r.c.Engine().ModeIndex())
	}
}

func TestClickyBootWithoutSensorAdvances(t *testing.T) {
	p := mustProfile(t, clickyFile())
	r := newRig(t, p, nil, nil)
	for want := 1; want <= 4; want++ {
		r = r.reboot()
		if got := r.c.Engine().ModeIndex(); got != want%4 {
			t.Fatalf("boot %d: mode %d, want %d", want, got, want%4)
		}
	}
}

func TestClickyNoMemoryGroupRestarts(t *testing.T) {
	f := clickyFile()
	f.Groups[0].Memory = "none"
	p := mustProfile(t, f)
	decay := &fakeCap{}
	r := newRig(t, p, nil, decay)
	decay.v = 255
	r = r.reboot()
	decay.v = 255
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 2 {
		t.Fatalf("mode %d, want 2", r.c.Engine().ModeIndex())
	}
	decay.v = 0
	r = r.reboot()
	if r.c.Engine().ModeIndex() != 0 {
		t.Fatalf("long off in a no-memory group: mode %d", r.c.Engine().ModeIndex())
	}

	decay.v = 255
	r = r.reboot()
	r.release(int(p.CommitTicks) + 1)
	if st := r.saved(); st.Mode != 0 || st.ShortPress {
		t.Fatalf("no-memory commit saved %+v", st)
	}
}

func TestLowVoltageStepdownThenShutoff(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.clicks(1)
	r.clicks(1) // mode 2: 120
	if r.c.Output() != output.Single(120) {
		t.Fatalf("setup output %v", r.c.Output())
	}

	r.volt.Set(127)
	r.release(int(p.Regulate.LowDebounce) + 2)
	if r.c.Monitor().Steps() != 1 || r.c.Output() != output.Single(50) {
		t.Fatalf("stepdown: steps=%d output=%v", r.c.Monitor().Steps(), r.c.Output())
	}
	if r.c.Engine().Position().Mode != 2 {
		t.Fatal("stepdown must not move the selected mode")
	}
	if _, ok := r.bus.Retained(bus.Parse(types.TopicRegulation)); !ok {
		t.Fatal("regulation not published")
	}

	r.volt.Set(100)
	r.release(int(p.Regulate.LowDebounce) + 4)
	if !r.c.Sleeping() || !r.c.Output().IsOff() || r.c.Engine().State() != modes.StateOff {
		t.Fatalf("shutoff: sleeping=%v output=%v state=%v", r.c.Sleeping(), r.c.Output(), r.c.Engine().State())
	}
	r.release(50)
	if !r.c.Sleeping() {
		t.Fatal("stays asleep until pressed")
	}

	r.volt.Set(150)
	r.clicks(1)
	if r.c.Sleeping() {
		t.Fatal("press should wake")
	}
	if r.c.Output() != output.Single(120) {
		t.Fatalf("woken output %v", r.c.Output())
	}
}

func TestModeChangeDropsStepdownAtOnce(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.clicks(1)
	r.clicks(1) // mode 2: 120
	r.volt.Set(127)
	r.release(int(p.Regulate.LowDebounce) + 2)
	if r.c.Output() != output.Single(50) {
		t.Fatalf("setup output %v", r.c.Output())
	}

	r.hold(3)
	r.release(3)
	for i := 0; i < int(p.Click.GapTicks)+2; i++ {
		r.c.Tick(false)
		if r.c.Engine().ModeIndex() == 3 {
			if r.c.Output() != output.Single(255) {
				t.Fatalf("tick of the mode change showed %v", r.c.Output())
			}
			return
		}
	}
	t.Fatalf("mode did not advance: %d", r.c.Engine().ModeIndex())
}

func TestGlitchCountedAndPublished(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.volt.Set(10)
	r.release(1)
	r.volt.Set(150)
	r.release(2)
	if r.c.Monitor().Snapshot().Glitches != 1 {
		t.Fatalf("glitches=%d", r.c.Monitor().Snapshot().Glitches)
	}
	if errcode.Of(r.c.Monitor().LastGlitch()) != errcode.SensorGlitch {
		t.Fatalf("last glitch %v", r.c.Monitor().LastGlitch())
	}
}

func TestGroupCycleBlinksThenSaves(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(1)
	r.clicks(int(p.Engine.GroupClicks))
	if r.c.Engine().State() != modes.StateSpecial {
		t.Fatalf("group change should blink, state %v", r.c.Engine().State())
	}
	if r.saved().Group != 1 {
		t.Fatal("group change not saved")
	}
	r.release(300)
	if r.c.Engine().State() != modes.StateSolid || r.c.Output() != output.Single(5) {
		t.Fatalf("after blink: %v %v", r.c.Engine().State(), r.c.Output())
	}
}

func TestBattCheckFromOffReturnsOff(t *testing.T) {
	p := mustProfile(t, discreteFile())
	r := newRig(t, p, nil, nil)
	r.clicks(3)
	if r.c.Engine().Special() != modes.BattCheck {
		t.Fatalf("triple click special %v", r.c.Engine().Special())
	}
	lit := false
	for i := 0; i < 200; i++ {
		r.c.Tick(false)
		if !r.c.Output().IsOff() {
			lit = true
		}
	}
	if !lit {
		t.Fatal("battery check never flashed")
	}
	r.clicks(1)
	if r.c.Engine().State() != modes.StateOff {
		t.Fatalf("click cancels back to off, got %v", r.c.Engine().State())
	}
}

func TestNewRejectsBadProfile(t *testing.T) {
	f := discreteFile()
	p := mustProfile(t, f)
	p.Channels = 0
	if _, err := New(p, Hardware{Driver: &pwmout.Recorder{}}); err == nil {
		t.Fatal("invalid profile accepted")
	}
	p = mustProfile(t, f)
	if _, err := New(p, Hardware{}); err == nil {
		t.Fatal("nil driver accepted")
	}
}
