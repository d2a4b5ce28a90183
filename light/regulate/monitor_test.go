package regulate

import (
	"testing"

	"lightcode-go/errcode"
)

// trace replays a fixed list of readings, repeating the last one.
type trace struct {
	vals []uint8
	i    int
}

func (t *trace) next() uint8 {
	if len(t.vals) == 0 {
		return 0
	}
	if t.i >= len(t.vals) {
		return t.vals[len(t.vals)-1]
	}
	v := t.vals[t.i]
	t.i++
	return v
}

type voltTrace struct{ trace }

func (v *voltTrace) ReadVoltage() uint8 { return v.next() }

type tempTrace struct{ trace }

func (t *tempTrace) ReadTemperature() uint8 { return t.next() }

func repeat(v uint8, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testConfig() Config {
	c := DefaultConfig()
	c.StepGapTicks = 0
	c.Critical = 0
	c.MaxJump = 0
	return c
}

func run(m *Monitor, n int, in Input) (downs, ups, offs int) {
	for i := 0; i < n; i++ {
		switch m.Tick(in) {
		case StepDown:
			downs++
		case StepUp:
			ups++
		case Shutoff:
			offs++
		}
	}
	return
}

func TestOneStepdownPerDebounceWindow(t *testing.T) {
	cfg := testConfig()
	for windows := 1; windows <= 5; windows++ {
		v := &voltTrace{trace{vals: repeat(cfg.LowVoltage-1, 1000)}}
		m := NewMonitor(cfg, v, nil)
		downs, _, offs := run(m, windows*int(cfg.LowDebounce), Input{On: true})
		if downs != windows || offs != 0 {
			t.Fatalf("windows=%d: downs=%d offs=%d", windows, downs, offs)
		}
		if m.Steps() != windows {
			t.Fatalf("steps=%d", m.Steps())
		}
	}
}

func TestNoStepdownAboveThreshold(t *testing.T) {
	cfg := testConfig()
	v := &voltTrace{trace{vals: repeat(cfg.LowVoltage, 1000)}}
	m := NewMonitor(cfg, v, nil)
	if downs, _, _ := run(m, 500, Input{On: true}); downs != 0 {
		t.Fatalf("downs=%d", downs)
	}
}

func TestRecoveryResetsCounter(t *testing.T) {
	cfg := testConfig()
	low, ok := cfg.LowVoltage-1, cfg.LowVoltage+5
	var vals []uint8
	for i := 0; i < 50; i++ {
		vals = append(vals, low, low, low, ok)
	}
	m := NewMonitor(cfg, &voltTrace{trace{vals: vals}}, nil)
	if downs, _, _ := run(m, len(vals), Input{On: true}); downs != 0 {
		t.Fatalf("interrupted low runs must not step down, got %d", downs)
	}
}

func TestStepGapLimitsRate(t *testing.T) {
	cfg := testConfig()
	cfg.StepGapTicks = 40
	m := NewMonitor(cfg, &voltTrace{trace{vals: repeat(cfg.LowVoltage-1, 1000)}}, nil)
	downs, _, _ := run(m, 40, Input{On: true})
	if downs != 1 {
		t.Fatalf("downs=%d", downs)
	}
}

func TestShutoffAtFloorAndCritical(t *testing.T) {
	cfg := testConfig()
	m := NewMonitor(cfg, &voltTrace{trace{vals: repeat(cfg.LowVoltage-1, 100)}}, nil)
	_, _, offs := run(m, int(cfg.LowDebounce), Input{On: true, AtFloor: true})
	if offs != 1 || !m.Shutdown() {
		t.Fatalf("expected shutoff at floor, offs=%d", offs)
	}
	if d := m.Tick(Input{On: true}); d != Steady {
		t.Fatalf("latched shutoff should stay quiet, got %v", d)
	}
	m.ResetSteps()
	m.Tick(Input{On: true})
	if m.Shutdown() {
		t.Fatal("reset should clear the shutoff")
	}

	cfg.Critical = 124
	m = NewMonitor(cfg, &voltTrace{trace{vals: repeat(100, 100)}}, nil)
	if _, _, offs := run(m, int(cfg.LowDebounce), Input{On: true}); offs != 1 {
		t.Fatalf("critical voltage should shut off, offs=%d", offs)
	}
}

func TestGlitchIgnoredOnceThenAccepted(t *testing.T) {
	cfg := testConfig()
	cfg.LowDebounce = 1
	// One implausible spike, then a genuine sustained drop.
	vals := []uint8{150, 150, 10, 150, 150, 100, 100}
	m := NewMonitor(cfg, &voltTrace{trace{vals: vals}}, nil)
	var ds []Decision
	for range vals {
		ds = append(ds, m.Tick(Input{On: true}))
	}
	for i, d := range ds[:5] {
		if d != Steady {
			t.Fatalf("tick %d: %v", i, d)
		}
	}
	if m.Snapshot().Glitches != 1 {
		t.Fatalf("glitches=%d", m.Snapshot().Glitches)
	}
	if ds[6] != StepDown || m.Snapshot().Voltage != 100 {
		t.Fatalf("in-range drop should act, got %v v=%d", ds, m.Snapshot().Voltage)
	}

	cfg.MaxJump = 20
	vals = []uint8{150, 150, 90, 90, 90}
	m = NewMonitor(cfg, &voltTrace{trace{vals: vals}}, nil)
	m.Tick(Input{On: true})
	m.Tick(Input{On: true})
	if d := m.Tick(Input{On: true}); d != Steady {
		t.Fatalf("first jump must be ignored, got %v", d)
	}
	if d := m.Tick(Input{On: true}); d != StepDown {
		t.Fatalf("repeated jump must be accepted, got %v", d)
	}
}

func TestThermalStepdownAndRecovery(t *testing.T) {
	cfg := testConfig()
	cfg.TempTarget = 60
	cfg.TempHysteresis = 5
	cfg.ThermalTicks = 10
	cfg.MinTurboTicks = 25
	temps := append(repeat(80, 4), repeat(50, 10)...)
	m := NewMonitor(cfg, &voltTrace{trace{vals: repeat(200, 1)}}, &tempTrace{trace{vals: temps}})

	// Hot from the start, but the first adjustment at tick 10 and 20 falls
	// inside the minimum turbo time.
	downs, _, _ := run(m, 20, Input{On: true})
	if downs != 0 {
		t.Fatalf("stepped down before the minimum turbo time: %d", downs)
	}
	downs, _, _ = run(m, 20, Input{On: true})
	if downs != 2 || m.Snapshot().ThermSteps != 2 {
		t.Fatalf("expected two thermal steps, got %d", downs)
	}
	_, ups, _ := run(m, 40, Input{On: true})
	if ups != 2 || m.Steps() != 0 {
		t.Fatalf("cooling should undo thermal steps, ups=%d steps=%d", ups, m.Steps())
	}
}

func TestTimedTurboWithoutSensor(t *testing.T) {
	cfg := testConfig()
	cfg.TurboTimeoutTicks = 30
	m := NewMonitor(cfg, &voltTrace{trace{vals: repeat(200, 1)}}, nil)
	if downs, _, _ := run(m, 29, Input{On: true, Turbo: true}); downs != 0 {
		t.Fatal("early timed stepdown")
	}
	if downs, _, _ := run(m, 100, Input{On: true, Turbo: true}); downs != 1 {
		t.Fatalf("expected exactly one timed stepdown, got %d", downs)
	}
	if downs, _, _ := run(m, 100, Input{On: true}); downs != 0 {
		t.Fatal("non-turbo levels are not timed")
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
	c := DefaultConfig()
	c.LowDebounce = 0
	if c.Validate() == nil {
		t.Fatal("zero debounce accepted")
	}
}

func TestSustainedImplausibleAcceptedAfterFirst(t *testing.T) {
	g := glitchFilter{min: 40, max: 250}
	vals := []uint8{150, 30, 30, 30, 30, 30, 30}
	var got []bool
	for _, v := range vals {
		_, ok := g.accept(v)
		got = append(got, ok)
	}
	want := []bool{true, false, true, true, true, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("accepted %v, want %v", got, want)
		}
	}
	if g.count != 1 {
		t.Fatalf("count=%d", g.count)
	}
	if _, ok := g.accept(150); !ok {
		t.Fatal("recovery to a plausible reading must be accepted")
	}
	if _, ok := g.accept(20); ok {
		t.Fatal("a new excursion is dropped once again")
	}
}

func TestLastGlitchReportsSensorGlitch(t *testing.T) {
	cfg := testConfig()
	m := NewMonitor(cfg, &voltTrace{trace{vals: []uint8{150, 150}}}, nil)
	m.Tick(Input{On: true})
	if m.LastGlitch() != nil {
		t.Fatal("no glitch yet")
	}
	m = NewMonitor(cfg, &voltTrace{trace{vals: []uint8{150, 10, 150}}}, nil)
	m.Tick(Input{On: true})
	m.Tick(Input{On: true})
	err := m.LastGlitch()
	if errcode.Of(err) != errcode.SensorGlitch {
		t.Fatalf("got %v", err)
	}
	if err.Error() != "regulate.voltage: sensor_glitch: dropped reading 10" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestStepsReadZeroWhileResetPending(t *testing.T) {
	cfg := testConfig()
	m := NewMonitor(cfg, &voltTrace{trace{vals: repeat(cfg.LowVoltage-1, 200)}}, nil)
	run(m, int(cfg.LowDebounce)+2, Input{On: true})
	if m.Steps() == 0 {
		t.Fatal("setup: expected a stepdown")
	}
	m.ResetSteps()
	if m.Steps() != 0 {
		t.Fatalf("steps=%d with a reset pending", m.Steps())
	}
}
