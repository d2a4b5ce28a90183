package special

import (
	"testing"

	"lightcode-go/light/modes"
	"lightcode-go/light/output"
)

type run struct {
	duty  uint8
	ticks uint32
}

// record ticks the runner n times and collapses equal consecutive duties.
func record(r *Runner, n int) []run {
	var out []run
	for i := 0; i < n; i++ {
		d, ok := r.Tick()
		if !ok {
			break
		}
		if len(out) > 0 && out[len(out)-1].duty == d[0] {
			out[len(out)-1].ticks++
			continue
		}
		out = append(out, run{d[0], 1})
	}
	return out
}

// groupsOf splits pulses into groups separated by off runs of at least gap.
func groupsOf(runs []run, gap uint32) [][]uint8 {
	var groups [][]uint8
	var cur []uint8
	for _, rn := range runs {
		if rn.duty == 0 {
			if rn.ticks >= gap && len(cur) > 0 {
				groups = append(groups, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, rn.duty)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// oneCycle is the length of one pass over the queued pattern.
func oneCycle(r *Runner) int {
	n := 0
	for _, s := range r.steps {
		n += int(s.ticks)
	}
	return n
}

func TestBattCheckBlinksDigits(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.BattCheck, Inputs{Voltage: 183})

	runs := record(r, oneCycle(r))
	got := groupsOf(runs, cfg.DigitPause)
	want := []int{1, 8, 3}
	if len(got) != len(want) {
		t.Fatalf("groups %v", got)
	}
	for i, g := range got {
		if len(g) != want[i] {
			t.Fatalf("group %d: %d blinks, want %d (%v)", i, len(g), want[i], got)
		}
	}
	if runs[0].duty == 0 {
		t.Fatal("a non-zero leading digit must not be preceded by a pause")
	}
}

func TestBattCheckLeadingAndInnerZeros(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.BattCheck, Inputs{Voltage: 42})
	runs := record(r, oneCycle(r))
	if runs[0].duty != 0 || runs[0].ticks < 2*cfg.DigitPause {
		t.Fatalf("empty hundreds group should be a silent pause, got %+v", runs[0])
	}
	if g := groupsOf(runs, cfg.DigitPause); len(g) != 2 || len(g[0]) != 4 || len(g[1]) != 2 {
		t.Fatalf("got %v", g)
	}

	r.Start(modes.BattCheck, Inputs{Voltage: 103})
	g := groupsOf(record(r, oneCycle(r)), cfg.DigitPause)
	if len(g) != 3 || len(g[1]) != 1 || g[1][0] != cfg.DimDuty {
		t.Fatalf("inner zero should be one dim flash, got %v", g)
	}
}

func TestBattCheckLoopsUntilStopped(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.BattCheck, Inputs{Voltage: 5})
	for i := 0; i < 5000; i++ {
		if _, ok := r.Tick(); !ok {
			t.Fatalf("battery check ended on its own at tick %d", i)
		}
	}
	r.Stop()
	if d, ok := r.Tick(); ok || !d.IsOff() {
		t.Fatal("stopped runner must be dark")
	}
}

func TestBatteryValueModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batt = BattPercent
	r := NewRunner(cfg)
	if r.BatteryValue(cfg.BattFull) != 100 || r.BatteryValue(cfg.BattEmpty) != 0 {
		t.Fatal("percent endpoints")
	}
	cfg.Batt = BattVolts
	r = NewRunner(cfg)
	if v := r.BatteryValue(180); v != 42 {
		t.Fatalf("volts: %d", v)
	}
	if _, err := ParseBattMode("bogus"); err == nil {
		t.Fatal("bad mode accepted")
	}
}

func TestStrobeSquareWave(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.Strobe, Inputs{Level: output.Single(200)})
	runs := record(r, int(cfg.StrobeOn+cfg.StrobeOff)*3)
	if len(runs) != 6 {
		t.Fatalf("runs %+v", runs)
	}
	for i, rn := range runs {
		wantDuty, wantTicks := uint8(200), cfg.StrobeOn
		if i%2 == 1 {
			wantDuty, wantTicks = 0, cfg.StrobeOff
		}
		if rn.duty != wantDuty || rn.ticks != wantTicks {
			t.Fatalf("run %d: %+v", i, rn)
		}
	}
}

func TestBikingStrobeNeverDark(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.BikingStrobe, Inputs{Level: output.Single(255)})
	for i := 0; i < 500; i++ {
		d, _ := r.Tick()
		if d.IsOff() {
			t.Fatalf("biking strobe went dark at tick %d", i)
		}
	}
}

func TestGroupBlinkIsOneShot(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRunner(cfg)
	r.Start(modes.GroupBlink, Inputs{Group: 1})
	runs := record(r, 10000)
	if g := groupsOf(runs, cfg.DigitPause); len(g) != 1 || len(g[0]) != 2 {
		t.Fatalf("group 2 should blink twice, got %v", g)
	}
	if r.Active() != modes.NoSpecial {
		t.Fatal("runner should be idle after the blink")
	}
}

func TestTimerCountsDownToGlimmer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimerMinutes = 2
	cfg.TimerMinuteTicks = 100
	r := NewRunner(cfg)
	r.Start(modes.Timer, Inputs{Level: output.Single(90)})

	blink := int(cfg.BlinkOn + cfg.BlinkOff)
	total := 2*blink + 100 + blink + 100
	runs := record(r, total+50)
	var pulses, steady int
	for _, rn := range runs {
		switch rn.duty {
		case cfg.FlashDuty:
			pulses++
		case 90:
			steady++
		}
	}
	if pulses != 3 || steady != 2 {
		t.Fatalf("pulses=%d steady=%d runs=%+v", pulses, steady, runs)
	}
	last := runs[len(runs)-1]
	if last.duty != cfg.DimDuty || last.ticks != 50 {
		t.Fatalf("expected a terminal glimmer, got %+v", last)
	}
}
