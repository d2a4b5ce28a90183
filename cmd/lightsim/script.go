package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"lightcode-go/services/config"
	"lightcode-go/services/telemetry"
)

var (
	scriptStore string
	scriptVolt  uint8
	scriptTemp  int
)

var scriptCmd = &cobra.Command{
	Use:   "script <file|->",
	Short: "Replay a switch and sensor script against a profile",
	Long: `Replay a script, one command per line. Durations are ticks ("40")
or Go durations ("1.5s"). "#" starts a comment.

  press [dur]           hold the switch down (default one tick)
  release [dur]         let go (default one tick)
  click [n]             n short clicks, then wait for the sequence to end
  hold <dur>            press for dur, then release
  wait <dur>            advance time with the switch released
  volt <n> | temp <n>   set the sensor readings
  power <dur>           cut power for dur and boot again
  profile <name|file>   reload with another profile on the same store
  expect <field> <val>  fail unless the light matches; fields: state,
                        group, mode, ramp, duty, duties, special, locked,
                        steps, sleeping
  print                 write the current state`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&scriptStore, "store", "", "EEPROM image file (default: RAM)")
	scriptCmd.Flags().Uint8Var(&scriptVolt, "volt", 150, "initial battery ADC reading")
	scriptCmd.Flags().IntVar(&scriptTemp, "temp", -1, "initial temperature; -1 for no sensor")
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	opts := defaultSimOptions()
	opts.StorePath, opts.Volt, opts.Temp = scriptStore, scriptVolt, scriptTemp
	sim, err := newSim(p, opts)
	if err != nil {
		return err
	}
	defer sim.Close()
	return execScript(sim, in, cmd.OutOrStdout())
}

func execScript(sim *Sim, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		args, err := shlex.Split(sc.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(args) == 0 {
			continue
		}
		if err := execLine(sim, args, out); err != nil {
			return fmt.Errorf("line %d: %s: %w", line, args[0], err)
		}
	}
	return sc.Err()
}

func execLine(sim *Sim, args []string, out io.Writer) error {
	p := sim.Profile()
	tap := int(p.Click.Debounce) + 2
	switch args[0] {
	case "press", "release":
		n, err := optTicks(sim, args, 1)
		if err != nil {
			return err
		}
		sim.Btn.Set(args[0] == "press")
		sim.Steps(n)
	case "click":
		n, err := optInt(args, 1)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			sim.Btn.Set(true)
			sim.Steps(tap)
			sim.Btn.Set(false)
			sim.Steps(tap)
		}
		sim.Steps(int(p.Click.GapTicks) + 1)
	case "hold":
		n, err := reqTicks(sim, args)
		if err != nil {
			return err
		}
		sim.Btn.Set(true)
		sim.Steps(n)
		sim.Btn.Set(false)
		sim.Steps(tap)
	case "wait":
		n, err := reqTicks(sim, args)
		if err != nil {
			return err
		}
		sim.Btn.Set(false)
		sim.Steps(n)
	case "volt", "temp":
		v, err := reqUint8(args)
		if err != nil {
			return err
		}
		if args[0] == "volt" {
			sim.Volt.Set(v)
		} else if sim.Temp != nil {
			sim.Temp.Set(v)
		} else {
			return fmt.Errorf("no thermal sensor (run with --temp)")
		}
	case "power":
		if len(args) < 2 {
			return fmt.Errorf("missing duration")
		}
		d, err := parseDuration(sim, args[1])
		if err != nil {
			return err
		}
		return sim.PowerCycle(d)
	case "profile":
		if len(args) < 2 {
			return fmt.Errorf("missing profile")
		}
		np, err := config.Resolve(args[1])
		if err != nil {
			return err
		}
		return sim.Reload(np)
	case "expect":
		if len(args) < 3 {
			return fmt.Errorf("usage: expect <field> <value>")
		}
		got := field(sim, args[1])
		if got == "" {
			return fmt.Errorf("unknown field %q", args[1])
		}
		if want := strings.Join(args[2:], " "); got != want {
			return fmt.Errorf("%s = %s, want %s (at %s)", args[1], got, want, sim.Elapsed())
		}
	case "print":
		fmt.Fprintf(out, "%8s  %s  %s\n", sim.Elapsed(), telemetry.Summary(sim.State()),
			telemetry.Summary(sim.Regulation()))
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

func field(sim *Sim, name string) string {
	st := sim.State()
	ctl := sim.Controller()
	switch name {
	case "state":
		return st.State
	case "group":
		return strconv.Itoa(st.Group)
	case "mode":
		return strconv.Itoa(st.Mode)
	case "ramp":
		return strconv.Itoa(int(st.Ramp))
	case "duty":
		return strconv.Itoa(int(st.Duties[0]))
	case "duties":
		return fmt.Sprintf("%d/%d/%d", st.Duties[0], st.Duties[1], st.Duties[2])
	case "special":
		if st.Special == "" {
			return "none"
		}
		return st.Special
	case "locked":
		return strconv.FormatBool(st.Locked)
	case "steps":
		return strconv.Itoa(ctl.Monitor().Steps())
	case "sleeping":
		return strconv.FormatBool(ctl.Sleeping())
	}
	return ""
}

func parseDuration(sim *Sim, s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * time.Duration(sim.Profile().TickMs) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

func reqTicks(sim *Sim, args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("missing duration")
	}
	return optTicks(sim, args, 0)
}

func optTicks(sim *Sim, args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	d, err := parseDuration(sim, args[1])
	if err != nil {
		return 0, err
	}
	return sim.TicksFor(d), nil
}

func optInt(args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("bad count %q", args[1])
	}
	return n, nil
}

func reqUint8(args []string) (uint8, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("missing value")
	}
	n, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}
