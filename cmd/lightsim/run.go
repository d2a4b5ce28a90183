package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lightcode-go/services/config"
	"lightcode-go/x/logx"
	"lightcode-go/x/shmring"
)

var (
	runStore string
	runVolt  uint8
	runTemp  int
	runWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive a simulated light from the keyboard",
	Long: `Launch the interactive simulator.

The terminal cannot report key releases, so space toggles the switch:
press it once to hold, again to let go. "c" gives a short click.

With --watch and a profile file, edits to the file are applied live on
the same store.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStore, "store", "", "EEPROM image file (default: RAM)")
	runCmd.Flags().Uint8Var(&runVolt, "volt", 150, "initial battery ADC reading")
	runCmd.Flags().IntVar(&runTemp, "temp", -1, "initial temperature; -1 for no sensor")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "reload the profile file when it changes")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("run needs a terminal; use \"lightsim script\" for batch replay")
	}
	p, err := loadProfile()
	if err != nil {
		return err
	}
	opts := defaultSimOptions()
	opts.StorePath, opts.Volt, opts.Temp = runStore, runVolt, runTemp

	logs := shmring.New(4096)
	logx.SetOutput(logs)
	defer logx.SetOutput(cmd.ErrOrStderr())

	sim, err := newSim(p, opts)
	if err != nil {
		return err
	}
	defer sim.Close()

	prog := tea.NewProgram(newModel(sim, logs), tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if runWatch {
		if _, builtin := config.Builtin(profileFlag); builtin {
			return fmt.Errorf("--watch needs a profile file, %q is built in", profileFlag)
		}
		go func() {
			err := config.Watch(cmd.Context(), profileFlag, func(p config.Profile, err error) {
				prog.Send(profileMsg{p: p, err: err})
			})
			if err != nil {
				prog.Send(profileMsg{err: err})
			}
		}()
	}

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
