package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lightcode-go/services/config"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect light profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in profiles",
	RunE:  runProfilesList,
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Print a profile as TOML with every inherited key filled in",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesShow,
}

var profilesCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate profile files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProfilesCheck,
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesCheckCmd)
	rootCmd.AddCommand(profilesCmd)
}

func runProfilesList(cmd *cobra.Command, _ []string) error {
	for _, name := range config.Names() {
		p, err := config.Lookup(name)
		if err != nil {
			return err
		}
		kind := "e-switch"
		if p.Clicky {
			kind = "clicky"
		}
		cmd.Printf("%-12s %-8s channels=%d groups=%d\n", name, kind, p.Channels, len(p.Groups))
	}
	return nil
}

func runProfilesShow(cmd *cobra.Command, args []string) error {
	f, ok := config.Builtin(args[0])
	if !ok {
		var err error
		if f, err = config.ReadFile(args[0]); err != nil {
			return err
		}
	}
	if _, err := f.Profile(); err != nil {
		return err
	}
	b, err := config.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", args[0], err)
	}
	cmd.Print(string(b))
	return nil
}

func runProfilesCheck(cmd *cobra.Command, args []string) error {
	bad := 0
	for _, path := range args {
		p, err := config.Load(path)
		if err != nil {
			cmd.Printf("FAIL %s: %v\n", path, err)
			bad++
			continue
		}
		cmd.Printf("ok   %s (%s)\n", path, p.Name)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d profiles invalid", bad, len(args))
	}
	return nil
}
