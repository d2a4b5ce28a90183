package main

import (
	"github.com/spf13/cobra"

	"lightcode-go/services/config"
	"lightcode-go/x/logx"
)

var (
	version = "dev"

	profileFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "lightsim",
	Short: "Flashlight UI simulator",
	Long: `lightsim drives the flashlight UI core on the host.

Profiles are built-in names (see "lightsim profiles list") or paths to
TOML profile files.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logx.SetOutput(cmd.ErrOrStderr())
		logx.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "narsil", "built-in profile name or TOML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func loadProfile() (config.Profile, error) {
	return config.Resolve(profileFlag)
}
