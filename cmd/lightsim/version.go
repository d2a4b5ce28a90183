package main

import (
	"github.com/spf13/cobra"

	"lightcode-go/services/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("lightsim version %s (profile schema %d)\n", version, config.SchemaVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
