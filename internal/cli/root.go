// Package cli is the robocmd command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var flagConfig string

// defaultConfig returns the config path, checking ROBOCMD_CONFIG first.
func defaultConfig() string {
	if p := os.Getenv("ROBOCMD_CONFIG"); p != "" {
		return p
	}
	return "./robocmd.yaml"
}

// NewRootCmd creates the root cobra command for robocmd.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "robocmd",
		Short:        "Command-based robot scheduler",
		Long:         "robocmd runs a simulated robot under a cooperative command scheduler and journals every command lifecycle.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", defaultConfig(), "Path to config file (or ROBOCMD_CONFIG env)")

	root.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newCommandsCmd(),
		newJournalCmd(),
	)
	return root
}
