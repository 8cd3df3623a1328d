package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"robocmd/internal/app"
	"robocmd/internal/config"
	"robocmd/internal/robot"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and its bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigManager(flagConfig).Load()
			if err != nil {
				return err
			}
			if err := app.Check(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", flagConfig)
			fmt.Fprintf(out, "robot enabled: %v\n", cfg.Robot.Enabled)
			if len(cfg.Bindings) == 0 {
				fmt.Fprintln(out, "No bindings.")
				return nil
			}
			fmt.Fprintf(out, "%-16s  %-8s  %-10s  %-14s  %s\n", "COMMAND", "ON", "ACTION", "INTERRUPTIBLE", "SPEC")
			for _, b := range cfg.Bindings {
				fmt.Fprintf(out, "%-16s  %-8s  %-10s  %-14v  %s\n", b.Command, b.On, b.ActionOrDefault(), b.IsInterruptible(), b.Spec)
			}
			return nil
		},
	}
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the command catalog usable in bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range robot.New(robot.Tuning{}, nil).Commands() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
