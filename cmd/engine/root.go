package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd creates the root engine command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "engine",
		Short:         "Reminder notification and alarm lifecycle engine",
		Long:          "engine fires reminder alarms, posts alerts, routes alert actions\nand runs the durable background work behind them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newBootCmd(),
	)

	return cmd
}
